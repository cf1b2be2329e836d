package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/asm"
)

// expandCmd represents the expand command
var expandCmd = &cobra.Command{
	Use:   "expand <file>",
	Short: "Expand MASM INCLUDE directives",
	Long: `Recursively expands INCLUDE directives in a MASM-style assembly file and
prints the expanded document. Includes that cannot be resolved are kept
verbatim and reported as warnings on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log := newLogger(cmd, cfg)

		includeDir, _ := cmd.Flags().GetString("include-dir")

		content, err := asm.ReadSource(path)
		if err != nil {
			return err
		}

		opts := pipelineOptions{includeDir: includeDir}
		expanded, warnings, err := expandSource(path, content, asm.DialectMASM, opts, cfg, log)
		printWarnings(log, warnings)
		if err != nil {
			return fmt.Errorf("expanding %s: %w", path, err)
		}

		fmt.Fprintln(os.Stdout, expanded)
		return nil
	},
}

func init() {
	expandCmd.Flags().String("include-dir", "", "Directory searched for include files (default: the input file's directory)")
	RootCmd.AddCommand(expandCmd)
}
