// Package commands provides the CLI commands for the asmcfg tool.
package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/internal/config"
	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/internal/logging"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "asmcfg",
	Short: "asmcfg - assembly control flow graph extraction and comparison",
	Long: `asmcfg turns textual assembly (.asm MASM-style, .s GNU-style) into
control flow graphs and compares two graphs node-by-node and edge-by-edge.

Commands:
  expand      Expand MASM INCLUDE directives
  build       Build a control flow graph from an assembly file
  compare     Compare two graphs (assembly or JSON node/edge form)
  lookup      Resolve a graph node to its source line range
  init        Create a config file interactively

Use "asmcfg [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: ./.asmcfg/config.yaml, ~/.asmcfg/config.yaml)")
}

// loadConfig resolves the effective config for a command invocation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// newLogger builds the command logger from config plus the --verbose flag.
func newLogger(cmd *cobra.Command, cfg *config.Config) *logrus.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logging.New(logging.Options{
		Verbose: verbose || cfg.Verbose,
		JSON:    cfg.LogJSON,
	})
}
