package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FinixEz/Interactive-CFG-Comparison-Web-Application/pkg/lines"
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <file> <node>",
	Short: "Resolve a graph node to its source line range",
	Long: `Builds the control flow graph for an assembly file and resolves one node
identity to the line range it covers in the expanded document. This is the
same contract a rendering layer uses to highlight source for a selected
node. An unknown node is reported, not an error.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, nodeID := args[0], args[1]

		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log := newLogger(cmd, cfg)

		opts := pipelineOptions{}
		opts.dialect, _ = cmd.Flags().GetString("dialect")
		opts.arch, _ = cmd.Flags().GetString("arch")

		g, warnings, err := loadGraph(path, opts, cfg, log)
		printWarnings(log, warnings)
		if err != nil {
			return fmt.Errorf("loading graph: %w", err)
		}

		idx := lines.NewIndex(g)
		r, found := idx.Lookup(nodeID)

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			out := struct {
				Node  string       `json:"node"`
				Found bool         `json:"found"`
				Range *lines.Range `json:"range,omitempty"`
			}{Node: nodeID, Found: found}
			if found {
				out.Range = &r
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if !found {
			fmt.Printf("node %q not found in %s (%d blocks)\n", nodeID, path, idx.Len())
			return nil
		}
		fmt.Printf("%s: lines %d-%d\n", nodeID, r.Start, r.End)
		return nil
	},
}

func init() {
	lookupCmd.Flags().String("dialect", "", "Assembly dialect: masm or gnu")
	lookupCmd.Flags().String("arch", "", "Architecture: x86_64 or arm64")
	lookupCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(lookupCmd)
}
