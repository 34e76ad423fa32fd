package main

import (
	"fmt"
	"os"

	"github.com/aretw0/nestflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph MODULE_ID",
	Short: "Export the module graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the module. With --session, the nodes
visited by that playback session are highlighted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()

		res, err := eng.Inspect(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error inspecting graph: %v\n", err)
			os.Exit(1)
		}

		var overlay *graph.GraphOverlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			state, err := eng.Sessions().Load(cmd.Context(), sessionID)
			if err != nil {
				fmt.Printf("Error loading session: %v\n", err)
				os.Exit(1)
			}
			overlay = graph.OverlayFromState(state)
		}

		fmt.Print(graph.GenerateMermaid(res.Nodes, overlay))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the path of a playback session")
}
