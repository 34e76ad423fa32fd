package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aretw0/nestflow/pkg/canvas"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/aretw0/nestflow/pkg/editor"
	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Change a module graph one gesture at a time",
	Long:  `Each subcommand loads the module, applies one change and saves it. Use 'edit' for a session.`,
}

var nodeAddCmd = &cobra.Command{
	Use:   "add MODULE_ID TYPE",
	Short: "Add a node with default configuration",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		t := domain.NodeType(args[1])
		if !t.Valid() {
			fmt.Printf("Error: %q: %v\n", args[1], domain.ErrUnknownNodeType)
			os.Exit(1)
		}
		var added domain.Node
		applyEdit(cmd, args[0], func(ws *editor.Workspace) error {
			added = ws.Graph.AddNode(t)
			return nil
		})
		fmt.Printf("Added %s node %s\n", added.Type, added.ID)
	},
}

var nodeRmCmd = &cobra.Command{
	Use:   "rm MODULE_ID NODE_ID",
	Short: "Delete a node and every connection into it",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		applyEdit(cmd, args[0], func(ws *editor.Workspace) error {
			ws.Canvas.DeleteNode(args[1])
			return nil
		})
	},
}

var nodeMvCmd = &cobra.Command{
	Use:   "mv MODULE_ID NODE_ID X Y",
	Short: "Move a node on the canvas",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		x, errX := strconv.ParseFloat(args[2], 64)
		y, errY := strconv.ParseFloat(args[3], 64)
		if errX != nil || errY != nil {
			fmt.Println("Error: X and Y must be numbers")
			os.Exit(1)
		}
		applyEdit(cmd, args[0], func(ws *editor.Workspace) error {
			ws.Canvas.Drag(args[1], domain.Position{X: x, Y: y})
			return nil
		})
	},
}

var nodeConnectCmd = &cobra.Command{
	Use:   "connect MODULE_ID SOURCE_ID TARGET_ID",
	Short: "Connect a node, or one router choice with --choice, to a target",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		choiceID, _ := cmd.Flags().GetString("choice")
		applyEdit(cmd, args[0], func(ws *editor.Workspace) error {
			_, err := ws.Canvas.Connect(canvas.ConnectRequest{SourceID: args[1], TargetID: args[2], ChoiceID: choiceID})
			return err
		})
	},
}

var nodeDisconnectCmd = &cobra.Command{
	Use:   "disconnect MODULE_ID SOURCE_ID TARGET_ID",
	Short: "Remove the edge between two nodes",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		choiceID, _ := cmd.Flags().GetString("choice")
		applyEdit(cmd, args[0], func(ws *editor.Workspace) error {
			ws.Canvas.DisconnectEdge(canvas.EdgeID{SourceID: args[1], ChoiceID: choiceID, TargetID: args[2]})
			return nil
		})
	},
}

// applyEdit runs one editor mutation and reports the resulting changes.
func applyEdit(cmd *cobra.Command, moduleID string, mutate func(*editor.Workspace) error) {
	a, eng := mustOpen(cmd, nil)
	defer a.close()

	res, err := eng.Edit(cmd.Context(), moduleID, mutate)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		a.close()
		os.Exit(1)
	}
	if len(res.Changes) == 0 {
		fmt.Println("Nothing changed.")
		return
	}
	for _, c := range res.Changes {
		fmt.Printf("  %s %s\n", c.Op, c.NodeID)
	}
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.AddCommand(nodeAddCmd)
	nodeCmd.AddCommand(nodeRmCmd)
	nodeCmd.AddCommand(nodeMvCmd)
	nodeCmd.AddCommand(nodeConnectCmd)
	nodeCmd.AddCommand(nodeDisconnectCmd)

	nodeConnectCmd.Flags().String("choice", "", "Router choice id to connect")
	nodeDisconnectCmd.Flags().String("choice", "", "Router choice id of the edge")
}
