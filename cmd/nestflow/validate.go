package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate MODULE_ID...",
	Short: "Check module graphs for consistency",
	Long:  `Reports dangling connections, unconnected router choices and nodes unreachable from the first node.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()

		failed := false
		for _, id := range args {
			if err := eng.Validate(cmd.Context(), id); err != nil {
				fmt.Printf("%s: validation failed: %v\n", id, err)
				failed = true
				continue
			}
			fmt.Printf("%s: graph is valid! ✅\n", id)
		}
		if failed {
			a.close()
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
