package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Create, list and remove modules",
}

var moduleCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create an empty draft module",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()

		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			id = uuid.NewString()
		}
		m, err := eng.CreateModule(cmd.Context(), id, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			a.close()
			os.Exit(1)
		}
		fmt.Printf("Created module '%s' (%s)\n", m.Title, m.ID)
	},
}

var moduleLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all modules",
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()

		ids, err := eng.Modules().List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing modules: %v\n", err)
			a.close()
			os.Exit(1)
		}
		if len(ids) == 0 {
			fmt.Println("No modules found.")
			return
		}
		for _, id := range ids {
			m, err := eng.Modules().Load(cmd.Context(), id)
			if err != nil {
				fmt.Printf("- %s (unreadable: %v)\n", id, err)
				continue
			}
			fmt.Printf("- %s  %s  [%s, %d nodes]\n", m.ID, m.Title, m.Visibility, len(m.Content.Nodes))
		}
	},
}

var moduleRmCmd = &cobra.Command{
	Use:   "rm MODULE_ID...",
	Short: "Remove one or more modules",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()

		hasError := false
		for _, id := range args {
			if err := eng.Modules().Delete(cmd.Context(), id); err != nil {
				fmt.Printf("Error removing '%s': %v\n", id, err)
				hasError = true
			} else {
				fmt.Printf("Removed module '%s'\n", id)
			}
		}
		if hasError {
			a.close()
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(moduleCmd)
	moduleCmd.AddCommand(moduleCreateCmd)
	moduleCmd.AddCommand(moduleLsCmd)
	moduleCmd.AddCommand(moduleRmCmd)

	moduleCreateCmd.Flags().String("id", "", "Module id (random UUID when empty)")
}
