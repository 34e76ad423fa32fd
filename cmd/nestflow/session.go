package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage playback sessions",
	Long:  `List, inspect and remove the playback sessions kept by the configured session store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List sessions with their module and progress",
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()
		ctx := cmd.Context()

		ids, err := eng.Sessions().List(ctx)
		if err != nil {
			a.fatal("Error listing sessions: %v", err)
		}
		if len(ids) == 0 {
			fmt.Println("No sessions found.")
			return
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tMODULE\tSTATUS\tVISITED")
		for _, id := range ids {
			state, err := eng.Sessions().Load(ctx, id)
			if err != nil {
				fmt.Fprintf(w, "%s\t?\t%v\t\n", id, err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", id, state.ModuleID, state.Status, len(state.History))
		}
		_ = w.Flush()
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect SESSION_ID",
	Short: "Print the stored state of a session, or its current view with --view",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()

		var v any
		var err error
		if view, _ := cmd.Flags().GetBool("view"); view {
			v, err = eng.Sessions().View(cmd.Context(), args[0])
		} else {
			v, err = eng.Sessions().Load(cmd.Context(), args[0])
		}
		if err != nil {
			a.fatal("Error loading session '%s': %v", args[0], err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			a.fatal("Error encoding session: %v", err)
		}
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [SESSION_ID...]",
	Short: "Remove sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()
		ctx := cmd.Context()

		if all, _ := cmd.Flags().GetBool("all"); all {
			ids, err := eng.Sessions().List(ctx)
			if err != nil {
				a.fatal("Error listing sessions: %v", err)
			}
			args = ids
		}

		failed := 0
		for _, id := range args {
			if err := eng.Sessions().Delete(ctx, id); err != nil {
				fmt.Printf("Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Printf("Removed session '%s'\n", id)
		}
		if failed > 0 {
			a.fatal("%d of %d sessions could not be removed", failed, len(args))
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)

	sessionInspectCmd.Flags().Bool("view", false, "Render the current node instead of the raw state")
	sessionRmCmd.Flags().Bool("all", false, "Remove every session")
}
