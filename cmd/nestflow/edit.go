package main

import (
	"fmt"
	"os"

	"github.com/aretw0/nestflow/internal/cli"
	"github.com/aretw0/nestflow/pkg/autosave"
	"github.com/aretw0/nestflow/pkg/persistence"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit MODULE_ID",
	Short: "Edit a module graph interactively",
	Long: `Opens a line-oriented editor on a module graph. Every change is saved
automatically after a short quiet period; 'save' writes immediately.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		defer a.close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		saveOpts := []autosave.Option{
			autosave.WithDebounce(a.cfg.Autosave.Debounce),
			autosave.WithResetDelays(a.cfg.Autosave.SavedReset, a.cfg.Autosave.ErrorReset),
		}
		if a.stores.Locker != nil {
			saveOpts = append(saveOpts, autosave.WithLocker(a.stores.Locker))
		}

		content := persistence.NewContentStore(a.stores.Modules)
		in := cli.NewInterruptibleReader(os.Stdin, ctx.Done())
		editor := cli.NewGraphEditor(args[0], content, in, os.Stdout,
			cli.WithSaverOptions(saveOpts...),
			cli.WithEditorLogger(a.logger),
		)
		if err := editor.Run(ctx); err != nil && !cli.IsInterrupted(err) {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
