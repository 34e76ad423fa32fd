package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/nestflow/internal/cli"
	"github.com/aretw0/nestflow/internal/presentation/tui"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play MODULE_ID",
	Short: "Play a module in the terminal",
	Long: `Walks through a module node by node. Messages are rendered as Markdown when
stdout is a terminal; routers, questions and rankings prompt for an answer.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, eng := mustOpen(cmd, nil)
		defer a.close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		m, err := eng.Modules().Load(ctx, args[0])
		if err != nil {
			fmt.Printf("Error loading module: %v\n", err)
			os.Exit(1)
		}

		opts := []cli.PlayerOption{cli.WithPlayerLogger(a.logger)}
		if raw, _ := cmd.Flags().GetBool("raw"); !raw && cli.IsTerminal(os.Stdout) {
			opts = append(opts, cli.WithMarkdown(tui.NewRenderer()))
		}

		in := cli.NewInterruptibleReader(os.Stdin, ctx.Done())
		p := cli.NewPlayer(eng.Sessions().Engine(), in, os.Stdout, opts...)

		state, err := p.Play(ctx, m.ID, m.Content.Nodes)
		switch {
		case errors.Is(err, domain.ErrEmptyGraph):
			return
		case err != nil && cli.IsInterrupted(err):
			if sig := ctx.Signal(); sig != nil {
				a.logger.Debug("Playback interrupted", "signal", sig)
			}
			fmt.Println()
			return
		case err != nil:
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		a.logger.Debug("Playback ended", "module_id", m.ID, "status", state.Status)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Bool("raw", false, "Print message content without Markdown rendering")
}
