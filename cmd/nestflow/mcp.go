package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/aretw0/nestflow/internal/cli"
	"github.com/aretw0/nestflow/pkg/adapters/mcp"
	"github.com/aretw0/nestflow/pkg/observability"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose modules and playback to AI agents over MCP",
	Long: `Runs a Model Context Protocol server with tools to list, validate and edit
module graphs and to play modules one node at a time.

Transports:
  stdio  JSON-RPC over standard input and output, for local agents (default)
  sse    Server-Sent Events over HTTP on --port, for remote agents`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		if transport != "stdio" && transport != "sse" {
			fmt.Printf("Unknown transport %q. Supported: stdio, sse\n", transport)
			os.Exit(1)
		}

		a, eng := mustOpen(cmd, observability.LoggingHooks)
		defer a.close()
		srv := mcp.NewServer(eng.Modules(), eng.Sessions(), eng.Editor())

		if transport == "stdio" {
			// Stdout carries JSON-RPC; the process logger writes to stderr.
			a.logger.Info("Serving MCP over stdio")
			if err := srv.ServeStdio(); err != nil {
				a.fatal("MCP server failed: %v", err)
			}
			return
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		a.logger.Info("Serving MCP over SSE", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.fatal("MCP server failed: %v", err)
		}
		a.logger.Info("MCP server stopped", "signal", ctx.Signal())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8080, "Port to listen on with --transport sse")
}
