package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/nestflow"
	"github.com/aretw0/nestflow/internal/cli"
	"github.com/aretw0/nestflow/internal/config"
	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nestflow",
	Short: "Nestflow builds and plays interactive learning modules",
	Long: `Nestflow edits learning modules as graphs of content, video and question nodes,
and plays them back one node at a time, from the terminal, over HTTP or to AI agents via MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML or TOML config file")
	rootCmd.PersistentFlags().String("store", "", "Store backend override: memory, file, redis, loam or sqlite")
	rootCmd.PersistentFlags().String("log-level", "", "Log level override: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Discard log output")
}

// app holds what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stores *cli.Stores
}

func openApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if backend, _ := cmd.Flags().GetString("store"); backend != "" {
		cfg.Store.Backend = backend
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := cfg.LogLevel()
	quiet, _ := cmd.Flags().GetBool("quiet")
	logger := cli.NewLogger(level, cfg.Log.Format, quiet)

	stores, err := cli.OpenStores(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, stores: stores}, nil
}

// hooksFunc builds playback hooks once the logger exists.
type hooksFunc func(logger *slog.Logger) domain.LifecycleHooks

// engine wires the stores into the library facade.
func (a *app) engine(hooks hooksFunc) (*nestflow.Engine, error) {
	opts := []nestflow.Option{
		nestflow.WithModuleStore(a.stores.Modules),
		nestflow.WithSessionStore(a.stores.Sessions),
		nestflow.WithMediaResolver(a.stores.Media),
		nestflow.WithLogger(a.logger),
	}
	if hooks != nil {
		opts = append(opts, nestflow.WithLifecycleHooks(hooks(a.logger)))
	}
	if a.stores.Locker != nil {
		opts = append(opts, nestflow.WithLocker(a.stores.Locker))
	}
	return nestflow.New("", opts...)
}

func (a *app) close() {
	if err := a.stores.Close(); err != nil {
		a.logger.Warn("Failed to close stores", "err", err)
	}
}

// mustOpen opens the app and its engine or exits.
func mustOpen(cmd *cobra.Command, hooks hooksFunc) (*app, *nestflow.Engine) {
	a, err := openApp(cmd)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	eng, err := a.engine(hooks)
	if err != nil {
		a.close()
		fmt.Printf("Error initializing nestflow: %v\n", err)
		os.Exit(1)
	}
	return a, eng
}

// fatal closes the stores, prints the message and exits.
func (a *app) fatal(format string, args ...any) {
	a.close()
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
