// Package cmd wires configuration and the core components together and
// launches the TUI.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/cropscan/internal/api"
	"github.com/fakeyudi/cropscan/internal/auth"
	"github.com/fakeyudi/cropscan/internal/config"
	"github.com/fakeyudi/cropscan/internal/detect"
	"github.com/fakeyudi/cropscan/internal/history"
	"github.com/fakeyudi/cropscan/internal/intake"
	"github.com/fakeyudi/cropscan/internal/tui"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var (
	flagServer string
	flagWatch  string
)

var rootCmd = &cobra.Command{
	Use:   "cropscan",
	Short: "Detect crop leaf diseases and track your field's health history",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load and merge config files; flags take precedence over both.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		if flagServer != "" {
			cfg.ServerURL = flagServer
		}
		if flagWatch != "" {
			cfg.WatchDir = flagWatch
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdout.Fd()) {
			return fmt.Errorf("cropscan needs an interactive terminal")
		}

		client, err := api.New(cfg.ServerURL, time.Duration(cfg.RequestTimeoutSeconds)*time.Second)
		if err != nil {
			return fmt.Errorf("setting up service client: %w", err)
		}

		store := auth.NewStore(client)
		images := intake.NewPipeline()
		flow := detect.NewWorkflow(client, images)
		agg := history.NewAggregator(client)

		var watchEvents <-chan string
		if cfg.WatchDir != "" {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			watchEvents, err = intake.Watch(ctx, cfg.WatchDir)
			if err != nil {
				return fmt.Errorf("starting drop-directory watch: %w", err)
			}
		}

		return tui.Run(store, flow, agg, cfg, watchEvents)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "detection service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagWatch, "watch", "", "directory to watch for dropped leaf photos")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration.
func GetConfig() config.Config {
	return cfg
}
