package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"FxForecast/internal/di"
	"FxForecast/pkg/config"
	"FxForecast/pkg/server"
)

var configPath string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fxforecast",
		Short:         "Currency and inflation forecasts from EVDS series",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the snapshot scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := initApp()
			if err != nil {
				return err
			}
			defer cleanup()
			return app.Serve(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "snapshot",
		Short: "Regenerate every configured snapshot document once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := initApp()
			if err != nil {
				return err
			}
			defer cleanup()
			return app.RunSnapshots(cmd.Context())
		},
	})

	return root
}

func initApp() (*server.App, func(), error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("app initialization failed: %w", err)
	}
	return app, cleanup, nil
}
