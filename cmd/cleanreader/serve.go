package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/cleanreader/bootstrap"
	"github.com/artpar/cleanreader/config"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction API server",
	Long: `Start the cleanreader API server.

The server will:
  - Load configuration from cleanreader.yaml (or --config)
  - Or fall back to CLEANREADER_* environment variables and defaults
  - Open the SQLite database and apply migrations
  - Serve POST /v1/extract plus the account and usage endpoints
  - Apply authentication, quotas, rate limiting, and usage metering

Environment variables (for container deployments):
  CLEANREADER_DATABASE_PATH  - SQLite path (default: cleanreader.db)
  CLEANREADER_SERVER_PORT    - Server port (default: 8080)
  CLEANREADER_LOG_LEVEL      - Log level: debug, info, warn, error
  CLEANREADER_LOG_FORMAT     - Log format: json or console

Examples:
  cleanreader serve
  cleanreader serve --config /etc/cleanreader/config.yaml
  cleanreader serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
