package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/cleanreader/adapters/sqlite"
	"github.com/artpar/cleanreader/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a starter config and create the database",
	Long: `Generate a starter cleanreader.yaml and initialize the database.

Writes a commented configuration file next to the current directory
(or at --config), then creates the SQLite database and applies
migrations. Refuses to overwrite an existing config unless --force.

Examples:
  cleanreader init
  cleanreader init --config /etc/cleanreader/config.yaml --force`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

const starterConfig = `# cleanreader configuration
# Values support ${ENV_VAR} expansion. Anything here can also be set
# through CLEANREADER_* environment variables (env wins).

server:
  host: 0.0.0.0
  port: 8080
  read_timeout: 30s
  write_timeout: 60s

database:
  path: cleanreader.db

extractor:
  user_agent: "Mozilla/5.0 (compatible; CleanReader/1.0)"
  max_body_kb: 10240

# Per-request pricing in USD. Surcharges stack on top of the base
# price before the tier discount is applied.
pricing:
  base_price: 0.0015
  large_page_price: 0.001
  image_price: 0.002
  pdf_price: 0.003
  large_page_kb: 500

alerts:
  warning_percent: 80
  critical_percent: 100

usage:
  batch_size: 100
  flush_interval: 10s

logging:
  level: info
  format: json

# Leave tiers out to use the built-in catalog. To customize, all six
# tiers must be listed:
#
# tiers:
#   - name: free
#     monthly_limit: 100
#     rate_per_minute: 5
#     rate_per_day: 100
#     discount: 1.0
#   - name: developer
#     monthly_limit: 1000
#     rate_per_minute: 10
#     rate_per_day: 1000
#     discount: 1.0
#     price_monthly: 9
#   ...
`

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println("Initializing cleanreader...")
	fmt.Println()

	if _, err := os.Stat(cfgFile); err == nil && !initForce {
		fmt.Printf("  %s Config already exists: %s (use --force to overwrite)\n", crossMark, cfgFile)
		return fmt.Errorf("config file already exists")
	}

	if err := os.WriteFile(cfgFile, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Printf("  %s Wrote %s\n", checkMark, cfgFile)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("generated config failed validation: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	fmt.Printf("  %s Database ready: %s\n", checkMark, cfg.Database.Path)

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  cleanreader keys create --email=you@example.com --tier=free")
	fmt.Println("  cleanreader serve")
	return nil
}
