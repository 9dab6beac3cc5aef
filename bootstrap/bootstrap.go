// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/cleanreader/adapters/clock"
	"github.com/artpar/cleanreader/adapters/extractor"
	apihttp "github.com/artpar/cleanreader/adapters/http"
	"github.com/artpar/cleanreader/adapters/idgen"
	"github.com/artpar/cleanreader/adapters/memory"
	"github.com/artpar/cleanreader/adapters/metrics"
	"github.com/artpar/cleanreader/adapters/sqlite"
	"github.com/artpar/cleanreader/app"
	"github.com/artpar/cleanreader/config"
	"github.com/artpar/cleanreader/domain/billing"
	"github.com/artpar/cleanreader/domain/tier"
	"github.com/artpar/cleanreader/domain/usage"
	"github.com/artpar/cleanreader/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Holder     *config.Holder // nil without hot reload
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Service    *app.ExtractService
	Reporter   *app.AccountService

	usageRecorder ports.UsageRecorder
	rateLimit     *memory.RateLimitStore
}

// New creates and initializes the application from a loaded config.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("initializing cleanreader")

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewWithHotReload creates the application with a config file watcher.
// Tier, pricing, alert, and log-level changes apply without restart.
func NewWithHotReload(path string) (*App, error) {
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "json"})

	holder, err := config.NewHolder(path, logger)
	if err != nil {
		return nil, err
	}

	a, err := New(holder.Get())
	if err != nil {
		holder.Stop()
		return nil, err
	}
	a.Holder = holder

	holder.OnChange(a.applyReload)
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watching disabled")
	}
	holder.WatchSignals()

	return a, nil
}

func (a *App) init() error {
	cfg := a.Config

	// Database
	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	a.DB = db
	a.Logger.Info().Str("path", cfg.Database.Path).Msg("database initialized")

	// Metrics
	if !cfg.Metrics.Disabled {
		a.Metrics = metrics.New()
		a.Logger.Info().Msg("prometheus metrics enabled")
	}

	// Stores
	accounts := sqlite.NewAccountStore(db)
	usageStore := sqlite.NewUsageStore(db)
	a.rateLimit = memory.NewRateLimitStore(memory.RateLimitConfig{
		NumShards:       32,
		CleanupInterval: 5 * time.Minute,
	})

	recorder := NewLocalUsageRecorder(usageStore, cfg.Usage.BatchSize, cfg.Usage.FlushInterval, a.Logger)
	recorder.SetMetrics(a.Metrics)
	a.usageRecorder = recorder

	// Extractor
	fetcher := extractor.NewFetcher(extractor.FetcherConfig{
		UserAgent:    cfg.Extractor.UserAgent,
		MaxBodyBytes: int64(cfg.Extractor.MaxBodyKB) * 1024,
	})
	readability := extractor.New(fetcher, nil)

	// Services
	dyn, err := dynamicConfigFrom(cfg)
	if err != nil {
		a.rateLimit.Close()
		db.Close()
		return fmt.Errorf("build tier catalog: %w", err)
	}

	a.Service = app.NewExtractService(app.ExtractDeps{
		Accounts:  accounts,
		RateLimit: a.rateLimit,
		Extractor: readability,
		Recorder:  recorder,
		Clock:     clock.Real{},
		IDGen:     idgen.UUID{},
		Logger:    a.Logger,
	}, dyn)

	a.Reporter = app.NewAccountService(usageStore, a.rateLimit, clock.Real{}, a.Service, usage.Thresholds{
		Warning:  cfg.Alerts.WarningPercent,
		Critical: cfg.Alerts.CriticalPercent,
	})

	// HTTP server
	handler := apihttp.NewExtractHandler(a.Service, a.Reporter, idgen.UUID{}, a.Logger, a.Metrics)
	health := apihttp.NewHealthHandler(db)
	router := apihttp.NewRouterWithConfig(handler, health, a.Logger, apihttp.RouterConfig{
		Metrics: a.Metrics,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
	return nil
}

// dynamicConfigFrom builds the hot-reloadable service config. An empty
// tiers list selects the built-in catalog; a non-empty list must define
// every tier.
func dynamicConfigFrom(cfg *config.Config) (app.DynamicConfig, error) {
	dyn := app.DynamicConfig{
		Pricing: billing.Pricing{
			BasePrice:      cfg.Pricing.BasePrice,
			LargePagePrice: cfg.Pricing.LargePagePrice,
			ImagePrice:     cfg.Pricing.ImagePrice,
			PDFPrice:       cfg.Pricing.PDFPrice,
			LargePageKB:    cfg.Pricing.LargePageKB,
		},
	}

	catalog, err := CatalogFrom(cfg)
	if err != nil {
		return app.DynamicConfig{}, err
	}
	dyn.Catalog = catalog
	return dyn, nil
}

// CatalogFrom builds the tier catalog a deployment runs with: the
// configured tier table, or the built-in one when none is configured.
// Shared with the CLI so provisioning and admission agree on defaults.
func CatalogFrom(cfg *config.Config) (*tier.Catalog, error) {
	if len(cfg.Tiers) == 0 {
		return tier.DefaultCatalog(), nil
	}

	defs := make([]tier.Definition, 0, len(cfg.Tiers))
	for _, t := range cfg.Tiers {
		defs = append(defs, tier.Definition{
			Name:          tier.Tier(t.Name),
			MonthlyLimit:  t.MonthlyLimit,
			RatePerMinute: t.RatePerMinute,
			RatePerDay:    t.RatePerDay,
			Discount:      t.Discount,
			PriceMonthly:  t.PriceMonthly,
			Features:      t.Features,
		})
	}
	return tier.NewCatalog(defs)
}

// applyReload pushes a reloaded config into the running services.
func (a *App) applyReload(cfg *config.Config) {
	dyn, err := dynamicConfigFrom(cfg)
	if err != nil {
		a.Logger.Error().Err(err).Msg("reloaded config rejected, keeping current tiers")
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
		return
	}

	a.Service.UpdateConfig(dyn)

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
		a.Metrics.ConfigLastReload.SetToCurrentTime()
	}
	a.Logger.Info().Msg("runtime config applied")
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.usageRecorder != nil {
		if err := a.usageRecorder.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("usage recorder close error")
		}
	}

	if a.rateLimit != nil {
		a.rateLimit.Close()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// setupLogger builds the process logger and sets the global level.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
