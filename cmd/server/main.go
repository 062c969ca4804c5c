// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	dashboardapi "github.com/codr1/hoteldash/internal/api/dashboard"
	occupancyapi "github.com/codr1/hoteldash/internal/api/occupancy"
	pricesapi "github.com/codr1/hoteldash/internal/api/prices"
	"github.com/codr1/hoteldash/internal/apiclient"
	"github.com/codr1/hoteldash/internal/config"
	"github.com/codr1/hoteldash/internal/db"
	"github.com/codr1/hoteldash/internal/models"
	"github.com/codr1/hoteldash/internal/occupancy"
	"github.com/codr1/hoteldash/internal/pricing"
	"github.com/codr1/hoteldash/internal/ratelimit"
	"github.com/codr1/hoteldash/internal/scheduler"
	dashboardtempl "github.com/codr1/hoteldash/internal/templates/components/dashboard"
)

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Features.EnableDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.DefaultContextLogger = &log.Logger
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	if cfg.Occupancy.SeedFile != "" {
		seeded, err := occupancy.SeedFromFile(context.Background(), database, cfg.Occupancy.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("seed_file", cfg.Occupancy.SeedFile).Msg("Failed to seed occupancy")
		}
		log.Info().Int("records", seeded).Str("seed_file", cfg.Occupancy.SeedFile).Msg("Occupancy seed applied")
	}

	theme := models.NewTheme(cfg.Theme.PrimaryColor, cfg.Theme.AccentColor, cfg.Theme.ChartColor)
	if err := theme.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid theme configuration")
	}

	occupancyapi.InitHandlers(database, cfg.App.MaxUploadBytes)
	pricesapi.InitHandlers(database.Queries)
	dashboardapi.InitHandlers(dashboardapi.Settings{
		API: apiclient.New(apiclient.Settings{
			BaseURL:         cfg.APIBaseURL(),
			Timeout:         cfg.APITimeout(),
			BreakerFailures: cfg.API.BreakerFailures,
			BreakerOpenFor:  cfg.BreakerOpenFor(),
			HalfOpenProbes:  cfg.API.BreakerHalfOpenProbes,
		}, nil),
		Branding: dashboardtempl.Branding{
			HotelName:          cfg.App.HotelName,
			Initials:           cfg.App.HotelInitials,
			PricingDescription: cfg.Pricing.Description,
		},
		Theme:          theme,
		MaxUploadBytes: cfg.App.MaxUploadBytes,
	})

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}

	var refresher *pricing.Refresher
	if !cfg.Pricing.Disabled {
		settings := pricing.ScraperSettings{
			SearchURL:       cfg.Pricing.SearchURL,
			PriceSelector:   cfg.Pricing.PriceSelector,
			DefaultCurrency: cfg.Pricing.DefaultCurrency,
			UserAgent:       cfg.Pricing.UserAgent,
		}
		var scraper pricing.PriceFetcher
		if cfg.Pricing.Renderer == config.RendererBrowser {
			browser := pricing.NewBrowserScraper(settings, cfg.PricingRenderWait(), cfg.PricingFetchTimeout()+cfg.PricingRenderWait())
			defer browser.Close()
			scraper = browser
		} else {
			scraper = pricing.NewScraper(settings, &http.Client{Timeout: cfg.PricingFetchTimeout()})
		}
		log.Info().Str("renderer", cfg.Pricing.Renderer).Int("competitors", len(cfg.Pricing.Competitors)).Msg("Competitor price scraping enabled")
		refresher = pricing.NewRefresher(scraper, database, cfg.Pricing.Competitors, cfg.PricingRequestDelay())

		if err := scheduler.RegisterPriceRefreshJob(refresher, cfg.Pricing.RefreshCron, cfg.PricingRefreshTimeout()); err != nil {
			log.Fatal().Err(err).Msg("Failed to register price refresh job")
		}
	} else {
		log.Info().Msg("Competitor price scraping disabled")
	}

	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.UploadsPerHour > 0 {
		limiter = ratelimit.New(&ratelimit.Config{
			MaxPerWindow: cfg.RateLimit.UploadsPerHour,
			Window:       time.Hour,
			TrustProxy:   cfg.RateLimit.TrustProxy,
		})
	}

	// Create server instance
	server := newServer(cfg, limiter)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Initial price refresh so the competitor list is populated before the first cron run
	if refresher != nil {
		g.Go(func() error {
			scheduler.RunPriceRefresh(ctx, refresher, cfg.PricingRefreshTimeout())
			return nil
		})
	}

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
