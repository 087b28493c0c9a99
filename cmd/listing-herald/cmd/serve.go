package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/gardenmarket/listing-herald/internal/api/handlers"
	"github.com/gardenmarket/listing-herald/internal/api/middleware"
	"github.com/gardenmarket/listing-herald/internal/config"
	"github.com/gardenmarket/listing-herald/internal/discord"
	"github.com/gardenmarket/listing-herald/internal/market"
	"github.com/gardenmarket/listing-herald/internal/notify"
	"github.com/gardenmarket/listing-herald/internal/pipeline"
	"github.com/gardenmarket/listing-herald/internal/telemetry"
	"github.com/gardenmarket/listing-herald/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the poller, publisher, and admin API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	var tel *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tel, err = telemetry.Setup(ctx, cfg.Telemetry.Endpoint, Version)
		if err != nil {
			return fmt.Errorf("setting up telemetry: %w", err)
		}
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	source := market.NewClient(cfg.Market.BaseURL,
		market.WithHTTPClient(&http.Client{Timeout: cfg.Market.Timeout}),
		market.WithRateLimit(cfg.Market.RatePerSec, cfg.Market.RateBurst),
		market.WithLogger(log),
	)

	transport := discord.NewClient(cfg.Discord.Token,
		discord.WithAPIBase(cfg.Discord.APIBase),
		discord.WithLogger(log),
	)

	poller := pipeline.NewPoller(st, source, transport, cfg.Discord.ChannelID,
		pipeline.WithBatchSize(cfg.Poll.BatchSize),
		pipeline.WithInterBatchDelay(cfg.Poll.InterBatchDelay),
		pipeline.WithLogger(log),
	)

	if cfg.Notify.RulesPath != "" {
		rules, err := notify.LoadRules(cfg.Notify.RulesPath)
		if err != nil {
			return fmt.Errorf("loading notification rules: %w", err)
		}

		var notifier notify.Notifier
		if cfg.Notify.WebhookURL != "" {
			notifier = notify.NewDiscordNotifier(cfg.Notify.WebhookURL)
		} else {
			notifier = notify.NewNoOpNotifier(log)
		}

		engine := notify.NewEngine(rules, notifier, log)
		poller.OnNewListing(engine.HandleNewListing)
		log.Info("notification rules loaded", "rules", len(rules.Rules))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Recovery(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if cfg.Discord.PublicKey != "" {
		verifier, err := discord.NewVerifier(cfg.Discord.PublicKey)
		if err != nil {
			return fmt.Errorf("parsing Discord public key: %w", err)
		}
		interactions := handlers.NewInteractionsHandler(verifier, poller, log)
		e.POST("/interactions", interactions.Handle)
	} else {
		log.Warn("interactions endpoint disabled: no Discord public key configured")
	}

	api := humaecho.New(e, huma.DefaultConfig("listing-herald", Version))
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(st))
	handlers.RegisterSystemStateRoutes(api, handlers.NewSystemStateHandler(st))
	handlers.RegisterTriggerRoutes(api, handlers.NewPollHandler(poller))

	var sched *pipeline.Scheduler
	if cfg.Poll.AutoStart {
		sched, err = pipeline.NewScheduler(poller, cfg.Poll.Interval, log)
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		sched.Start()
		log.Info("scheduler started", "interval", cfg.Poll.Interval)
	} else {
		log.Info("scheduler disabled, cycles run on demand only")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	// Stop the scheduler first and let any in-flight cycle drain so a
	// half-delivered batch is not cut off mid-send.
	if sched != nil {
		drained := sched.Stop()
		select {
		case <-drained.Done():
		case <-time.After(30 * time.Second):
			log.Warn("poll cycle did not drain before deadline")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	if tel != nil {
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown error", "err", err)
		}
	}

	log.Info("server stopped")
	return nil
}
