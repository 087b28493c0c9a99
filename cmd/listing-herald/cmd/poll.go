package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/gardenmarket/listing-herald/internal/config"
	"github.com/gardenmarket/listing-herald/internal/discord"
	"github.com/gardenmarket/listing-herald/internal/market"
	"github.com/gardenmarket/listing-herald/internal/pipeline"
	"github.com/gardenmarket/listing-herald/pkg/logger"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run a single poll cycle and exit",
	Long: "Fetches current listings, scans delivered messages for status " +
		"changes, persists new listings, and delivers pending batches once.",
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
}

func runPoll(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
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

	if err := poller.RunCycle(ctx); err != nil {
		return fmt.Errorf("running poll cycle: %w", err)
	}

	log.Info("poll cycle completed")
	return nil
}
