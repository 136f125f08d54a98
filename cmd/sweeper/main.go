package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rockstar/internal/adapter/repo"
	"rockstar/internal/comfy"
	"rockstar/internal/infra"
	"rockstar/internal/mailer"
	"rockstar/internal/notify"
	"rockstar/internal/sweep"
)

// The sweeper binary replaces an external cron trigger: it runs one
// reconciliation sweep per interval until stopped, advancing runs whose
// owning session is no longer polling.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := repo.NewRunStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: store connection failed")
	}
	defer closeStore()

	comfyClient := comfy.NewClient(comfy.Options{
		BaseURL:      cfg.ComfyBaseURL,
		APIKey:       cfg.ComfyAPIKey,
		DeploymentID: cfg.ComfyDeploymentID,
	})
	mail := mailer.New(
		mailer.NewClient(mailer.Options{BaseURL: cfg.ResendBaseURL, APIKey: cfg.ResendAPIKey}),
		cfg.FromEmail,
		cfg.AdminEmail,
		logger,
	)
	guard := notify.NewGuard(store, mail, logger)
	sweeper := sweep.New(store, comfyClient, guard, logger)

	logger.Info().Dur("interval", cfg.SweepInterval).Msg("sweeper: started")
	if err := run(ctx, sweeper, cfg.SweepInterval, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("sweeper: stopped with error")
	}
	logger.Info().Msg("sweeper: stopped")
}

// run executes one sweep per interval. The next sweep is scheduled only
// after the previous one finishes so invocations never overlap.
func run(ctx context.Context, sweeper *sweep.Sweeper, interval time.Duration, logger infra.Logger) error {
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		summary, err := sweeper.Run(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error().Err(err).Msg("sweeper: sweep failed")
		} else if summary.TotalChecked > 0 {
			logger.Info().
				Int("total_checked", summary.TotalChecked).
				Strs("completed", summary.Completed).
				Strs("failed", summary.Failed).
				Int("errors", len(summary.Errors)).
				Msg("sweeper: sweep finished")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
