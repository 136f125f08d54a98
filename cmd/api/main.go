package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rockstar/internal/adapter/repo"
	"rockstar/internal/comfy"
	"rockstar/internal/http/handlers"
	"rockstar/internal/http/httpapi"
	"rockstar/internal/infra"
	"rockstar/internal/infra/geoip"
	"rockstar/internal/mailer"
	"rockstar/internal/middleware"
	"rockstar/internal/notify"
	"rockstar/internal/poll"
	"rockstar/internal/sweep"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	store, closeStore, err := repo.NewRunStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: store connection failed")
	}
	defer closeStore()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	}
	defer resolver.Close()

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
	watcher := poll.NewWatcher(comfyClient, guard, cfg.PollInterval, cfg.PollMaxDuration, logger)

	app := handlers.NewApp(cfg, store, comfyClient, mail, guard, sweeper, watcher, logger)

	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		CronSecret:      cfg.CronSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.AllowedOrigins,
		CountryLookup:   lookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
