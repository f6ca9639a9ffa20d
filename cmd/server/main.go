package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botica/internal/config"
	"botica/internal/infra"
	"botica/internal/realtime"
	"botica/internal/repository"
	"botica/internal/router"
	"botica/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty console in dev, JSON in production
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Events: services publish through the breaker-guarded broadcaster, every
	// instance relays the channel to its own SSE subscribers.
	broadcaster := realtime.NewRedisBroadcaster(rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	hub := realtime.NewHub()
	hub.Run(ctx, rdb)

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	dispatcher := worker.NewDispatcher(rdb)
	mailer := infra.NewMailer(cfg)
	if !mailer.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, emails will be skipped")
	}
	saleRepo := repository.NewSaleRepository(db)

	pool := worker.NewPool(rdb)
	pool.Handle(worker.JobReceipt, worker.NewReceiptWorker(saleRepo, dispatcher, cfg.BusinessName, cfg.ReceiptStoragePath))
	pool.Handle(worker.JobEmail, worker.NewEmailWorker(mailer))
	pool.Start(ctx, cfg.WorkerPoolSize)

	worker.StartReconcileCron(ctx, repository.NewProductRepository(db), cfg.ReconcileInterval)

	r := router.New(cfg, db, rdb, hub, broadcaster, dispatcher)

	// No WriteTimeout: /v1/events keeps its response open.
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Botica backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	// Stop workers, cron and hub first so open SSE streams see their
	// subscription end.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
