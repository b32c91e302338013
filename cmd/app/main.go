// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"partner-subscription-platform/internal/config"
	"partner-subscription-platform/internal/domain/ports/repository"
	pg "partner-subscription-platform/internal/infra/db/postgres"
	"partner-subscription-platform/internal/infra/logging"
	"partner-subscription-platform/internal/infra/metrics"
	pay "partner-subscription-platform/internal/infra/payment"
	red "partner-subscription-platform/internal/infra/redis"
	"partner-subscription-platform/internal/infra/web"
	"partner-subscription-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (plan cache) ----
	planRepo := pg.NewPlanRepo(pool)
	var planPort repository.PlanRepository = planRepo
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		planPort = pg.NewPlanRepoCacheDecorator(planRepo, redisClient, cfg.Redis.TTL)
	} else {
		logger.Warn().Msg("redis.url not set; plan cache disabled")
	}

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, planPort, tm, logger)
	paymentUC := usecase.NewPaymentUseCase(payRepo, subUC, tm, logger)
	checkoutUC := usecase.NewCheckoutUseCase(planPort, payRepo, subRepo, pay.NewReferenceGenerator(), tm, cfg.Payment, logger)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.HMACSecret)
	srv := web.NewServer(checkoutUC, paymentUC, subUC, auth, cfg.Payment, cfg.Admin.APIKey, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Subscription gauge refresh ----
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				counts, err := subRepo.CountByStatus(ctx, nil)
				if err != nil {
					logger.Warn().Err(err).Msg("subscription gauge refresh failed")
					continue
				}
				metrics.SetSubscriptionsTotal(counts)
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
