package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vivapicks/picks-platform/internal/picks/auth"
	phttp "github.com/vivapicks/picks-platform/internal/picks/http"
	"github.com/vivapicks/picks-platform/internal/picks/producer"
	"github.com/vivapicks/picks-platform/internal/picks/repo"
	"github.com/vivapicks/picks-platform/internal/shared/config"
	"github.com/vivapicks/picks-platform/internal/shared/db"
	skafka "github.com/vivapicks/picks-platform/internal/shared/kafka"
	"github.com/vivapicks/picks-platform/internal/shared/logger"
	"github.com/vivapicks/picks-platform/internal/shared/metrics"
)

func main() {
	_ = os.Setenv("SERVICE_NAME", "picks-service")
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	if err := repo.EnsureSchema(ctx, pg); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	// Conta admin de bootstrap (só com ADMIN_PASSWORD configurada)
	if cfg.AdminPassword != "" {
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatal("admin hash", zap.Error(err))
		}
		if err := repo.SeedAdmin(ctx, pg, cfg.AdminEmail, hash); err != nil {
			log.Fatal("admin seed", zap.Error(err))
		}
		log.Info("admin seeded", zap.String("email", cfg.AdminEmail))
	}

	published := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPickPublished)
	updated := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPickUpdated)
	registered := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicUserRegistered)
	defer published.Close()
	defer updated.Close()
	defer registered.Close()
	publ := producer.NewKafkaPublisher(published, updated, registered)

	tokens := auth.NewManager(cfg.JWTSecret)
	store := repo.NewPostgres(pg)

	api := phttp.NewServer(log, store, tokens, publ, cfg.BillingWebhookSecret)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	defer metricsSrv.Close()

	go func() {
		<-ctx.Done()
		_ = apiSrv.Shutdown(context.Background())
	}()

	log.Info("picks-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
