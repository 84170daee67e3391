package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	bhttp "github.com/vivapicks/picks-platform/internal/betting/http"
	"github.com/vivapicks/picks-platform/internal/betting/odds"
	"github.com/vivapicks/picks-platform/internal/betting/producer"
	"github.com/vivapicks/picks-platform/internal/betting/repo"
	"github.com/vivapicks/picks-platform/internal/betting/ws"
	"github.com/vivapicks/picks-platform/internal/shared/cache"
	"github.com/vivapicks/picks-platform/internal/shared/config"
	"github.com/vivapicks/picks-platform/internal/shared/db"
	skafka "github.com/vivapicks/picks-platform/internal/shared/kafka"
	"github.com/vivapicks/picks-platform/internal/shared/logger"
	"github.com/vivapicks/picks-platform/internal/shared/metrics"
)

func main() {
	_ = os.Setenv("SERVICE_NAME", "betting-service")
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis: cache de odds + Pub/Sub de linhas
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Store: Postgres por padrão; STORE=memory roda o modo demo sem banco
	var store bhttp.Store
	var oddsCache odds.Cache
	var healthFn metrics.HealthFunc

	if cfg.Store == "memory" {
		log.Info("store em memória (modo demo)")
		store = repo.NewMemory()
		oddsCache = odds.NewMemoryCache(cfg.OddsCacheTTL)
		healthFn = func(context.Context) error { return nil }
	} else {
		pg, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("pg", zap.Error(err))
		}
		defer pg.Close()

		if err := repo.EnsureSchema(ctx, pg); err != nil {
			log.Fatal("schema", zap.Error(err))
		}
		store = repo.NewPostgres(pg)
		oddsCache = odds.NewRedisCache(rdb, cfg.OddsCacheTTL)
		healthFn = func(ctx context.Context) error {
			if err := pg.PingContext(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		}
	}

	// Kafka writer (topic bet_settled)
	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer writer.Close()
	publ := producer.NewKafkaPublisher(writer)

	// WebSocket de linhas: hub local + fan-out entre réplicas via Redis
	hub := ws.NewHub(func(*http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, rdb, hub, cfg.RedisPubSubChannel)
	lines := producer.NewRedisLinePublisher(rdb, cfg.RedisPubSubChannel)

	provider := odds.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey)

	api := bhttp.NewServer(log, store, provider, oddsCache, hub, publ, lines)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, healthFn)
	defer metricsSrv.Close()

	go func() {
		<-ctx.Done()
		_ = apiSrv.Shutdown(context.Background())
	}()

	log.Info("betting-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
