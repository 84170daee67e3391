package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/vivapicks/picks-platform/internal/notifier"
	"github.com/vivapicks/picks-platform/internal/notifier/mailer"
	"github.com/vivapicks/picks-platform/internal/picks/repo"
	"github.com/vivapicks/picks-platform/internal/shared/config"
	"github.com/vivapicks/picks-platform/internal/shared/db"
	skafka "github.com/vivapicks/picks-platform/internal/shared/kafka"
	"github.com/vivapicks/picks-platform/internal/shared/logger"
	"github.com/vivapicks/picks-platform/internal/shared/metrics"
)

func main() {
	_ = os.Setenv("SERVICE_NAME", "notifier-worker")
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Assinantes ativos vêm do banco do picks-service
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	dlq := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicNotifierDLQ)
	defer dlq.Close()

	w := &notifier.Worker{
		Log:    log,
		Mailer: mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom),
		Subs:   repo.NewPostgres(pg),
		DLQ:    dlq,
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	defer metricsSrv.Close()

	// Um consumer group por tópico, todos no mesmo processo
	type sub struct {
		topic  string
		handle func(context.Context, []byte) error
	}
	subs := []sub{
		{cfg.TopicPickPublished, w.HandlePickPublished},
		{cfg.TopicPickUpdated, w.HandlePickUpdated},
		{cfg.TopicUserRegistered, w.HandleUserRegistered},
		{cfg.TopicBetSettled, w.HandleBetSettled},
	}

	log.Info("notifier-worker started",
		zap.Strings("topics", []string{cfg.TopicPickPublished, cfg.TopicPickUpdated, cfg.TopicUserRegistered, cfg.TopicBetSettled}),
	)

	var wg sync.WaitGroup
	for _, s := range subs {
		reader := skafka.NewReader(cfg.KafkaBrokers, s.topic, "notifier")
		defer reader.Close()

		wg.Add(1)
		go func(s sub) {
			defer wg.Done()
			w.Run(ctx, reader, s.topic, s.handle)
		}(s)
	}
	wg.Wait()
}
