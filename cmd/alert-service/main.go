package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/alerting"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/config"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/logger"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/metrics"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/mq"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init("alert-service", cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("alert-service database error", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.RunMigrations(ctx, dbPool, logger.Named("migrations")); err != nil {
		logger.Fatal("alert-service migration error", zap.Error(err))
	}
	repo := storage.NewRepository(dbPool)

	notifier := mq.NewNotifier(cfg.RabbitMQURL, cfg.EscalationQueue, logger.Named("rabbitmq"))
	if err := notifier.Connect(ctx); err != nil {
		logger.Fatal("alert-service rabbitmq error", zap.Error(err))
	}
	defer notifier.Close()

	reader := mq.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicReports, cfg.ConsumerGroupPrefix+"-alert-service")
	defer reader.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	service := alerting.NewService(repo, notifier, cfg.AlertThreshold, cfg.AlertCooldown, m, logger.Named("alerting"))

	logger.Info("alert-service consuming",
		zap.String("topic", cfg.KafkaTopicReports),
		zap.Int("threshold", cfg.AlertThreshold),
		zap.Duration("cooldown", cfg.AlertCooldown),
	)
	mq.Consume(ctx, reader, logger.Named("consumer"), func(ctx context.Context, report contracts.RiskReport) error {
		_, _, err := service.Handle(ctx, report)
		return err
	})
}
