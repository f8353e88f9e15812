package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/config"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/correlate"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/dedup"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/ingest"
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
	if err := logger.Init("risk-engine", cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("risk-engine database error", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.RunMigrations(ctx, dbPool, logger.Named("migrations")); err != nil {
		logger.Fatal("risk-engine migration error", zap.Error(err))
	}
	repo := storage.NewRepository(dbPool)

	rdb, err := dedup.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("risk-engine redis error", zap.Error(err))
	}
	defer rdb.Close()

	reader := mq.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicDisruptions, cfg.ConsumerGroupPrefix+"-risk-engine")
	defer reader.Close()

	writer := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicReports)
	defer writer.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	service := correlate.NewService(correlate.Options{
		Inventory:       repo,
		Vendors:         repo,
		History:         dedup.NewStore(rdb, cfg.DedupTTL),
		Persister:       repo,
		Publisher:       mq.NewReportPublisher(writer),
		Metrics:         m,
		SnapshotTimeout: cfg.SnapshotTimeout,
	}, logger.Named("correlate"))

	go serveMetrics(ctx, cfg.HTTPAddr)

	logger.Info("risk-engine consuming",
		zap.String("disruptions", cfg.KafkaTopicDisruptions),
		zap.String("reports", cfg.KafkaTopicReports),
	)
	mq.Consume(ctx, reader, logger.Named("consumer"), func(ctx context.Context, event contracts.DisruptionEvent) error {
		if err := ingest.Prepare(&event, time.Now()); err != nil {
			logger.Warn("dropping invalid disruption", zap.Error(err))
			return nil
		}
		_, err := service.Run(ctx, []contracts.DisruptionEvent{event}, false)
		return err
	})
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server error", zap.Error(err))
	}
}
