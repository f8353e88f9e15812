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

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/api"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/config"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/correlate"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/dedup"
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
	if err := logger.Init("query-api", cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("query-api database error", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.RunMigrations(ctx, dbPool, logger.Named("migrations")); err != nil {
		logger.Fatal("query-api migration error", zap.Error(err))
	}
	repo := storage.NewRepository(dbPool)

	writer := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicReports)
	defer writer.Close()

	opts := correlate.Options{
		Inventory:       repo,
		Vendors:         repo,
		Persister:       repo,
		Publisher:       mq.NewReportPublisher(writer),
		Metrics:         metrics.New(prometheus.DefaultRegisterer),
		SnapshotTimeout: cfg.SnapshotTimeout,
	}
	// Synchronous correlation still works without Redis, only without
	// cross-run dedup.
	if rdb, err := dedup.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		logger.Warn("redis unavailable, correlate runs without dedup history", zap.Error(err))
	} else {
		defer rdb.Close()
		opts.History = dedup.NewStore(rdb, cfg.DedupTTL)
	}

	handler := api.NewHandler(repo, correlate.NewService(opts, logger.Named("correlate")), metrics.Handler(), logger.Named("http"))

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("query-api listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("query-api server error", zap.Error(err))
	}
}
