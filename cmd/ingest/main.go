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
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/ingest"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/logger"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/metrics"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/mq"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/snapshot"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init("ingest", cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicDisruptions)
	defer writer.Close()
	publisher := mq.NewDisruptionPublisher(writer)

	simulator := ingest.NewSimulator(inventoryLocations(ctx, cfg), uint64(time.Now().UnixNano()))
	if cfg.SimulatorTick > 0 {
		go simulator.Run(ctx, publisher, cfg.SimulatorTick, logger.Named("simulator"))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	handler := ingest.NewHandler(publisher, simulator, m, logger.Named("http"))

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

	logger.Info("ingest listening", zap.String("addr", cfg.HTTPAddr), zap.String("topic", cfg.KafkaTopicDisruptions))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("ingest server error", zap.Error(err))
	}
}

// inventoryLocations seeds the simulator with places the inventory passes
// through. Ingest stays up without the database and falls back to a fixed
// list.
func inventoryLocations(ctx context.Context, cfg config.Config) []string {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.SnapshotTimeout)
	defer cancel()

	pool, err := storage.Open(loadCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("inventory unavailable, simulator uses default locations", zap.Error(err))
		return nil
	}
	defer pool.Close()

	repo := storage.NewRepository(pool)
	snap, err := snapshot.Load(loadCtx, repo, repo)
	if err != nil {
		logger.Warn("inventory unavailable, simulator uses default locations", zap.Error(err))
		return nil
	}
	return snap.Locations()
}
