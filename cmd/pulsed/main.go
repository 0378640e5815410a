package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	pulsecfg "github.com/zbreeden/pulse/internal/config/pulse"
	"github.com/zbreeden/pulse/internal/fetch"
	"github.com/zbreeden/pulse/internal/obs"
	kafkaRepo "github.com/zbreeden/pulse/internal/repository/kafka"
	"github.com/zbreeden/pulse/internal/registry"
	"github.com/zbreeden/pulse/internal/services/sweep"
	"github.com/zbreeden/pulse/internal/storage"
)

// pulsed is the long-running flavor: sweeps on a ticker and serves
// prometheus metrics in between.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := pulsecfg.Load(os.Getenv("PULSE_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("pulsed"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting pulsed",
		zap.Duration("tick", cfg.Sweep.Tick),
		zap.String("metrics_addr", cfg.Sweep.MetricsAddr),
	)

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	sources, err := registry.Load(cfg.Signals.Registry)
	if err != nil {
		l.Fatal("load registry", zap.Error(err))
	}

	store := storage.NewFiles(afero.NewOsFs(), cfg.Signals.Dir, l)
	client := fetch.NewClient(cfg.HTTP)

	var announce sweep.Announcer
	if cfg.Kafka.Enable {
		prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
		defer func() { _ = prod.Close() }()
		announce = kafkaRepo.NewBroadcastEventsKafka(prod)
	}

	s := sweep.NewSweeper(l, sources, client, store, announce, nil, cfg.Hub, cfg.HTTP.MaxParallel)
	runner := sweep.NewRunner(l, s, cfg.Sweep.Tick)

	ms := obs.BootstrapMetricsServer(cfg.Sweep.MetricsAddr, store.Health, l)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	l.Info("pulsed started", zap.Int("sources", len(sources)))

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
