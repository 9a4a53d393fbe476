// Command exchange is the venue's single entry point (spec §6): it starts
// the matching engine, the order-ingress/market-data fabric, and the
// synthetic agent population, then runs until signaled.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fenrir/internal/orchestrator"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	agents := flag.Int("agents", 8, "number of synthetic trading agents to run")
	orderEndpoint := flag.String("order-endpoint", "tcp://127.0.0.1:5601", "order ingress PULL bind address")
	snapshotEndpoint := flag.String("snapshot-endpoint", "tcp://127.0.0.1:5602", "snapshot PUB bind address")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := orchestrator.DefaultConfig()
	cfg.NumAgents = *agents
	cfg.OrderIngressEndpoint = *orderEndpoint
	cfg.SnapshotPubEndpoint = *snapshotEndpoint

	orch := orchestrator.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A second interrupt while shutdown is already underway forces exit
	// with a partial-cleanup warning, per spec §5. The second listener is
	// registered only once the first signal has already fired, so it
	// never consumes the signal that triggered the graceful shutdown.
	go func() {
		<-ctx.Done()
		forceSignals := make(chan os.Signal, 1)
		signal.Notify(forceSignals, syscall.SIGINT, syscall.SIGTERM)
		<-forceSignals
		log.Warn().Msg("second shutdown signal received, forcing exit; cleanup may be incomplete")
		os.Exit(1)
	}()

	if err := orch.Run(ctx); err != nil {
		log.Error().Err(err).Msg("exchange: exited with error")
		os.Exit(1)
	}
}
