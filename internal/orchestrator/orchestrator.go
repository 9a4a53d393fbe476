// Package orchestrator implements the process lifecycle (spec §4.I):
// creating MarketState, starting OrderRouter/DataRouter, starting the
// agent population, and driving shutdown in the order agents → routers →
// transport teardown.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"fenrir/internal/agent"
	"fenrir/internal/engine"
	"fenrir/internal/transport"
	"fenrir/internal/wire"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Config holds the transport endpoints and agent population size. No
// config-file format is introduced (spec §1 Non-goal); callers build this
// from flags or hardcoded defaults.
type Config struct {
	OrderIngressEndpoint string
	SnapshotPubEndpoint  string
	NumAgents            int
}

// DefaultConfig matches original_source's ZMQConfig defaults, adapted to
// loopback TCP endpoints.
func DefaultConfig() Config {
	return Config{
		OrderIngressEndpoint: "tcp://127.0.0.1:5601",
		SnapshotPubEndpoint:  "tcp://127.0.0.1:5602",
		NumAgents:            8,
	}
}

// Orchestrator owns the MarketState and every worker's lifecycle.
type Orchestrator struct {
	cfg    Config
	market *engine.MarketState

	mu          sync.Mutex
	shutdownRan bool
}

// New creates the MarketState; routers and agents are started by Run.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		market: engine.NewMarketState(),
	}
}

// Market exposes the owned MarketState, for the orchestrator command
// channel and tests.
func (o *Orchestrator) Market() *engine.MarketState {
	return o.market
}

// Run starts OrderRouter, DataRouter and the agent population, and blocks
// until ctx is cancelled. On cancellation it shuts down in the mandated
// order: agents first (waiting for their exit), then routers, then
// transport teardown — by simply letting each tomb unwind, since zmq4
// sockets are closed with each worker's own teardown (zero-linger: no
// thread blocks on in-flight messages).
func (o *Orchestrator) Run(ctx context.Context) error {
	agentsTomb, agentsCtx := tomb.WithContext(ctx)
	// Routers do not inherit ctx's cancellation: they stop only when
	// shutdown kills routersTomb, after the agents have exited.
	routersTomb, routersCtx := tomb.WithContext(context.WithoutCancel(ctx))

	orderRouter := transport.NewOrderRouter(o.cfg.OrderIngressEndpoint, o.market, o)
	dataRouter := transport.NewDataRouter(o.cfg.SnapshotPubEndpoint, o.market)

	routersTomb.Go(func() error { return orderRouter.Run(routersCtx) })
	routersTomb.Go(func() error { return dataRouter.Run(routersCtx) })

	for i := 0; i < o.cfg.NumAgents; i++ {
		accountID := fmt.Sprintf("agent-%d", i)
		seed := int64(i) + 1
		randomWalk := agent.NewRandomWalkStrategy()
		a := agent.NewAgent(accountID, o.cfg.OrderIngressEndpoint, o.cfg.SnapshotPubEndpoint, randomWalk, seed)
		agentsTomb.Go(func() error { return a.Run(agentsCtx) })
	}

	log.Info().
		Int("num_agents", o.cfg.NumAgents).
		Str("order_ingress", o.cfg.OrderIngressEndpoint).
		Str("snapshot_pub", o.cfg.SnapshotPubEndpoint).
		Msg("orchestrator running")

	<-ctx.Done()
	return o.shutdown(agentsTomb, routersTomb)
}

// shutdown drives the mandated teardown order: agents first, wait for
// their exit, then routers. Guarded so a duplicate call (Run only ever
// makes one, but tests may call it directly) is a safe no-op rather than
// double-closing transports; the process-level double-signal "forced
// exit" behavior lives in cmd/exchange, which is where signal handling
// belongs (spec §5).
func (o *Orchestrator) shutdown(agentsTomb, routersTomb *tomb.Tomb) error {
	o.mu.Lock()
	if o.shutdownRan {
		o.mu.Unlock()
		return nil
	}
	o.shutdownRan = true
	o.mu.Unlock()

	log.Info().Msg("orchestrator: stopping agents")
	agentsTomb.Kill(nil)
	if err := agentsTomb.Wait(); err != nil {
		log.Error().Err(err).Msg("orchestrator: agent shutdown reported an error")
	}

	log.Info().Msg("orchestrator: stopping routers")
	routersTomb.Kill(nil)
	if err := routersTomb.Wait(); err != nil {
		log.Error().Err(err).Msg("orchestrator: router shutdown reported an error")
		return err
	}

	log.Info().Msg("orchestrator: shutdown complete")
	return nil
}

// HandleCommand executes a supplemental ORCHESTRATOR_COMMAND (SPEC_FULL §1):
// FLUSH drains the settlement buffer, LOG_BOOK logs both sides of the book
// plus the engine's metrics snapshot. Reachable from a running process via
// OrderRouter, which routes any ORCHESTRATOR_COMMAND envelope it receives
// here (transport.CommandHandler).
func (o *Orchestrator) HandleCommand(name wire.OrchestratorCommandName) error {
	switch name {
	case wire.CommandFlush:
		settled := o.market.Flush()
		log.Info().Int("settled_fills", len(settled)).Msg("orchestrator: flushed settlement buffer")
		return nil
	case wire.CommandLogBook:
		o.logBook()
		return nil
	default:
		return fmt.Errorf("unknown orchestrator command: %s", name)
	}
}

func (o *Orchestrator) logBook() {
	metrics := o.market.Metrics().Snapshot()
	log.Info().
		Int64("orders_received", metrics.OrdersReceived).
		Int64("orders_rejected", metrics.OrdersRejected).
		Int64("orders_cancelled", metrics.OrdersCancelled).
		Int64("fills_emitted", metrics.FillsEmitted).
		Int64("shares_matched", metrics.SharesMatched).
		Msg("engine metrics")

	for _, level := range o.market.Bids().PricesDesc() {
		log.Info().Str("side", "BUY").Str("price", level.Price.String()).Uint64("volume", level.Volume()).Msg("book level")
	}
	for _, level := range o.market.Asks().PricesDesc() {
		log.Info().Str("side", "SELL").Str("price", level.Price.String()).Uint64("volume", level.Volume()).Msg("book level")
	}
}
