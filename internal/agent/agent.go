package agent

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"fenrir/internal/common"
	"fenrir/internal/engine"
	"fenrir/internal/wire"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog/log"
)

const (
	minWakeInterval = 1 * time.Second
	maxWakeInterval = 3 * time.Second
)

// recvResult is one outcome of the long-lived snapshot receive pump (msg or
// error).
type recvResult struct {
	msg zmq4.Msg
	err error
}

// Agent is one independent synthetic-order-flow worker (spec §4.H): a
// push endpoint to order ingress, a subscribe endpoint to snapshots (may
// go unused by trivial strategies), and a stable account id used as
// account_id on every order it sends.
type Agent struct {
	AccountID    string
	PushEndpoint string
	SubEndpoint  string
	Strategy     Strategy

	push         zmq4.Socket
	sub          zmq4.Socket
	rng          *rand.Rand
	lastSnapshot atomic.Pointer[engine.Snapshot]
}

// NewAgent builds an agent with a stable account id, dial endpoints and a
// strategy. seed lets tests and the orchestrator vary timing/price draws
// deterministically per agent without agents sharing a PRNG.
func NewAgent(accountID, pushEndpoint, subEndpoint string, strategy Strategy, seed int64) *Agent {
	return &Agent{
		AccountID:    accountID,
		PushEndpoint: pushEndpoint,
		SubEndpoint:  subEndpoint,
		Strategy:     strategy,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Run dials its push and subscribe sockets and loops: sleep a jittered
// interval, build an order, send it; concurrently drain the subscribe
// socket into lastSnapshot. Exits promptly on ctx cancellation (spec §4.H,
// §5).
func (a *Agent) Run(ctx context.Context) error {
	a.push = zmq4.NewPush(ctx)
	if err := a.push.Dial(a.PushEndpoint); err != nil {
		return fmt.Errorf("agent %s: dial push %s: %w", a.AccountID, a.PushEndpoint, err)
	}
	defer func() { _ = a.push.Close() }()

	a.sub = zmq4.NewSub(ctx)
	if err := a.sub.Dial(a.SubEndpoint); err != nil {
		return fmt.Errorf("agent %s: dial sub %s: %w", a.AccountID, a.SubEndpoint, err)
	}
	if err := a.sub.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		return fmt.Errorf("agent %s: subscribe: %w", a.AccountID, err)
	}
	defer func() { _ = a.sub.Close() }()

	recvCh := make(chan recvResult, 1)
	go a.recvPump(recvCh)

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.snapshotLoop(ctx, recvCh)
	}()

	err := a.tradeLoop(ctx)
	<-done
	return err
}

func (a *Agent) tradeLoop(ctx context.Context) error {
	for {
		interval := jitteredInterval(a.rng, minWakeInterval, maxWakeInterval)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Debug().Str("account_id", a.AccountID).Msg("agent exiting on shutdown")
			return nil
		case <-timer.C:
		}

		order := a.Strategy.NextOrder(a.rng, a.lastSnapshot.Load())
		order.AccountID = a.AccountID
		if err := order.Validate(); err != nil {
			log.Error().Err(err).Str("account_id", a.AccountID).Msg("agent: strategy produced an invalid order, skipping")
			continue
		}

		payload, err := wire.Encode(common.OrderMessage, order)
		if err != nil {
			log.Error().Err(err).Str("account_id", a.AccountID).Msg("agent: failed to encode order")
			continue
		}

		if err := a.push.Send(zmq4.NewMsg(payload)); err != nil {
			log.Warn().Err(err).Str("account_id", a.AccountID).Msg("agent: send failed")
		}
	}
}

// recvPump is the single long-lived goroutine blocked in sub.Recv(). It
// feeds every result to recvCh so snapshotLoop never spawns a goroutine per
// poll — a quiet subscription costs exactly one blocked goroutine, not one
// per tick.
func (a *Agent) recvPump(recvCh chan<- recvResult) {
	for {
		msg, err := a.sub.Recv()
		recvCh <- recvResult{msg: msg, err: err}
	}
}

// snapshotLoop drains recvCh so lastSnapshot stays current for strategies
// that use it. It never blocks the trade loop — a trivial strategy simply
// never reads lastSnapshot.
func (a *Agent) snapshotLoop(ctx context.Context, recvCh <-chan recvResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-recvCh:
			if res.err != nil {
				continue
			}
			env, err := wire.DecodeEnvelope(res.msg.Bytes())
			if err != nil {
				continue
			}
			if env.MessageType != common.DataSnapshot {
				continue
			}
			snap, err := wire.DecodeSnapshot(env.Data)
			if err != nil {
				continue
			}
			a.lastSnapshot.Store(&snap)
		}
	}
}
