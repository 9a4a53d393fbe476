// Package transport implements the order-ingress fan-in (OrderRouter) and
// the market-data fan-out (DataRouter), spec §4.F/§4.G. Both are
// independent tomb-supervised workers bound to a zmq4 socket, the Go port
// of original_source/market_maker's zmq.PULL/zmq.PUB sockets.
package transport

import (
	"context"
	"errors"
	"fmt"

	"fenrir/internal/common"
	"fenrir/internal/wire"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Market is the subset of MarketState OrderRouter depends on.
type Market interface {
	Submit(order *common.Order) error
	CancelOrder(id string) error
}

// CommandHandler executes a received ORCHESTRATOR_COMMAND (supplemental,
// SPEC_FULL §1). Orchestrator implements this.
type CommandHandler interface {
	HandleCommand(name wire.OrchestratorCommandName) error
}

// OrderRouter pulls inbound order envelopes from many agents (fan-in),
// decodes them, and submits them to the single consumer of MarketState. It
// also routes ORCHESTRATOR_COMMAND envelopes to commands, since both share
// the same ingress socket. It is the only goroutine that ever calls
// Market.Submit/CancelOrder.
type OrderRouter struct {
	endpoint string
	market   Market
	commands CommandHandler
	socket   zmq4.Socket
}

// NewOrderRouter binds nothing yet — the PULL socket is bound in Run, so
// construction can happen before the zmq4 context is needed.
func NewOrderRouter(endpoint string, market Market, commands CommandHandler) *OrderRouter {
	return &OrderRouter{endpoint: endpoint, market: market, commands: commands}
}

// recvResult is one outcome of the long-lived receive pump (msg or error).
type recvResult struct {
	msg zmq4.Msg
	err error
}

// Run binds the PULL socket and loops: receive envelope, validate message
// type, decode, submit. Malformed envelopes are logged and dropped; they
// never stall the loop (spec §4.F, §7).
func (r *OrderRouter) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)
	r.socket = zmq4.NewPull(ctx)
	defer func() {
		if err := r.socket.Close(); err != nil {
			log.Error().Err(err).Msg("order router: error closing socket")
		}
	}()

	if err := r.socket.Listen(r.endpoint); err != nil {
		return fmt.Errorf("order router: listen %s: %w", r.endpoint, err)
	}
	log.Info().Str("endpoint", r.endpoint).Msg("order router listening")

	recvCh := make(chan recvResult, 1)
	go r.recvPump(recvCh)

	t.Go(func() error {
		return r.recvLoop(ctx, recvCh)
	})

	return t.Wait()
}

// recvPump is the single long-lived goroutine blocked in socket.Recv(). It
// feeds every result to recvCh so recvLoop never spawns a goroutine per
// poll — a quiet socket costs exactly one blocked goroutine, not one per
// tick.
func (r *OrderRouter) recvPump(recvCh chan<- recvResult) {
	for {
		msg, err := r.socket.Recv()
		recvCh <- recvResult{msg: msg, err: err}
	}
}

func (r *OrderRouter) recvLoop(ctx context.Context, recvCh <-chan recvResult) error {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("order router: shutdown observed")
			return nil
		case res := <-recvCh:
			if res.err != nil {
				log.Error().Err(res.err).Msg("order router: transport error receiving message")
				continue
			}
			if err := r.handle(res.msg); err != nil {
				log.Warn().Err(err).Msg("order router: dropping malformed message")
			}
		}
	}
}

func (r *OrderRouter) handle(msg zmq4.Msg) error {
	env, err := wire.DecodeEnvelope(msg.Bytes())
	if err != nil {
		return err
	}

	switch env.MessageType {
	case common.OrderMessage:
		order, err := wire.DecodeOrder(env.Data)
		if err != nil {
			return err
		}
		if err := r.market.Submit(&order); err != nil {
			if errors.Is(err, common.ErrInvalidOrder) {
				return err
			}
			// NoLiquidity and friends are not malformed-message errors:
			// log them here and treat the message as handled.
			log.Warn().Err(err).Str("account_id", order.AccountID).Msg("order router: order not fully filled")
		}
		return nil
	case common.CancelMessage:
		cancel, err := wire.DecodeCancel(env.Data)
		if err != nil {
			return err
		}
		if err := r.market.CancelOrder(cancel.OrderID); err != nil {
			log.Warn().Err(err).Str("order_id", cancel.OrderID).Msg("order router: cancel failed")
		}
		return nil
	case common.OrchestratorCommand:
		cmd, err := wire.DecodeOrchestratorCommand(env.Data)
		if err != nil {
			return err
		}
		if r.commands == nil {
			return fmt.Errorf("%w: orchestrator command received but no handler configured", common.ErrInvalidOrder)
		}
		if err := r.commands.HandleCommand(cmd.Command); err != nil {
			log.Warn().Err(err).Str("command", string(cmd.Command)).Msg("order router: command failed")
		}
		return nil
	default:
		return fmt.Errorf("%w: unexpected message_type %v on order ingress", common.ErrInvalidOrder, env.MessageType)
	}
}
