// Package agent implements the synthetic order-flow population (spec
// §4.H): independent workers that periodically wake, build an order via a
// pluggable Strategy, and push it to ingress.
package agent

import (
	"math/rand"
	"time"

	"fenrir/internal/common"
	"fenrir/internal/engine"

	"github.com/shopspring/decimal"
)

// quantityStep is the multiple every synthetic order's quantity is drawn
// from (spec §4.H: "random quantity, multiple of 10, bounded").
const (
	quantityStep = 10
	minQuantity  = 10
	maxQuantity  = 200
)

// Strategy builds the next order a single agent will send. Implementations
// must be safe for use by exactly one agent goroutine at a time (each
// agent owns its own Strategy instance; there is no sharing).
type Strategy interface {
	// NextOrder returns the order this agent should place on this wake.
	// lastSnapshot is the most recently observed Snapshot, or nil if the
	// agent hasn't received one yet (a valid state — spec §4.H: "may be
	// unused by trivial strategies").
	NextOrder(rng *rand.Rand, lastSnapshot *engine.Snapshot) common.Order
}

// RandomWalkStrategy is the default strategy spec §4.H describes: random
// side, random quantity, price uniform in [center*(1-delta), center*(1+delta)].
type RandomWalkStrategy struct {
	Center decimal.Decimal
	Delta  decimal.Decimal
}

// NewRandomWalkStrategy builds the default strategy with spec's documented
// defaults (center=100, delta=0.005).
func NewRandomWalkStrategy() *RandomWalkStrategy {
	return &RandomWalkStrategy{
		Center: decimal.NewFromInt(100),
		Delta:  decimal.NewFromFloat(0.005),
	}
}

func (s *RandomWalkStrategy) NextOrder(rng *rand.Rand, _ *engine.Snapshot) common.Order {
	side := common.Buy
	if rng.Intn(2) == 1 {
		side = common.Sell
	}

	price := randomPriceAround(rng, s.Center, s.Delta)
	quantity := randomQuantity(rng)

	return common.Order{
		Side:      side,
		OrderType: common.LimitOrder,
		Price:     &price,
		Quantity:  quantity,
	}
}

// MomentumStrategy leans its side toward the direction of the last
// observed trade, generalizing original_source/agents/base_trading_agent.py's
// per-agent strategy variation (SPEC_FULL §1 supplement). Not wired into
// the default agent population (see DESIGN.md); exercised directly by
// tests.
type MomentumStrategy struct {
	Center    decimal.Decimal
	Delta     decimal.Decimal
	lastTrade *decimal.Decimal
}

// NewMomentumStrategy builds a momentum strategy with the same defaults as
// RandomWalkStrategy.
func NewMomentumStrategy() *MomentumStrategy {
	return &MomentumStrategy{
		Center: decimal.NewFromInt(100),
		Delta:  decimal.NewFromFloat(0.005),
	}
}

func (s *MomentumStrategy) NextOrder(rng *rand.Rand, lastSnapshot *engine.Snapshot) common.Order {
	side := common.Buy
	if rng.Intn(2) == 1 {
		side = common.Sell
	}

	if lastSnapshot != nil && lastSnapshot.LastTradePrice != nil {
		if s.lastTrade != nil {
			// Price rose since the last snapshot we saw: lean buy
			// (momentum chases the direction of the move); price fell:
			// lean sell.
			if lastSnapshot.LastTradePrice.GreaterThan(*s.lastTrade) {
				side = common.Buy
			} else if lastSnapshot.LastTradePrice.LessThan(*s.lastTrade) {
				side = common.Sell
			}
		}
		trade := *lastSnapshot.LastTradePrice
		s.lastTrade = &trade
	}

	price := randomPriceAround(rng, s.Center, s.Delta)
	quantity := randomQuantity(rng)

	return common.Order{
		Side:      side,
		OrderType: common.LimitOrder,
		Price:     &price,
		Quantity:  quantity,
	}
}

// randomPriceAround draws a price uniformly from [center*(1-delta),
// center*(1+delta)], quantized to 2 decimals.
func randomPriceAround(rng *rand.Rand, center, delta decimal.Decimal) decimal.Decimal {
	lowFactor := decimal.NewFromInt(1).Sub(delta)
	highFactor := decimal.NewFromInt(1).Add(delta)
	low := center.Mul(lowFactor)
	high := center.Mul(highFactor)
	spread := high.Sub(low)

	r := decimal.NewFromFloat(rng.Float64())
	price := low.Add(spread.Mul(r))
	return common.QuantizePrice(price)
}

// randomQuantity draws a random multiple of 10 in [minQuantity, maxQuantity].
func randomQuantity(rng *rand.Rand) uint64 {
	steps := (maxQuantity - minQuantity) / quantityStep
	return uint64(minQuantity + rng.Intn(steps+1)*quantityStep)
}

// jitteredInterval returns a random duration in [low, high) — the periodic
// wake interval spec §4.H documents as "1-3s".
func jitteredInterval(rng *rand.Rand, low, high time.Duration) time.Duration {
	if high <= low {
		return low
	}
	return low + time.Duration(rng.Int63n(int64(high-low)))
}
