package agent

import (
	"math/rand"
	"testing"

	"fenrir/internal/common"
	"fenrir/internal/engine"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomWalkStrategy_NextOrderIsValidAndBounded(t *testing.T) {
	s := NewRandomWalkStrategy()
	rng := rand.New(rand.NewSource(42))

	low := s.Center.Mul(decimal.NewFromInt(1).Sub(s.Delta))
	high := s.Center.Mul(decimal.NewFromInt(1).Add(s.Delta))

	for i := 0; i < 50; i++ {
		order := s.NextOrder(rng, nil)
		require.NoError(t, order.Validate())
		assert.Equal(t, common.LimitOrder, order.OrderType)
		require.NotNil(t, order.Price)
		assert.True(t, order.Price.GreaterThanOrEqual(low), "price must not fall below center*(1-delta)")
		assert.True(t, order.Price.LessThanOrEqual(high), "price must not exceed center*(1+delta)")
		assert.GreaterOrEqual(t, order.Quantity, uint64(minQuantity))
		assert.LessOrEqual(t, order.Quantity, uint64(maxQuantity))
		assert.Equal(t, uint64(0), order.Quantity%quantityStep, "quantity must be a multiple of the step")
	}
}

func TestRandomWalkStrategy_DeterministicForAGivenSeed(t *testing.T) {
	s := NewRandomWalkStrategy()
	a := s.NextOrder(rand.New(rand.NewSource(7)), nil)
	b := s.NextOrder(rand.New(rand.NewSource(7)), nil)

	assert.Equal(t, a.Side, b.Side)
	assert.Equal(t, a.Quantity, b.Quantity)
	assert.True(t, a.Price.Equal(*b.Price))
}

func TestMomentumStrategy_LeansSideTowardLastMove(t *testing.T) {
	s := NewMomentumStrategy()
	rng := rand.New(rand.NewSource(1))

	first := decimal.NewFromFloat(100.0)
	snap := &engine.Snapshot{LastTradePrice: &first}
	s.NextOrder(rng, snap) // primes s.lastTrade

	risen := decimal.NewFromFloat(100.50)
	snap2 := &engine.Snapshot{LastTradePrice: &risen}
	order := s.NextOrder(rng, snap2)
	assert.Equal(t, common.Buy, order.Side, "a price rise should lean the next order toward buy")
}

func TestJitteredInterval_StaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		d := jitteredInterval(rng, minWakeInterval, maxWakeInterval)
		assert.GreaterOrEqual(t, d, minWakeInterval)
		assert.Less(t, d, maxWakeInterval)
	}
}
