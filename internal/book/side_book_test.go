package book

import (
	"testing"

	"fenrir/internal/common"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimit(side common.Side, price float64, qty uint64) *common.Order {
	p := decimal.NewFromFloat(price)
	return &common.Order{
		Side:      side,
		OrderType: common.LimitOrder,
		Price:     &p,
		Quantity:  qty,
	}
}

func TestSideBook_BestPriceBuyDescending(t *testing.T) {
	bids := NewSideBook(common.Buy)
	bids.Insert(newLimit(common.Buy, 99.0, 100))
	bids.Insert(newLimit(common.Buy, 99.5, 50))
	bids.Insert(newLimit(common.Buy, 98.0, 80))

	best := bids.BestPrice()
	require.NotNil(t, best)
	assert.True(t, best.Equal(decimal.NewFromFloat(99.5)))
}

func TestSideBook_BestPriceSellAscending(t *testing.T) {
	asks := NewSideBook(common.Sell)
	asks.Insert(newLimit(common.Sell, 101.0, 100))
	asks.Insert(newLimit(common.Sell, 100.1, 50))
	asks.Insert(newLimit(common.Sell, 100.9, 80))

	best := asks.BestPrice()
	require.NotNil(t, best)
	assert.True(t, best.Equal(decimal.NewFromFloat(100.1)))
}

func TestSideBook_FIFOWithinPriceLevel(t *testing.T) {
	bids := NewSideBook(common.Buy)
	first := newLimit(common.Buy, 99.0, 100)
	second := newLimit(common.Buy, 99.0, 50)
	bids.Insert(first)
	bids.Insert(second)

	popped := bids.PopBestOrder()
	assert.Same(t, first, popped, "arrival order within a price level must be preserved")

	popped = bids.PopBestOrder()
	assert.Same(t, second, popped)
}

func TestSideBook_PopBestOrderEvictsEmptyLevel(t *testing.T) {
	bids := NewSideBook(common.Buy)
	bids.Insert(newLimit(common.Buy, 99.0, 100))
	assert.Equal(t, 1, bids.Len())

	bids.PopBestOrder()
	assert.Equal(t, 0, bids.Len())
	assert.True(t, bids.IsEmpty())
	assert.Nil(t, bids.BestPrice())
}

func TestSideBook_ReduceBestQuantity(t *testing.T) {
	bids := NewSideBook(common.Buy)
	order := newLimit(common.Buy, 99.0, 100)
	bids.Insert(order)

	bids.ReduceBestQuantity(40)
	assert.Equal(t, uint64(60), order.Quantity)

	vol := bids.VolumeAt(decimal.NewFromFloat(99.0))
	require.NotNil(t, vol)
	assert.Equal(t, uint64(60), *vol)
}

func TestSideBook_PricesDescOrdering(t *testing.T) {
	asks := NewSideBook(common.Sell)
	asks.Insert(newLimit(common.Sell, 100.10, 100))
	asks.Insert(newLimit(common.Sell, 100.30, 100))
	asks.Insert(newLimit(common.Sell, 100.20, 100))

	levels := asks.PricesDesc()
	require.Len(t, levels, 3)
	assert.True(t, levels[0].Price.Equal(decimal.NewFromFloat(100.30)))
	assert.True(t, levels[1].Price.Equal(decimal.NewFromFloat(100.20)))
	assert.True(t, levels[2].Price.Equal(decimal.NewFromFloat(100.10)))
}

func TestSideBook_RemoveOrder(t *testing.T) {
	bids := NewSideBook(common.Buy)
	order := newLimit(common.Buy, 99.0, 100)
	order.ID = "order-1"
	bids.Insert(order)

	assert.True(t, bids.RemoveOrder(decimal.NewFromFloat(99.0), "order-1"))
	assert.True(t, bids.IsEmpty())
	assert.False(t, bids.RemoveOrder(decimal.NewFromFloat(99.0), "order-1"), "removing twice must report not-found")
}

func TestPriceLevelQueue_HeadAndPopHeadOnEmpty(t *testing.T) {
	q := NewPriceLevelQueue(decimal.NewFromFloat(100.0))

	_, err := q.Head()
	assert.ErrorIs(t, err, common.ErrEmptyQueue)

	_, err = q.PopHead()
	assert.ErrorIs(t, err, common.ErrEmptyQueue)
}

func TestPriceLevelQueue_Volume(t *testing.T) {
	q := NewPriceLevelQueue(decimal.NewFromFloat(100.0))
	q.Append(newLimit(common.Buy, 100.0, 30))
	q.Append(newLimit(common.Buy, 100.0, 70))

	assert.Equal(t, uint64(100), q.Volume())
	assert.Equal(t, 2, q.Len())
}
