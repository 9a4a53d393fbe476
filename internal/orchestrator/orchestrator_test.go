package orchestrator

import (
	"testing"

	"fenrir/internal/common"
	"fenrir/internal/wire"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestrator_HandleCommandFlushDrainsSettlement(t *testing.T) {
	o := New(DefaultConfig())

	price := decimal.NewFromFloat(100.0)
	buy := common.Order{AccountID: "acct-1", Side: common.Buy, OrderType: common.LimitOrder, Price: &price, Quantity: 10}
	sell := common.Order{AccountID: "acct-2", Side: common.Sell, OrderType: common.LimitOrder, Price: &price, Quantity: 10}
	require.NoError(t, o.Market().Submit(&buy))
	require.NoError(t, o.Market().Submit(&sell))

	require.NoError(t, o.HandleCommand(wire.CommandFlush))
	assert.Empty(t, o.Market().Flush(), "a second flush should find nothing left to settle")
}

func TestOrchestrator_HandleCommandLogBookSurfacesMetrics(t *testing.T) {
	o := New(DefaultConfig())

	price := decimal.NewFromFloat(100.0)
	order := common.Order{AccountID: "acct-1", Side: common.Buy, OrderType: common.LimitOrder, Price: &price, Quantity: 10}
	require.NoError(t, o.Market().Submit(&order))

	snap := o.Market().Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.OrdersReceived)

	require.NoError(t, o.HandleCommand(wire.CommandLogBook))
}

func TestOrchestrator_HandleCommandUnknownIsRejected(t *testing.T) {
	o := New(DefaultConfig())
	err := o.HandleCommand(wire.OrchestratorCommandName("BOGUS"))
	assert.Error(t, err)
}
