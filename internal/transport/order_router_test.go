package transport

import (
	"testing"

	"fenrir/internal/common"
	"fenrir/internal/wire"

	"github.com/go-zeromq/zmq4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarket struct {
	submitted []*common.Order
	submitErr error
	cancelled []string
	cancelErr error
}

func (m *fakeMarket) Submit(order *common.Order) error {
	m.submitted = append(m.submitted, order)
	return m.submitErr
}

func (m *fakeMarket) CancelOrder(id string) error {
	m.cancelled = append(m.cancelled, id)
	return m.cancelErr
}

type fakeCommandHandler struct {
	received []wire.OrchestratorCommandName
	err      error
}

func (h *fakeCommandHandler) HandleCommand(name wire.OrchestratorCommandName) error {
	h.received = append(h.received, name)
	return h.err
}

func TestOrderRouter_HandleRoutesOrder(t *testing.T) {
	market := &fakeMarket{}
	r := NewOrderRouter("tcp://127.0.0.1:0", market, nil)

	price := decimal.NewFromFloat(100.0)
	order := common.Order{AccountID: "acct-1", Side: common.Buy, OrderType: common.LimitOrder, Price: &price, Quantity: 10}
	payload, err := wire.Encode(common.OrderMessage, order)
	require.NoError(t, err)

	require.NoError(t, r.handle(zmq4.NewMsg(payload)))
	require.Len(t, market.submitted, 1)
	assert.Equal(t, "acct-1", market.submitted[0].AccountID)
}

func TestOrderRouter_HandleRoutesCancel(t *testing.T) {
	market := &fakeMarket{}
	r := NewOrderRouter("tcp://127.0.0.1:0", market, nil)

	payload, err := wire.Encode(common.CancelMessage, wire.CancelPayload{OrderID: "order-1"})
	require.NoError(t, err)

	require.NoError(t, r.handle(zmq4.NewMsg(payload)))
	require.Len(t, market.cancelled, 1)
	assert.Equal(t, "order-1", market.cancelled[0])
}

func TestOrderRouter_HandleRoutesOrchestratorCommand(t *testing.T) {
	market := &fakeMarket{}
	handler := &fakeCommandHandler{}
	r := NewOrderRouter("tcp://127.0.0.1:0", market, handler)

	payload, err := wire.Encode(common.OrchestratorCommand, wire.OrchestratorCommandPayload{Command: wire.CommandFlush})
	require.NoError(t, err)

	require.NoError(t, r.handle(zmq4.NewMsg(payload)))
	require.Len(t, handler.received, 1)
	assert.Equal(t, wire.CommandFlush, handler.received[0])
}

func TestOrderRouter_OrchestratorCommandWithoutHandlerIsRejected(t *testing.T) {
	market := &fakeMarket{}
	r := NewOrderRouter("tcp://127.0.0.1:0", market, nil)

	payload, err := wire.Encode(common.OrchestratorCommand, wire.OrchestratorCommandPayload{Command: wire.CommandLogBook})
	require.NoError(t, err)

	err = r.handle(zmq4.NewMsg(payload))
	assert.ErrorIs(t, err, common.ErrInvalidOrder)
}

func TestOrderRouter_HandleRejectsUnknownMessageType(t *testing.T) {
	market := &fakeMarket{}
	r := NewOrderRouter("tcp://127.0.0.1:0", market, nil)

	err := r.handle(zmq4.NewMsg([]byte(`{"message_type": "DATA_SNAPSHOT", "data": {}}`)))
	assert.ErrorIs(t, err, common.ErrInvalidOrder)
}
