// Package engine implements the matching engine (spec §4.C), its
// settlement buffer (§4.D) and the market state that owns both sides of
// the book plus the pending snapshot queue (§4.E).
package engine

import (
	"fmt"
	"time"

	"fenrir/internal/book"
	"fenrir/internal/common"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// orderLocation records where a resting order can be found, so the
// supplemental cancel path can remove it in O(1) lookup + O(level) scan
// instead of a full book scan.
type orderLocation struct {
	side  common.Side
	price decimal.Decimal
}

// MatchingEngine implements the dispatch, crossing-detection and fill
// emission described in spec §4.C. It operates on SideBooks and a
// SettlementBuffer it does not own long-term — MarketState does — and
// reports every fill to an observer callback so MarketState can update
// last_trade without the engine knowing about MarketState's shape.
type MatchingEngine struct {
	bids       *book.SideBook
	asks       *book.SideBook
	settlement *SettlementBuffer
	metrics    *Metrics
	onTrade    func(price decimal.Decimal, quantity uint64)

	resting map[string]orderLocation
}

// NewMatchingEngine wires the engine to the SideBooks and SettlementBuffer
// it will mutate, and the trade observer it reports every fill to.
func NewMatchingEngine(bids, asks *book.SideBook, settlement *SettlementBuffer, onTrade func(price decimal.Decimal, quantity uint64)) *MatchingEngine {
	return &MatchingEngine{
		bids:       bids,
		asks:       asks,
		settlement: settlement,
		metrics:    newMetrics(),
		onTrade:    onTrade,
		resting:    make(map[string]orderLocation),
	}
}

// Metrics exposes the engine's observability counters.
func (e *MatchingEngine) Metrics() *Metrics {
	return e.metrics
}

func (e *MatchingEngine) sideBook(side common.Side) *book.SideBook {
	if side == common.Buy {
		return e.bids
	}
	return e.asks
}

func (e *MatchingEngine) oppositeBook(side common.Side) *book.SideBook {
	if side == common.Buy {
		return e.asks
	}
	return e.bids
}

// Submit is the engine's sole entry point (spec §4.C). It validates the
// order, assigns its exchange-ingress timestamp and id, then dispatches by
// order type.
func (e *MatchingEngine) Submit(order *common.Order) error {
	e.metrics.recordReceived()

	if err := order.Validate(); err != nil {
		e.metrics.recordRejected()
		return err
	}
	// Every price that rests in the book is quantized to 2 decimals (spec
	// §3), so two orders quoted at the same price always compare equal
	// regardless of how that price was computed upstream.
	if order.Price != nil {
		quantized := common.QuantizePrice(*order.Price)
		order.Price = &quantized
	}

	now := time.Now()
	if order.Timestamp == nil {
		order.Timestamp = &now
	}
	// ExchangeTimestamp always reflects ingress arrival order, never any
	// agent-supplied Timestamp — price-time priority is defined by arrival
	// at the engine, per spec §5.
	order.ExchangeTimestamp = now
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	switch order.OrderType {
	case common.LimitOrder:
		return e.handleLimit(order)
	case common.MarketOrder:
		return e.handleMarket(order)
	default:
		e.metrics.recordRejected()
		return fmt.Errorf("%w: unknown order type %v", common.ErrInvalidOrder, order.OrderType)
	}
}

// handleLimit implements spec §4.C handle_limit: a non-crossing limit
// order rests immediately; a crossing one is matched via handleMarket,
// whose unfilled remainder re-enters as a resting order.
func (e *MatchingEngine) handleLimit(order *common.Order) error {
	opposite := e.oppositeBook(order.Side)
	if !order.Crosses(opposite.BestPrice()) {
		e.rest(order)
		return nil
	}
	return e.handleMarket(order)
}

// rest inserts order into its own side and tracks its location for the
// supplemental cancel path.
func (e *MatchingEngine) rest(order *common.Order) {
	e.sideBook(order.Side).Insert(order)
	e.resting[order.ID] = orderLocation{side: order.Side, price: *order.Price}
}

// protectivePricePrevents reports whether order's protective price (if
// any) is now worse than counter's price, per spec §4.C step 2: BUY
// crosses only while price >= counter's price; SELL only while price <=
// counter's price.
func protectivePricePrevents(order *common.Order, counter *common.Order) bool {
	if order.Price == nil {
		return false
	}
	switch order.Side {
	case common.Buy:
		return order.Price.LessThan(*counter.Price)
	case common.Sell:
		return order.Price.GreaterThan(*counter.Price)
	default:
		return false
	}
}

// handleMarket implements spec §4.C handle_market. The emptiness check
// (step 3 in spec order) runs before the protective-price check, per the
// reordering spec §9's Open Questions resolve explicitly: checking an
// empty book's "price" first can fault.
func (e *MatchingEngine) handleMarket(order *common.Order) error {
	opposite := e.oppositeBook(order.Side)

	for order.Quantity > 0 {
		counter := opposite.BestOrder()

		if counter == nil {
			// Liquidity exhausted. An order that carries a price (every
			// LIMIT order, and any MARKET order with a protective price)
			// has somewhere defined to rest; only a bare MARKET order
			// with no protective price is fatal here (spec §7, §8
			// scenario 6; resolved Open Question in DESIGN.md).
			if order.Price != nil {
				e.rest(order)
				return nil
			}
			return common.ErrNoLiquidity
		}

		if protectivePricePrevents(order, counter) {
			e.rest(order)
			return nil
		}

		tradePrice := *counter.Price
		matchQty := min(order.Quantity, counter.Quantity)

		e.emitFill(order, counter, tradePrice, matchQty)

		switch {
		case counter.Quantity == matchQty:
			opposite.PopBestOrder()
			delete(e.resting, counter.ID)
			order.Quantity -= matchQty
		default: // counter.Quantity > matchQty
			opposite.ReduceBestQuantity(matchQty)
			order.Quantity -= matchQty
		}
	}
	return nil
}

// emitFill records the settlement tuple and reports the trade to the
// observer (MarketState's last_trade). Buyer/seller are derived from
// order.Side alone — counter always sits on the opposite side, so whichever
// order sits on the buy side is the buyer.
func (e *MatchingEngine) emitFill(order, counter *common.Order, price decimal.Decimal, quantity uint64) {
	var buyerID, sellerID string
	if order.Side == common.Buy {
		buyerID, sellerID = order.AccountID, counter.AccountID
	} else {
		buyerID, sellerID = counter.AccountID, order.AccountID
	}

	fill := common.Fill{
		BuyerAccountID:  buyerID,
		SellerAccountID: sellerID,
		Price:           price,
		Quantity:        quantity,
	}
	e.settlement.Append(fill)
	e.metrics.recordFill(quantity)

	if e.onTrade != nil {
		e.onTrade(price, quantity)
	}

	log.Debug().
		Str("buyer_account_id", buyerID).
		Str("seller_account_id", sellerID).
		Str("price", price.String()).
		Uint64("quantity", quantity).
		Msg("fill emitted")
}

// CancelOrder removes a still-resting order by id (supplemental, see
// SPEC_FULL §1). Never participates in crossing/matching logic. Returns
// ErrOrderNotFound if the id is unknown or already fully filled.
func (e *MatchingEngine) CancelOrder(id string) error {
	loc, ok := e.resting[id]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrOrderNotFound, id)
	}
	removed := e.sideBook(loc.side).RemoveOrder(loc.price, id)
	delete(e.resting, id)
	if !removed {
		return fmt.Errorf("%w: %s", common.ErrOrderNotFound, id)
	}
	e.metrics.recordCancelled()
	return nil
}
