package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// priceExponent is the 2-decimal quantization spec §3 requires of every
// price that crosses the wire or rests in the book.
const priceExponent = -2

// QuantizePrice rounds p to 2 decimal places, the precision every Order and
// Fill price is held at.
func QuantizePrice(p decimal.Decimal) decimal.Decimal {
	return p.Round(-priceExponent)
}

// Order is the unit of work the matching engine operates on. ID, Side and
// OrderType are immutable once accepted; Quantity decreases monotonically
// during matching until it reaches zero.
type Order struct {
	// ID is engine-assigned at acceptance, never part of the wire payload
	// (spec §3/§6 do not name an order id) — it exists purely to support
	// the supplemental cancel path (SPEC_FULL §1).
	ID        string          `json:"-"`
	AccountID string          `json:"account_id"`
	Side      Side            `json:"side"`
	OrderType OrderType       `json:"order_type"`
	Price     *decimal.Decimal `json:"price"`
	Quantity  uint64          `json:"quantity"`
	// Timestamp is the agent-reported arrival time, if any; the engine sets
	// it to the acceptance time when it is absent. It never determines
	// price-time priority: arrival order at ingress does.
	Timestamp *time.Time `json:"timestamp"`
	// ExchangeTimestamp is assigned by the engine at acceptance, whether or
	// not Timestamp is present, and records the ingress arrival time.
	ExchangeTimestamp time.Time `json:"-"`
}

// Validate enforces the invariants of spec §3: a LIMIT order must carry a
// price, and quantity must be strictly positive. MARKET orders may or may
// not carry a price (acting as a protective limit).
func (o *Order) Validate() error {
	if o.OrderType == LimitOrder && o.Price == nil {
		return fmt.Errorf("%w: limit order missing price", ErrInvalidOrder)
	}
	if o.Price != nil && !o.Price.IsPositive() {
		return fmt.Errorf("%w: price must be strictly positive", ErrInvalidOrder)
	}
	if o.Quantity == 0 {
		return fmt.Errorf("%w: quantity must be strictly positive", ErrInvalidOrder)
	}
	switch o.OrderType {
	case LimitOrder, MarketOrder:
	default:
		return fmt.Errorf("%w: unknown order type %v", ErrInvalidOrder, o.OrderType)
	}
	switch o.Side {
	case Buy, Sell:
	default:
		return fmt.Errorf("%w: unknown side %v", ErrInvalidOrder, o.Side)
	}
	return nil
}

// Crosses reports whether the order, resting at Price, would cross the
// given opposite-side best price: a buy at or above the best ask, a sell at
// or below the best bid. A nil opposite means the opposite side is empty,
// which never crosses.
func (o *Order) Crosses(oppositeBest *decimal.Decimal) bool {
	if oppositeBest == nil || o.Price == nil {
		return false
	}
	switch o.Side {
	case Buy:
		return o.Price.GreaterThanOrEqual(*oppositeBest)
	case Sell:
		return o.Price.LessThanOrEqual(*oppositeBest)
	default:
		return false
	}
}

func (o Order) String() string {
	price := "nil"
	if o.Price != nil {
		price = o.Price.String()
	}
	return fmt.Sprintf(
		"Order{ID:%s Account:%s Side:%v Type:%v Price:%s Qty:%d ExchTS:%s}",
		o.ID, o.AccountID, o.Side, o.OrderType, price, o.Quantity,
		o.ExchangeTimestamp.Format(time.RFC3339Nano),
	)
}

// Fill is the settlement tuple spec §3 defines: a matched quantity at a
// single price between a buyer and a seller.
type Fill struct {
	BuyerAccountID  string          `json:"buyer_account_id"`
	SellerAccountID string          `json:"seller_account_id"`
	Price           decimal.Decimal `json:"price"`
	Quantity        uint64          `json:"quantity"`
}

// SelfTrade reports whether buyer and seller are the same account. Self
// trades are retained in the settlement buffer but skipped at flush.
func (f Fill) SelfTrade() bool {
	return f.BuyerAccountID == f.SellerAccountID
}

func (f Fill) String() string {
	return fmt.Sprintf(
		"Fill{Buyer:%s Seller:%s Price:%s Qty:%d}",
		f.BuyerAccountID, f.SellerAccountID, f.Price, f.Quantity,
	)
}
