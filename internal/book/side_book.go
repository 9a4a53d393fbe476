package book

import (
	"fenrir/internal/common"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// SideBook is the price index over one side of the book: a mapping from
// price to PriceLevelQueue, plus a btree giving O(log P) insert/lookup and
// O(log P) (amortized O(1) via Min/Max caching in tidwall/btree) retrieval
// of the best price. index and mapping are the same structure here — the
// btree node *is* the map entry — so the §4.B invariant (index keys == map
// keys, every mapped queue non-empty) holds by construction: a price is
// only ever present in levels while its queue is non-empty.
type SideBook struct {
	side   common.Side
	levels *btree.BTreeG[*PriceLevelQueue]
}

// NewSideBook builds the price index for one side. Bids sort descending
// (highest first is best); asks sort ascending (lowest first is best).
func NewSideBook(side common.Side) *SideBook {
	var less func(a, b *PriceLevelQueue) bool
	switch side {
	case common.Buy:
		less = func(a, b *PriceLevelQueue) bool { return a.Price.GreaterThan(b.Price) }
	case common.Sell:
		less = func(a, b *PriceLevelQueue) bool { return a.Price.LessThan(b.Price) }
	default:
		less = func(a, b *PriceLevelQueue) bool { return a.Price.LessThan(b.Price) }
	}
	return &SideBook{
		side:   side,
		levels: btree.NewBTreeG(less),
	}
}

// Side reports which side of the book this index holds.
func (sb *SideBook) Side() common.Side {
	return sb.side
}

// Insert adds order to the queue at order's price, creating the price
// level if it does not already exist. O(log P).
func (sb *SideBook) Insert(order *common.Order) {
	key := &PriceLevelQueue{Price: *order.Price}
	if level, ok := sb.levels.Get(key); ok {
		level.Append(order)
		return
	}
	level := NewPriceLevelQueue(*order.Price)
	level.Append(order)
	sb.levels.Set(level)
}

// BestOrder returns the head order at the best price (max for Buy, min for
// Sell), or nil if the side is empty.
func (sb *SideBook) BestOrder() *common.Order {
	level, ok := sb.levels.Min()
	if !ok {
		return nil
	}
	head, err := level.Head()
	if err != nil {
		return nil
	}
	return head
}

// BestPrice returns the best resting price on this side, or nil if empty.
func (sb *SideBook) BestPrice() *decimal.Decimal {
	level, ok := sb.levels.Min()
	if !ok {
		return nil
	}
	price := level.Price
	return &price
}

// PopBestOrder removes and returns the best order on this side. If the
// level it came from becomes empty, the level is evicted from the index.
func (sb *SideBook) PopBestOrder() *common.Order {
	level, ok := sb.levels.Min()
	if !ok {
		return nil
	}
	order, err := level.PopHead()
	if err != nil {
		return nil
	}
	if level.IsEmpty() {
		sb.levels.Delete(level)
	}
	return order
}

// ReduceBestQuantity mutates the head order of the best price level's
// quantity by -delta in place. The caller guarantees delta < head.Quantity
// — a full consumption of the head order goes through PopBestOrder, not
// here.
func (sb *SideBook) ReduceBestQuantity(delta uint64) {
	level, ok := sb.levels.Min()
	if !ok {
		return
	}
	head, err := level.Head()
	if err != nil {
		return
	}
	head.Quantity -= delta
}

// VolumeAt returns the total resting volume at price, or nil if no level
// exists there.
func (sb *SideBook) VolumeAt(price decimal.Decimal) *uint64 {
	level, ok := sb.levels.Get(&PriceLevelQueue{Price: price})
	if !ok {
		return nil
	}
	v := level.Volume()
	return &v
}

// PricesDesc returns the price levels in descending price order, for
// presentation and snapshots.
func (sb *SideBook) PricesDesc() []*PriceLevelQueue {
	levels := make([]*PriceLevelQueue, 0, sb.levels.Len())
	sb.levels.Scan(func(level *PriceLevelQueue) bool {
		levels = append(levels, level)
		return true
	})
	if sb.side == common.Sell {
		// Asks are stored ascending; reverse for descending presentation.
		for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
			levels[i], levels[j] = levels[j], levels[i]
		}
	}
	return levels
}

// RemoveOrder removes the order with the given id from the level at price.
// Evicts the level if it becomes empty. Used only by the supplemental
// cancel path. Returns false if the order was not found at that price.
func (sb *SideBook) RemoveOrder(price decimal.Decimal, id string) bool {
	level, ok := sb.levels.Get(&PriceLevelQueue{Price: price})
	if !ok {
		return false
	}
	removed := level.RemoveByID(id)
	if removed && level.IsEmpty() {
		sb.levels.Delete(level)
	}
	return removed
}

// IsEmpty reports whether this side holds no resting orders at all.
func (sb *SideBook) IsEmpty() bool {
	return sb.levels.Len() == 0
}

// Len returns the number of distinct price levels on this side.
func (sb *SideBook) Len() int {
	return sb.levels.Len()
}
