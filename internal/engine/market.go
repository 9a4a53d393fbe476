package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"fenrir/internal/book"
	"fenrir/internal/common"

	"github.com/shopspring/decimal"
)

// defaultSnapshotQueueCapacity bounds the pending-snapshot FIFO. When full,
// the oldest pending snapshot is dropped (bounded-overwrite semantics,
// spec §4.E) — DataRouter is expected to drain faster than this fills in
// practice; the bound exists to protect memory if it falls behind.
const defaultSnapshotQueueCapacity = 1024

// lastTrade holds the most recent trade's price and volume. A zero value
// (Valid == false) means no trade has occurred yet.
type lastTrade struct {
	Valid    bool
	Price    decimal.Decimal
	Quantity uint64
}

// Snapshot is the market-data payload published after every accepted order
// (spec §3, §4.E).
type Snapshot struct {
	Timestamp       time.Time        `json:"timestamp"`
	ReferencePrice  *decimal.Decimal `json:"reference_price"`
	LastTradePrice  *decimal.Decimal `json:"last_trade_price"`
	LastTradeVolume *uint64          `json:"last_trade_volume"`
	TopBidOrder     *common.Order    `json:"top_bid"`
	TopAskOrder     *common.Order    `json:"top_ask"`
}

// MarketState owns both SideBooks and the SettlementBuffer for the
// lifetime of the process (spec §3). It is mutated exclusively by the
// single OrderRouter goroutine that calls Submit — no locks guard the
// books themselves, only the snapshot queue, which is the sole
// synchronization point shared with DataRouter.
type MarketState struct {
	bids       *book.SideBook
	asks       *book.SideBook
	settlement *SettlementBuffer
	engine     *MatchingEngine

	mu        sync.Mutex
	lastTrade lastTrade

	snapshotMu  sync.Mutex
	snapshotCap int
	snapshots   []Snapshot
	notify      chan struct{}
}

// NewMarketState builds an empty market: empty bid/ask books, an empty
// settlement buffer, no last trade, an empty bounded snapshot queue.
func NewMarketState() *MarketState {
	ms := &MarketState{
		bids:        book.NewSideBook(common.Buy),
		asks:        book.NewSideBook(common.Sell),
		settlement:  NewSettlementBuffer(),
		snapshotCap: defaultSnapshotQueueCapacity,
		notify:      make(chan struct{}, 1),
	}
	ms.engine = NewMatchingEngine(ms.bids, ms.asks, ms.settlement, ms.recordTrade)
	return ms
}

func (ms *MarketState) recordTrade(price decimal.Decimal, quantity uint64) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.lastTrade = lastTrade{Valid: true, Price: price, Quantity: quantity}
}

// Submit delegates to the MatchingEngine, then invokes snapshot() exactly
// once per accepted order — "accepted" meaning it passed validation, even
// if it subsequently failed with ErrNoLiquidity (spec §4.E, §7).
func (ms *MarketState) Submit(order *common.Order) error {
	err := ms.engine.Submit(order)
	if errors.Is(err, common.ErrInvalidOrder) {
		return err
	}
	ms.snapshot()
	return err
}

// CancelOrder removes a resting order by id (supplemental path).
func (ms *MarketState) CancelOrder(id string) error {
	return ms.engine.CancelOrder(id)
}

// Metrics exposes the underlying engine's observability counters.
func (ms *MarketState) Metrics() *Metrics {
	return ms.engine.Metrics()
}

// Flush drains the settlement buffer, discarding self-trades, and returns
// the settled fills. Reachable in-process and via ORCHESTRATOR_COMMAND.
func (ms *MarketState) Flush() []common.Fill {
	return ms.settlement.Flush()
}

// ReferencePrice is the midpoint of best bid and best ask when both exist,
// the single existing best price when only one side is populated, or nil
// when the book is empty.
func (ms *MarketState) ReferencePrice() *decimal.Decimal {
	bestBid := ms.bids.BestPrice()
	bestAsk := ms.asks.BestPrice()
	switch {
	case bestBid != nil && bestAsk != nil:
		mid := bestBid.Add(*bestAsk).Div(decimal.NewFromInt(2))
		mid = common.QuantizePrice(mid)
		return &mid
	case bestBid != nil:
		return bestBid
	case bestAsk != nil:
		return bestAsk
	default:
		return nil
	}
}

// snapshot builds a Snapshot of the current book state and enqueues it.
// Per spec §4.E a snapshot requires at least one populated side; an
// entirely empty book produces no snapshot.
func (ms *MarketState) snapshot() {
	bestBid := ms.bids.BestOrder()
	bestAsk := ms.asks.BestOrder()
	if bestBid == nil && bestAsk == nil {
		return
	}

	ms.mu.Lock()
	lt := ms.lastTrade
	ms.mu.Unlock()

	snap := Snapshot{
		Timestamp:      time.Now(),
		ReferencePrice: ms.ReferencePrice(),
		TopBidOrder:    bestBid,
		TopAskOrder:    bestAsk,
	}
	if lt.Valid {
		price := lt.Price
		qty := lt.Quantity
		snap.LastTradePrice = &price
		snap.LastTradeVolume = &qty
	}

	ms.enqueueSnapshot(snap)
}

// enqueueSnapshot pushes onto the bounded FIFO, dropping the oldest
// pending snapshot if at capacity (bounded-overwrite semantics, §4.E).
func (ms *MarketState) enqueueSnapshot(snap Snapshot) {
	ms.snapshotMu.Lock()
	defer ms.snapshotMu.Unlock()
	if len(ms.snapshots) >= ms.snapshotCap {
		ms.snapshots = ms.snapshots[1:]
	}
	ms.snapshots = append(ms.snapshots, snap)

	select {
	case ms.notify <- struct{}{}:
	default:
	}
}

// PopSnapshot removes and returns the oldest pending snapshot. ok is false
// if the queue is empty — this is the non-blocking half of DataRouter's
// block-pop-with-timeout loop (spec §4.G); DataRouter supplies the
// timeout/poll behavior around it.
func (ms *MarketState) PopSnapshot() (Snapshot, bool) {
	ms.snapshotMu.Lock()
	defer ms.snapshotMu.Unlock()
	if len(ms.snapshots) == 0 {
		return Snapshot{}, false
	}
	snap := ms.snapshots[0]
	ms.snapshots = ms.snapshots[1:]
	return snap, true
}

// PopSnapshotWait blocks until a snapshot is available, timeout elapses,
// or ctx is cancelled — the blocking-pop-with-timeout DataRouter polls on
// (spec §4.G), mirroring original_source's `queue.get(timeout=...)`.
func (ms *MarketState) PopSnapshotWait(ctx context.Context, timeout time.Duration) (Snapshot, bool) {
	if snap, ok := ms.PopSnapshot(); ok {
		return snap, true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ms.notify:
			if snap, ok := ms.PopSnapshot(); ok {
				return snap, true
			}
		case <-timer.C:
			return Snapshot{}, false
		case <-ctx.Done():
			return Snapshot{}, false
		}
	}
}

// PendingSnapshots reports how many snapshots are queued, for tests and
// the LOG_BOOK debug path.
func (ms *MarketState) PendingSnapshots() int {
	ms.snapshotMu.Lock()
	defer ms.snapshotMu.Unlock()
	return len(ms.snapshots)
}

// Bids/Asks expose the side books read-only for presentation and tests.
func (ms *MarketState) Bids() *book.SideBook { return ms.bids }
func (ms *MarketState) Asks() *book.SideBook { return ms.asks }
