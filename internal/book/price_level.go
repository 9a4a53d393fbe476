// Package book implements the price-ordered order book structures: a FIFO
// queue of orders resting at one price (PriceLevelQueue), and the
// side-parameterized price index over those queues (SideBook).
package book

import (
	"fenrir/internal/common"

	"github.com/shopspring/decimal"
)

// PriceLevelQueue is the FIFO of orders resting at a single price. Orders
// are appended at the tail and consumed from the head, preserving arrival
// order — the time half of price-time priority.
type PriceLevelQueue struct {
	Price  decimal.Decimal
	orders []*common.Order
}

// NewPriceLevelQueue creates an empty queue at the given price.
func NewPriceLevelQueue(price decimal.Decimal) *PriceLevelQueue {
	return &PriceLevelQueue{Price: price}
}

// Append adds an order to the tail of the queue.
func (q *PriceLevelQueue) Append(order *common.Order) {
	q.orders = append(q.orders, order)
}

// Head peeks at the order at the front of the queue without removing it.
func (q *PriceLevelQueue) Head() (*common.Order, error) {
	if len(q.orders) == 0 {
		return nil, common.ErrEmptyQueue
	}
	return q.orders[0], nil
}

// PopHead removes and returns the order at the front of the queue.
func (q *PriceLevelQueue) PopHead() (*common.Order, error) {
	if len(q.orders) == 0 {
		return nil, common.ErrEmptyQueue
	}
	order := q.orders[0]
	q.orders = q.orders[1:]
	return order, nil
}

// Volume returns the sum of the remaining quantity of every order resting
// in the queue. Returns 0 when empty.
func (q *PriceLevelQueue) Volume() uint64 {
	var total uint64
	for _, o := range q.orders {
		total += o.Quantity
	}
	return total
}

// IsEmpty reports whether the queue holds no orders.
func (q *PriceLevelQueue) IsEmpty() bool {
	return len(q.orders) == 0
}

// Len returns the number of resting orders, for presentation/tests.
func (q *PriceLevelQueue) Len() int {
	return len(q.orders)
}

// Orders returns the resting orders in FIFO order. Callers must not mutate
// the returned slice's backing array; it is exposed for snapshot/debug use
// only.
func (q *PriceLevelQueue) Orders() []*common.Order {
	return q.orders
}

// RemoveByID removes the order with the given id from anywhere in the
// queue, preserving the relative order of the rest. Used only by the
// supplemental cancel path (§1 of SPEC_FULL) — never by matching.
func (q *PriceLevelQueue) RemoveByID(id string) bool {
	for i, o := range q.orders {
		if o.ID == id {
			q.orders = append(q.orders[:i], q.orders[i+1:]...)
			return true
		}
	}
	return false
}
