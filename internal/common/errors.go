package common

import "errors"

// Error kinds per the venue's error handling design: malformed input never
// crashes a worker, it is logged and the offending message is dropped.
var (
	// ErrInvalidOrder covers malformed payloads, missing required fields,
	// unknown enum values, non-positive quantity, and LIMIT orders missing
	// a price. The book is left unchanged.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrNoLiquidity is raised when a MARKET order (without a protective
	// price) finds the opposite side empty mid-fill. Fatal to that order
	// only; prior partial fills already recorded are kept.
	ErrNoLiquidity = errors.New("no liquidity")

	// ErrTransportClosed covers send/receive failures at the socket layer.
	ErrTransportClosed = errors.New("transport error")

	// ErrShutdown signals a cooperative cancellation was observed.
	ErrShutdown = errors.New("shutdown")

	// ErrEmptyQueue is returned by PriceLevelQueue.Head/PopHead when empty.
	ErrEmptyQueue = errors.New("price level queue empty")

	// ErrOrderNotFound is returned by the supplemental cancel path when an
	// order id is unknown or already fully filled.
	ErrOrderNotFound = errors.New("order not found")
)
