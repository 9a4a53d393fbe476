package engine

import (
	"fenrir/internal/common"

	"github.com/rs/zerolog/log"
)

// SettlementBuffer collects fill tuples until flushed. It is the in-memory
// stand-in for original_source's clearing house: it collects settlement
// tuples and emits them, it does not move assets.
type SettlementBuffer struct {
	fills []common.Fill
}

// NewSettlementBuffer returns an empty buffer.
func NewSettlementBuffer() *SettlementBuffer {
	return &SettlementBuffer{}
}

// Append records a fill. Self-trades are retained here and only skipped at
// Flush time.
func (b *SettlementBuffer) Append(fill common.Fill) {
	b.fills = append(b.fills, fill)
}

// Len reports the number of buffered fills, including any self-trades.
func (b *SettlementBuffer) Len() int {
	return len(b.fills)
}

// Flush iterates the buffered fills, skipping self-trades (a single
// account cannot net with itself), and discards the buffer regardless of
// how many entries were actually emitted.
func (b *SettlementBuffer) Flush() []common.Fill {
	settled := make([]common.Fill, 0, len(b.fills))
	for _, fill := range b.fills {
		if fill.SelfTrade() {
			log.Debug().
				Str("account_id", fill.BuyerAccountID).
				Msg("skipping self-trade at settlement flush")
			continue
		}
		settled = append(settled, fill)
	}
	b.fills = nil
	return settled
}
