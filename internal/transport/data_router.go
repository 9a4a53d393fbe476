package transport

import (
	"context"
	"fmt"
	"time"

	"fenrir/internal/common"
	"fenrir/internal/engine"
	"fenrir/internal/wire"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// snapshotPopTimeout is the short timeout DataRouter blocks on the
// snapshot queue for — its primary opportunity to observe shutdown
// (spec §4.G, §5), mirroring original_source/data_router.py's
// `queue.get(timeout=0.5)`.
const snapshotPopTimeout = 500 * time.Millisecond

// SnapshotSource is the subset of MarketState DataRouter depends on.
type SnapshotSource interface {
	PopSnapshotWait(ctx context.Context, timeout time.Duration) (engine.Snapshot, bool)
}

// DataRouter owns the one outbound PUB socket: one producer (itself), many
// subscribers. It drains the snapshot queue and publishes each snapshot
// wrapped in a DATA_SNAPSHOT envelope.
type DataRouter struct {
	endpoint string
	market   SnapshotSource
	socket   zmq4.Socket
}

// NewDataRouter constructs a DataRouter; the PUB socket is bound in Run.
func NewDataRouter(endpoint string, market SnapshotSource) *DataRouter {
	return &DataRouter{endpoint: endpoint, market: market}
}

// Run binds the PUB socket and loops: block-pop with a short timeout,
// wrap, publish.
func (d *DataRouter) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)
	d.socket = zmq4.NewPub(ctx)
	defer func() {
		if err := d.socket.Close(); err != nil {
			log.Error().Err(err).Msg("data router: error closing socket")
		}
	}()

	if err := d.socket.Listen(d.endpoint); err != nil {
		return fmt.Errorf("data router: listen %s: %w", d.endpoint, err)
	}
	log.Info().Str("endpoint", d.endpoint).Msg("data router listening")

	t.Go(func() error {
		return d.publishLoop(ctx)
	})

	return t.Wait()
}

func (d *DataRouter) publishLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("data router: shutdown observed, draining before exit")
			d.drainRemaining()
			return nil
		default:
		}

		snap, ok := d.market.PopSnapshotWait(ctx, snapshotPopTimeout)
		if !ok {
			continue
		}
		d.publish(snap)
	}
}

// drainRemaining flushes any snapshots still queued before exit, per spec
// §7's "always drains outstanding snapshots before exit".
func (d *DataRouter) drainRemaining() {
	drainCtx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	for {
		snap, ok := d.market.PopSnapshotWait(drainCtx, 0)
		if !ok {
			return
		}
		d.publish(snap)
	}
}

func (d *DataRouter) publish(snap engine.Snapshot) {
	payload, err := wire.Encode(common.DataSnapshot, snap)
	if err != nil {
		log.Error().Err(err).Msg("data router: failed to encode snapshot")
		return
	}

	// Retry once then drop, per spec §7's outbound transport error policy.
	if err := d.socket.Send(zmq4.NewMsg(payload)); err != nil {
		log.Warn().Err(err).Msg("data router: publish failed, retrying once")
		if err := d.socket.Send(zmq4.NewMsg(payload)); err != nil {
			log.Error().Err(err).Msg("data router: publish failed twice, dropping snapshot")
		}
	}
}
