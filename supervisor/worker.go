package supervisor

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/herdius/herdius-bridge/libs/log"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
)

// Syncer observes external lock contracts.
type Syncer interface {
	SyncAll(ctx context.Context, contracts []common.Address)
}

// Detacher signs queued detach requests.
type Detacher interface {
	Run(ctx context.Context, snap *statedb.Tx) error
}

// Worker is the per-block off-chain worker. Either stage may be nil.
type Worker struct {
	syncer    Syncer
	detacher  Detacher
	contracts []common.Address
	timeout   time.Duration
	log       zerolog.Logger
}

// NewWorker returns an off-chain worker bounded by timeout per block.
func NewWorker(s Syncer, d Detacher, contracts []common.Address, timeout time.Duration) *Worker {
	return &Worker{
		syncer:    s,
		detacher:  d,
		contracts: contracts,
		timeout:   timeout,
		log:       log.Component("offchain-worker"),
	}
}

// OnBlock runs after every committed block. Failures are logged; the next
// block retries.
func (w *Worker) OnBlock(ctx context.Context, height uint64, snap *statedb.Tx) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	start := time.Now()

	if w.syncer != nil && len(w.contracts) > 0 {
		w.syncer.SyncAll(ctx, w.contracts)
	}
	if w.detacher != nil {
		if err := w.detacher.Run(ctx, snap); err != nil {
			w.log.Error().Err(err).Uint64("height", height).Msg("detach worker failed")
		}
	}
	w.log.Debug().Uint64("height", height).Dur("took", time.Since(start)).Msg("off-chain worker done")
}
