package snapshot

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/format"
	"poolScope/internal/model"
	"poolScope/internal/refresh"
	"poolScope/internal/storage"
)

// DefaultInterval is the period between snapshots.
const DefaultInterval = 5 * time.Minute

// PoolSource lists pools with market data attached.
type PoolSource interface {
	Pools(ctx context.Context, chainID uint64, limit int) ([]model.Pool, error)
}

// RunConfig holds runtime settings for the snapshot loop.
type RunConfig struct {
	ChainID      uint64
	Limit        int
	Interval     time.Duration
	Once         bool
	MaxRetries   int
	RetryBackoff time.Duration
}

// Runner periodically snapshots pools into storage.
type Runner struct {
	cfg        RunConfig
	source     PoolSource
	storage    storage.Storage
	checkpoint Checkpointer
	signal     *refresh.Signal
	logger     *zap.Logger
	now        func() time.Time
}

// NewRunner builds a Runner with its dependencies. checkpoint and signal may
// be nil.
func NewRunner(cfg RunConfig, source PoolSource, sink storage.Storage, checkpoint Checkpointer, signal *refresh.Signal, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		storage:    sink,
		checkpoint: checkpoint,
		signal:     signal,
		logger:     logger,
		now:        time.Now,
	}
}

// Run takes a snapshot every interval and whenever the refresh signal is
// bumped. A checkpoint newer than one interval delays the first snapshot.
// Run returns nil once ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("pool source is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.Limit <= 0 {
		return fmt.Errorf("limit must be greater than zero")
	}

	if r.cfg.Once {
		return r.SnapshotOnce(ctx)
	}

	delay, err := r.initialDelay(ctx)
	if err != nil {
		return err
	}

	var updates <-chan uint64
	if r.signal != nil {
		ch, unsubscribe := r.signal.Subscribe()
		defer unsubscribe()
		updates = ch
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		case version := <-updates:
			r.logger.Info("refresh signal", zap.Uint64("version", version))
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		if err := r.SnapshotOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("snapshot failed", zap.Error(err))
		}
		timer.Reset(r.cfg.Interval)
	}
}

func (r *Runner) initialDelay(ctx context.Context) (time.Duration, error) {
	if r.checkpoint == nil {
		return 0, nil
	}
	last, ok, err := r.checkpoint.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	delay := last.Add(r.cfg.Interval).Sub(r.now())
	if delay < 0 {
		delay = 0
	}
	r.logger.Info("resume from checkpoint", zap.Time("last_snapshot_at", last), zap.Duration("delay", delay))
	return delay, nil
}

// SnapshotOnce fetches pools, stores one snapshot per pool and saves the
// checkpoint.
func (r *Runner) SnapshotOnce(ctx context.Context) error {
	var pools []model.Pool
	fetchLogger := r.logger.With(zap.Uint64("chain_id", r.cfg.ChainID))
	err := withRetry(ctx, fetchLogger, "fetch pools", r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		pools, err = r.source.Pools(ctx, r.cfg.ChainID, r.cfg.Limit)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch pools: %w", err)
	}

	takenAt := r.now().UTC()
	snapshots := BuildSnapshots(pools, takenAt)

	storeLogger := r.logger.With(zap.Int("snapshots", len(snapshots)))
	err = withRetry(ctx, storeLogger, "store snapshots", r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		return r.storage.PutSnapshots(ctx, snapshots)
	})
	if err != nil {
		return fmt.Errorf("store snapshots: %w", err)
	}

	if r.checkpoint != nil {
		if err := r.checkpoint.Save(ctx, takenAt); err != nil {
			return err
		}
	}

	r.logger.Info("snapshot complete", zap.Int("pools", len(snapshots)), zap.Time("taken_at", takenAt))
	return nil
}

// BuildSnapshots converts pools into snapshots taken at takenAt. A price
// change that is unusable or comes from a failed fetch is stored as null.
func BuildSnapshots(pools []model.Pool, takenAt time.Time) []model.PoolSnapshot {
	snapshots := make([]model.PoolSnapshot, 0, len(pools))
	for _, pool := range pools {
		snap := model.PoolSnapshot{
			ChainID:          pool.ChainID,
			PoolAddress:      pool.Address,
			Symbol:           pool.Symbol,
			TakenAt:          takenAt,
			MarketPrice:      pool.Market.Price,
			OraclePrice:      bigString(pool.OraclePrice),
			CurrentCycle:     pool.CurrentCycle,
			Status:           string(pool.Status),
			TotalLPLiquidity: bigString(pool.TotalLPLiquidityCommitted),
			LPCount:          pool.LPCount,
			UtilizationRatio: bigString(pool.UtilizationRatio),
			InterestRate:     bigString(pool.InterestRate),
			MarketError:      pool.Market.Error,
		}
		if pool.Market.Error == "" && format.IsUsable(pool.Market.PriceChange) {
			change := pool.Market.PriceChange
			snap.PriceChange = &change
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
