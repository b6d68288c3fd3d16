package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolScope/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS pools (
	chain_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	symbol TEXT NOT NULL,
	status TEXT NOT NULL,
	current_cycle BIGINT NOT NULL,
	last_snapshot_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_address)
);
CREATE TABLE IF NOT EXISTS pool_snapshots (
	chain_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	taken_at TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL,
	market_price DOUBLE PRECISION NOT NULL,
	price_change DOUBLE PRECISION,
	oracle_price NUMERIC NOT NULL,
	current_cycle BIGINT NOT NULL,
	status TEXT NOT NULL,
	total_lp_liquidity NUMERIC NOT NULL,
	lp_count BIGINT NOT NULL,
	utilization_ratio NUMERIC NOT NULL,
	interest_rate NUMERIC NOT NULL,
	market_error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_address, taken_at)
);
CREATE TABLE IF NOT EXISTS snapshot_state (
	name TEXT PRIMARY KEY,
	last_snapshot_ts BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for pool snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutSnapshots upserts snapshots and the latest state of their pools in one
// batch.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		queueSnapshot(batch, snap)
		queuePool(batch, snap)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func queueSnapshot(batch *pgx.Batch, snap model.PoolSnapshot) {
	batch.Queue(`
		INSERT INTO pool_snapshots (
			chain_id, pool_address, taken_at, symbol, market_price, price_change, oracle_price,
			current_cycle, status, total_lp_liquidity, lp_count, utilization_ratio, interest_rate,
			market_error, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7::text::numeric,$8,$9,$10::text::numeric,$11,$12::text::numeric,$13::text::numeric,$14,now(),now())
		ON CONFLICT (chain_id, pool_address, taken_at)
		DO UPDATE SET
			symbol = EXCLUDED.symbol,
			market_price = EXCLUDED.market_price,
			price_change = EXCLUDED.price_change,
			oracle_price = EXCLUDED.oracle_price,
			current_cycle = EXCLUDED.current_cycle,
			status = EXCLUDED.status,
			total_lp_liquidity = EXCLUDED.total_lp_liquidity,
			lp_count = EXCLUDED.lp_count,
			utilization_ratio = EXCLUDED.utilization_ratio,
			interest_rate = EXCLUDED.interest_rate,
			market_error = EXCLUDED.market_error,
			updated_at = now()
	`,
		int64(snap.ChainID),
		snap.PoolAddress,
		snap.TakenAt,
		snap.Symbol,
		snap.MarketPrice,
		snap.PriceChange,
		snap.OraclePrice,
		int64(snap.CurrentCycle),
		snap.Status,
		snap.TotalLPLiquidity,
		int64(snap.LPCount),
		snap.UtilizationRatio,
		snap.InterestRate,
		snap.MarketError,
	)
}

func queuePool(batch *pgx.Batch, snap model.PoolSnapshot) {
	batch.Queue(`
		INSERT INTO pools (
			chain_id, pool_address, symbol, status, current_cycle, last_snapshot_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (chain_id, pool_address)
		DO UPDATE SET
			symbol = EXCLUDED.symbol,
			status = EXCLUDED.status,
			current_cycle = EXCLUDED.current_cycle,
			last_snapshot_at = GREATEST(pools.last_snapshot_at, EXCLUDED.last_snapshot_at),
			updated_at = now()
	`,
		int64(snap.ChainID),
		snap.PoolAddress,
		snap.Symbol,
		snap.Status,
		int64(snap.CurrentCycle),
		snap.TakenAt,
	)
}

// LoadState returns last_snapshot_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_snapshot_ts FROM snapshot_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_snapshot_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO snapshot_state (name, last_snapshot_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_snapshot_ts = EXCLUDED.last_snapshot_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

// StateCheckpoint records the last snapshot time under a state name.
type StateCheckpoint struct {
	store *Store
	name  string
}

// Checkpoint returns a checkpoint backed by the snapshot_state table.
func (s *Store) Checkpoint(name string) *StateCheckpoint {
	return &StateCheckpoint{store: s, name: name}
}

func (c *StateCheckpoint) Load(ctx context.Context) (time.Time, bool, error) {
	ts, ok, err := c.store.LoadState(ctx, c.name)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	return time.Unix(int64(ts), 0).UTC(), true, nil
}

func (c *StateCheckpoint) Save(ctx context.Context, at time.Time) error {
	return c.store.SaveState(ctx, c.name, uint64(at.Unix()))
}
