package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"poolScope/internal/model"
)

func TestQueueSnapshotArguments(t *testing.T) {
	change := -1.5
	snap := model.PoolSnapshot{
		ChainID:          84532,
		PoolAddress:      "0xp1",
		Symbol:           "TSLA",
		TakenAt:          time.Unix(1700000000, 0).UTC(),
		MarketPrice:      200,
		PriceChange:      &change,
		OraclePrice:      "145000000000000000000",
		CurrentCycle:     7,
		Status:           "ACTIVE",
		TotalLPLiquidity: "5000000000",
		LPCount:          3,
		UtilizationRatio: "0",
		InterestRate:     "0",
	}

	batch := &pgx.Batch{}
	queueSnapshot(batch, snap)
	queuePool(batch, snap)
	if batch.Len() != 2 {
		t.Fatalf("expected 2 queued queries, got %d", batch.Len())
	}

	snapshotQuery := batch.QueuedQueries[0]
	if !strings.Contains(snapshotQuery.SQL, "INSERT INTO pool_snapshots") {
		t.Fatalf("unexpected sql: %s", snapshotQuery.SQL)
	}
	if len(snapshotQuery.Arguments) != 14 {
		t.Fatalf("expected 14 arguments, got %d", len(snapshotQuery.Arguments))
	}
	if snapshotQuery.Arguments[0] != int64(84532) || snapshotQuery.Arguments[6] != "145000000000000000000" {
		t.Fatalf("unexpected arguments: %v", snapshotQuery.Arguments)
	}

	poolQuery := batch.QueuedQueries[1]
	if !strings.Contains(poolQuery.SQL, "INSERT INTO pools") || len(poolQuery.Arguments) != 6 {
		t.Fatalf("unexpected pool query: %s %v", poolQuery.SQL, poolQuery.Arguments)
	}
}
