package storage

import (
	"context"

	"poolScope/internal/model"
)

// Storage defines a sink for pool snapshots.
type Storage interface {
	PutSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error
}
