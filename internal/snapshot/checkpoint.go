package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpointer persists the time of the last completed snapshot.
type Checkpointer interface {
	Load(ctx context.Context) (time.Time, bool, error)
	Save(ctx context.Context, at time.Time) error
}

// Checkpoint is the on-disk checkpoint record.
type Checkpoint struct {
	LastSnapshotAt time.Time `json:"last_snapshot_at"`
	UpdatedAt      string    `json:"updated_at"`
}

// FileCheckpoint persists checkpoints to disk.
type FileCheckpoint struct {
	path    string
	enabled bool
}

func NewFileCheckpoint(path string, enabled bool) *FileCheckpoint {
	return &FileCheckpoint{path: path, enabled: enabled && path != ""}
}

func (c *FileCheckpoint) Load(_ context.Context) (time.Time, bool, error) {
	if !c.enabled {
		return time.Time{}, false, nil
	}

	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return time.Time{}, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return time.Time{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}

	return cp.LastSnapshotAt, true, nil
}

func (c *FileCheckpoint) Save(_ context.Context, at time.Time) error {
	if !c.enabled {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	cp := Checkpoint{
		LastSnapshotAt: at.UTC(),
		UpdatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}
