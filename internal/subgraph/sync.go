package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type metaData struct {
	Meta struct {
		Block struct {
			Number uint64 `json:"number"`
		} `json:"block"`
	} `json:"_meta"`
}

// SyncedBlock returns the block number the indexer has processed.
func (c *Client) SyncedBlock(ctx context.Context) (uint64, error) {
	data, err := c.post(ctx, c.metaEndpoint, metaQuery, nil)
	if err != nil {
		return 0, err
	}
	var meta metaData
	if err := json.Unmarshal(data, &meta); err != nil {
		return 0, fmt.Errorf("decode meta: %w", err)
	}
	return meta.Meta.Block.Number, nil
}

// WaitForSync polls the indexer until it has processed target. It returns
// false when maxWait elapses first. Poll errors are logged and retried.
func (c *Client) WaitForSync(ctx context.Context, target uint64, maxWait, pollInterval time.Duration) bool {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	deadline := time.Now().Add(maxWait)

	for {
		synced, err := c.SyncedBlock(ctx)
		if err != nil {
			c.logger.Debug("subgraph meta poll failed", zap.Uint64("target", target), zap.Error(err))
		} else if synced >= target {
			c.logger.Debug("subgraph synced", zap.Uint64("target", target), zap.Uint64("synced", synced))
			return true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		wait := pollInterval
		if wait > remaining {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}
