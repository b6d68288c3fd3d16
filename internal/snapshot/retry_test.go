package snapshot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"poolScope/internal/model"
	"poolScope/internal/subgraph"
)

func TestWithRetryClassifiesErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{name: "transport", err: errors.New("connection reset"), wantCalls: 3},
		{name: "server status", err: &subgraph.StatusError{StatusCode: 503}, wantCalls: 3},
		{name: "rate limited", err: fmt.Errorf("query: %w", &subgraph.StatusError{StatusCode: 429}), wantCalls: 3},
		{name: "client status", err: &subgraph.StatusError{StatusCode: 400}, wantCalls: 1},
		{name: "graphql", err: &subgraph.GraphQLError{Messages: []string{"bad field"}}, wantCalls: 1},
		{name: "decode", err: fmt.Errorf("pool: %w", &model.DecodeError{Entity: "pool", Field: "oraclePrice"}), wantCalls: 1},
		{name: "not configured", err: subgraph.ErrNotConfigured, wantCalls: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := withRetry(context.Background(), zap.NewNop(), "fetch pools", 2, time.Millisecond, func(context.Context) error {
				calls++
				return tc.err
			})
			require.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.wantCalls, calls)
		})
	}
}

func TestWithRetryLogsAttempts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	calls := 0
	err := withRetry(context.Background(), zap.New(core), "store snapshots", 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("pool busy")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	entries := logs.FilterMessage("store snapshots failed, retrying").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].ContextMap()["attempt"])
	assert.Equal(t, int64(2), entries[1].ContextMap()["attempt"])
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, zap.NewNop(), "fetch pools", 5, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("indexer unavailable")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
