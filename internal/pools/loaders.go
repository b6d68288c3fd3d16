package pools

import (
	"context"

	"poolScope/internal/model"
	"poolScope/internal/refresh"
)

// PoolsKey selects a pool listing. RefreshKey forces a reload when changed.
type PoolsKey struct {
	ChainID    uint64
	Limit      int
	RefreshKey uint64
}

// AccountKey selects one account's data in one pool.
type AccountKey struct {
	Pool    string
	Account string
}

// PoolsLoader reloads the pool listing on key changes and signal bumps.
func (s *Service) PoolsLoader(signal *refresh.Signal, onResult func(refresh.Result[PoolsKey, []model.Pool])) *refresh.Loader[PoolsKey, []model.Pool] {
	return refresh.NewLoader(func(ctx context.Context, key PoolsKey) ([]model.Pool, error) {
		return s.Pools(ctx, key.ChainID, key.Limit)
	}, signal, onResult)
}

// LPDataLoader reloads LP data on account changes and signal bumps.
func (s *Service) LPDataLoader(signal *refresh.Signal, onResult func(refresh.Result[AccountKey, LPData])) *refresh.Loader[AccountKey, LPData] {
	return refresh.NewLoader(func(ctx context.Context, key AccountKey) (LPData, error) {
		return s.LPData(ctx, key.Pool, key.Account)
	}, signal, onResult)
}

// UserDataLoader reloads depositor data on account changes and signal bumps.
func (s *Service) UserDataLoader(signal *refresh.Signal, onResult func(refresh.Result[AccountKey, UserData])) *refresh.Loader[AccountKey, UserData] {
	return refresh.NewLoader(func(ctx context.Context, key AccountKey) (UserData, error) {
		return s.UserData(ctx, key.Pool, key.Account)
	}, signal, onResult)
}
