package pools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolScope/internal/market"
	"poolScope/internal/model"
	"poolScope/internal/subgraph"
)

// ErrPoolNotFound is returned when the indexer has no pool at an address.
var ErrPoolNotFound = errors.New("pool not found")

// Querier runs GraphQL queries.
type Querier interface {
	QueryInto(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error
}

// MarketSource provides single and batch quotes.
type MarketSource interface {
	FetchMarketData(ctx context.Context, symbol string) model.MarketData
	FetchBatchMarketData(ctx context.Context, symbols []string) (map[string]model.MarketData, error)
}

// Service assembles pools, LP and depositor positions from the indexer and
// attaches market data.
type Service struct {
	subgraph Querier
	market   MarketSource
	logger   *zap.Logger
}

// NewService builds a Service.
func NewService(q Querier, m MarketSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{subgraph: q, market: m, logger: logger}
}

// LPData is a liquidity provider's position and latest request in a pool.
type LPData struct {
	Position *model.LPPosition
	Request  *model.LPRequest
	IsLP     bool
}

// UserData is a depositor's position and latest request in a pool.
type UserData struct {
	Position    *model.UserPosition
	Request     *model.UserRequest
	HasPosition bool
}

type poolsResult struct {
	Pools []model.PoolRecord `json:"pools"`
}

type poolResult struct {
	Pool *model.PoolRecord `json:"pool"`
}

type lpResult struct {
	Positions []model.LPPositionRecord `json:"lpPositions"`
	Requests  []model.LPRequestRecord  `json:"lpRequests"`
}

type userResult struct {
	Positions []model.UserPositionRecord `json:"userPositions"`
	Requests  []model.UserRequestRecord  `json:"userRequests"`
}

// ConvertTokenSymbol toggles the leading "x" of a synthetic asset symbol,
// so xTSLA becomes TSLA and TSLA becomes xTSLA.
func ConvertTokenSymbol(symbol string) string {
	if symbol == "" {
		return ""
	}
	if strings.HasPrefix(symbol, "x") {
		return symbol[1:]
	}
	return "x" + symbol
}

// Pools lists up to limit verified pools. chainID 0 lists every chain. Market
// data is fetched once for all unique tickers; if that fetch fails the pools
// are still returned, each carrying the annotated fetch error.
func (s *Service) Pools(ctx context.Context, chainID uint64, limit int) ([]model.Pool, error) {
	query := subgraph.AllPoolsQuery
	vars := map[string]interface{}{"first": limit}
	if chainID != 0 {
		query = subgraph.PoolsQuery
		vars["chainId"] = strconv.FormatUint(chainID, 10)
	}

	var res poolsResult
	if err := s.subgraph.QueryInto(ctx, query, vars, &res); err != nil {
		return nil, fmt.Errorf("query pools: %w", err)
	}

	pools := make([]model.Pool, 0, len(res.Pools))
	symbols := make([]string, 0, len(res.Pools))
	seen := make(map[string]struct{}, len(res.Pools))
	for _, record := range res.Pools {
		pool, err := record.Decode()
		if err != nil {
			s.logger.Warn("skip undecodable pool", zap.String("pool", record.ID), zap.Error(err))
			continue
		}
		pool.Symbol = ConvertTokenSymbol(pool.AssetToken.Symbol)
		pools = append(pools, pool)
		if _, ok := seen[pool.Symbol]; ok || pool.Symbol == "" {
			continue
		}
		seen[pool.Symbol] = struct{}{}
		symbols = append(symbols, pool.Symbol)
	}
	if len(pools) == 0 {
		return pools, nil
	}

	quotes, err := s.market.FetchBatchMarketData(ctx, symbols)
	if err != nil {
		s.logger.Warn("batch market data failed", zap.Strings("symbols", symbols), zap.Error(err))
		quotes = nil
	}
	for i := range pools {
		if data, ok := quotes[pools[i].Symbol]; ok {
			pools[i].Market = data
			continue
		}
		pools[i].Market = market.ErrorMarketData()
	}
	return pools, nil
}

// Pool loads one pool and its market data.
func (s *Service) Pool(ctx context.Context, address string) (model.Pool, error) {
	var res poolResult
	vars := map[string]interface{}{"id": strings.ToLower(address)}
	if err := s.subgraph.QueryInto(ctx, subgraph.PoolQuery, vars, &res); err != nil {
		return model.Pool{}, fmt.Errorf("query pool %s: %w", address, err)
	}
	if res.Pool == nil {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, address)
	}
	pool, err := res.Pool.Decode()
	if err != nil {
		return model.Pool{}, err
	}
	pool.Symbol = ConvertTokenSymbol(pool.AssetToken.Symbol)
	pool.Market = s.market.FetchMarketData(ctx, pool.Symbol)
	return pool, nil
}

// LPData loads an account's LP position and its latest request. An empty
// account resolves to the zero state without a query.
func (s *Service) LPData(ctx context.Context, pool, account string) (LPData, error) {
	if account == "" {
		return LPData{}, nil
	}

	var res lpResult
	vars := map[string]interface{}{"pool": strings.ToLower(pool), "lp": strings.ToLower(account)}
	if err := s.subgraph.QueryInto(ctx, subgraph.LPDataQuery, vars, &res); err != nil {
		return LPData{}, fmt.Errorf("query lp data: %w", err)
	}

	var out LPData
	if len(res.Positions) > 0 {
		pos, err := res.Positions[0].Decode()
		if err != nil {
			return LPData{}, err
		}
		out.Position = &pos
		out.IsLP = true
	}
	if len(res.Requests) > 0 {
		req, err := res.Requests[0].Decode()
		if err != nil {
			return LPData{}, err
		}
		out.Request = &req
	}
	return out, nil
}

// UserData loads an account's depositor position and its latest request. An
// empty account resolves to the zero state without a query.
func (s *Service) UserData(ctx context.Context, pool, account string) (UserData, error) {
	if account == "" {
		return UserData{}, nil
	}

	var res userResult
	vars := map[string]interface{}{"pool": strings.ToLower(pool), "user": strings.ToLower(account)}
	if err := s.subgraph.QueryInto(ctx, subgraph.UserDataQuery, vars, &res); err != nil {
		return UserData{}, fmt.Errorf("query user data: %w", err)
	}

	var out UserData
	if len(res.Positions) > 0 {
		pos, err := res.Positions[0].Decode()
		if err != nil {
			return UserData{}, err
		}
		out.Position = &pos
		out.HasPosition = true
	}
	if len(res.Requests) > 0 {
		req, err := res.Requests[0].Decode()
		if err != nil {
			return UserData{}, err
		}
		out.Request = &req
	}
	return out, nil
}

// PoolWithLP loads a pool and an account's LP data concurrently.
func (s *Service) PoolWithLP(ctx context.Context, address, account string) (model.Pool, LPData, error) {
	var (
		pool model.Pool
		lp   LPData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pool, err = s.Pool(gctx, address)
		return err
	})
	g.Go(func() error {
		var err error
		lp, err = s.LPData(gctx, address, account)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Pool{}, LPData{}, err
	}
	return pool, lp, nil
}

// PoolWithUser loads a pool and an account's depositor data concurrently.
func (s *Service) PoolWithUser(ctx context.Context, address, account string) (model.Pool, UserData, error) {
	var (
		pool model.Pool
		user UserData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pool, err = s.Pool(gctx, address)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.UserData(gctx, address, account)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Pool{}, UserData{}, err
	}
	return pool, user, nil
}
