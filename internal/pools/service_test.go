package pools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolScope/internal/market"
	"poolScope/internal/model"
	"poolScope/internal/refresh"
	"poolScope/internal/subgraph"
)

type call struct {
	query string
	vars  map[string]interface{}
}

type fakeQuerier struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	calls     []call
}

func (q *fakeQuerier) QueryInto(_ context.Context, query string, vars map[string]interface{}, out interface{}) error {
	q.mu.Lock()
	q.calls = append(q.calls, call{query: query, vars: vars})
	body, ok := q.responses[query]
	q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	if !ok {
		return errors.New("unexpected query")
	}
	return json.Unmarshal([]byte(body), out)
}

func (q *fakeQuerier) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

type fakeMarket struct {
	batch    map[string]model.MarketData
	batchErr error
	symbols  [][]string
	single   []string
}

func (m *fakeMarket) FetchMarketData(_ context.Context, symbol string) model.MarketData {
	m.single = append(m.single, symbol)
	return model.MarketData{Name: symbol, Price: 42, Volume: "1K"}
}

func (m *fakeMarket) FetchBatchMarketData(_ context.Context, symbols []string) (map[string]model.MarketData, error) {
	m.symbols = append(m.symbols, symbols)
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	return m.batch, nil
}

func poolRecord(id, symbol, state string) string {
	return `{"id":"` + id + `","chainId":"84532","assetToken":{"id":"0xa","symbol":"` + symbol + `","name":"n","decimals":"18"},` +
		`"reserveToken":{"id":"0xr","symbol":"USDC","name":"USD Coin","decimals":"6"},"oraclePrice":"1","currentCycle":"3",` +
		`"cycleState":"` + state + `","lastCycleActionDateTime":"1700000000","rebalanceLength":"600","lpCount":"1","isVerified":true}`
}

func TestConvertTokenSymbol(t *testing.T) {
	cases := map[string]string{"xTSLA": "TSLA", "TSLA": "xTSLA", "": "", "xAAPL": "AAPL"}
	for in, want := range cases {
		assert.Equal(t, want, ConvertTokenSymbol(in), in)
	}
	assert.Equal(t, "xTSLA", ConvertTokenSymbol(ConvertTokenSymbol("xTSLA")))
}

func TestPoolsMergesBatchMarketData(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{
		subgraph.PoolsQuery: `{"pools":[` + poolRecord("0xP1", "xTSLA", "POOL_ACTIVE") + `,` +
			poolRecord("0xP2", "xTSLA", "POOL_HALTED") + `,` + poolRecord("0xP3", "xAAPL", "POOL_REBALANCING_ONCHAIN") + `]}`,
	}}
	m := &fakeMarket{batch: map[string]model.MarketData{
		"TSLA": {Name: "Tesla", Price: 200, Volume: "1M"},
	}}
	svc := NewService(q, m, nil)

	pools, err := svc.Pools(context.Background(), 84532, 10)
	require.NoError(t, err)
	require.Len(t, pools, 3)

	require.Len(t, m.symbols, 1)
	assert.Equal(t, []string{"TSLA", "AAPL"}, m.symbols[0])
	assert.Equal(t, "84532", q.calls[0].vars["chainId"])
	assert.Equal(t, 10, q.calls[0].vars["first"])

	assert.Equal(t, "0xp1", pools[0].Address)
	assert.Equal(t, "TSLA", pools[0].Symbol)
	assert.Equal(t, "Tesla", pools[0].Market.Name)
	assert.Equal(t, model.PoolStatusActive, pools[0].Status)
	assert.Equal(t, model.PoolStatusHalted, pools[1].Status)
	assert.Equal(t, model.PoolStatusRebalancingOnchain, pools[2].Status)
	assert.Equal(t, market.ErrorMarketData(), pools[2].Market)
}

func TestPoolsAllChains(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{subgraph.AllPoolsQuery: `{"pools":[]}`}}
	m := &fakeMarket{}
	pools, err := NewService(q, m, nil).Pools(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.Empty(t, pools)
	assert.NotContains(t, q.calls[0].vars, "chainId")
	assert.Empty(t, m.symbols)
}

func TestPoolsBatchFailureAnnotatesPools(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{
		subgraph.PoolsQuery: `{"pools":[` + poolRecord("0xP1", "xTSLA", "POOL_ACTIVE") + `]}`,
	}}
	m := &fakeMarket{batchErr: market.ErrBatchFetch}

	pools, err := NewService(q, m, nil).Pools(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, market.FetchErrorMessage, pools[0].Market.Error)
}

func TestPoolsSkipsUndecodableRecords(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{
		subgraph.PoolsQuery: `{"pools":[` + poolRecord("0xP1", "xTSLA", "POOL_OPEN") + `,` + poolRecord("0xP2", "xTSLA", "POOL_ACTIVE") + `]}`,
	}}
	pools, err := NewService(q, &fakeMarket{}, nil).Pools(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, "0xp2", pools[0].Address)
}

func TestPoolsPropagatesQueryError(t *testing.T) {
	q := &fakeQuerier{err: &subgraph.GraphQLError{Messages: []string{"boom"}}}
	_, err := NewService(q, &fakeMarket{}, nil).Pools(context.Background(), 1, 10)
	var gqlErr *subgraph.GraphQLError
	require.ErrorAs(t, err, &gqlErr)
}

func TestPool(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{
		subgraph.PoolQuery: `{"pool":` + poolRecord("0xP1", "xTSLA", "POOL_REBALANCING_OFFCHAIN") + `}`,
	}}
	m := &fakeMarket{}
	pool, err := NewService(q, m, nil).Pool(context.Background(), "0xP1")
	require.NoError(t, err)
	assert.Equal(t, "0xp1", q.calls[0].vars["id"])
	assert.Equal(t, []string{"TSLA"}, m.single)
	assert.Equal(t, 42.0, pool.Market.Price)
	assert.Equal(t, model.PoolStatusRebalancingOffchain, pool.Status)
}

func TestPoolNotFound(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{subgraph.PoolQuery: `{"pool":null}`}}
	_, err := NewService(q, &fakeMarket{}, nil).Pool(context.Background(), "0xP1")
	require.ErrorIs(t, err, ErrPoolNotFound)
}

func TestLPDataEmptyAccount(t *testing.T) {
	q := &fakeQuerier{}
	data, err := NewService(q, &fakeMarket{}, nil).LPData(context.Background(), "0xP1", "")
	require.NoError(t, err)
	assert.Equal(t, LPData{}, data)
	assert.Equal(t, 0, q.callCount())
}

func TestLPData(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{
		subgraph.LPDataQuery: `{"lpPositions":[{"id":"p1","lp":"0xabc","liquidityCommitment":"1000000","collateralAmount":"200000","liquidityHealth":"1"}],` +
			`"lpRequests":[{"id":"r1","requestType":"ADD_LIQUIDITY","requestAmount":"5","requestCycle":"7"}]}`,
	}}
	data, err := NewService(q, &fakeMarket{}, nil).LPData(context.Background(), "0xP1", "0xABC")
	require.NoError(t, err)
	assert.True(t, data.IsLP)
	require.NotNil(t, data.Position)
	assert.Equal(t, int64(1000000), data.Position.LiquidityCommitment.Int64())
	assert.Equal(t, model.HealthHealthy, data.Position.LiquidityHealth)
	require.NotNil(t, data.Request)
	assert.Equal(t, uint64(7), data.Request.RequestCycle)
	assert.Equal(t, "0xabc", q.calls[0].vars["lp"])
	assert.Equal(t, "0xp1", q.calls[0].vars["pool"])
}

func TestLPDataNoPosition(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{subgraph.LPDataQuery: `{"lpPositions":[],"lpRequests":[]}`}}
	data, err := NewService(q, &fakeMarket{}, nil).LPData(context.Background(), "0xP1", "0xabc")
	require.NoError(t, err)
	assert.False(t, data.IsLP)
	assert.Nil(t, data.Position)
	assert.Nil(t, data.Request)
}

func TestLPDataDecodeError(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{
		subgraph.LPDataQuery: `{"lpPositions":[{"id":"p1","liquidityCommitment":"abc"}],"lpRequests":[]}`,
	}}
	_, err := NewService(q, &fakeMarket{}, nil).LPData(context.Background(), "0xP1", "0xabc")
	var decodeErr *model.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "liquidityCommitment", decodeErr.Field)
}

func TestUserData(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{
		subgraph.UserDataQuery: `{"userPositions":[{"id":"u1","user":"0xabc","assetAmount":"1000000000000000000","depositAmount":"1000000","collateralAmount":"50000000"}],` +
			`"userRequests":[{"id":"q1","requestType":"DEPOSIT","amount":"10","collateralAmount":"2","requestCycle":"3"}]}`,
	}}
	svc := NewService(q, &fakeMarket{}, nil)

	data, err := svc.UserData(context.Background(), "0xP1", "0xabc")
	require.NoError(t, err)
	assert.True(t, data.HasPosition)
	assert.Equal(t, model.RequestDeposit, data.Request.RequestType)

	empty, err := svc.UserData(context.Background(), "0xP1", "")
	require.NoError(t, err)
	assert.Equal(t, UserData{}, empty)
	assert.Equal(t, 1, q.callCount())
}

func TestPoolWithLP(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{
		subgraph.PoolQuery:   `{"pool":` + poolRecord("0xP1", "xTSLA", "POOL_ACTIVE") + `}`,
		subgraph.LPDataQuery: `{"lpPositions":[],"lpRequests":[]}`,
	}}
	pool, lp, err := NewService(q, &fakeMarket{}, nil).PoolWithLP(context.Background(), "0xP1", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "0xp1", pool.Address)
	assert.False(t, lp.IsLP)
	assert.Equal(t, 2, q.callCount())
}

func TestPoolsLoaderReloadsOnSignal(t *testing.T) {
	q := &fakeQuerier{responses: map[string]string{subgraph.PoolsQuery: `{"pools":[]}`}}
	signal := refresh.NewSignal()
	results := make(chan refresh.Result[PoolsKey, []model.Pool], 4)
	loader := NewService(q, &fakeMarket{}, nil).PoolsLoader(signal, func(r refresh.Result[PoolsKey, []model.Pool]) {
		results <- r
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loader.Run(ctx, PoolsKey{ChainID: 1, Limit: 10})

	select {
	case r := <-results:
		require.NoError(t, r.Err)
	case <-time.After(time.Second):
		t.Fatalf("no initial load")
	}

	signal.Bump()
	select {
	case r := <-results:
		assert.Equal(t, uint64(1), r.Version)
	case <-time.After(time.Second):
		t.Fatalf("no reload after bump")
	}
	assert.Equal(t, 2, q.callCount())
}
