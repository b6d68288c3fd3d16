package view

import (
	"math"
	"math/big"
	"testing"
	"time"

	"poolScope/internal/format"
	"poolScope/internal/metrics"
	"poolScope/internal/model"
	"poolScope/internal/pools"
)

func bigInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad integer %s", s)
	}
	return v
}

func testPool(t *testing.T) model.Pool {
	return model.Pool{
		Address:                   "0xp1",
		Symbol:                    "TSLA",
		AssetToken:                model.Token{Symbol: "xTSLA", Decimals: 18},
		ReserveToken:              model.Token{Symbol: "USDC", Decimals: 6},
		Market:                    model.MarketData{Name: "Tesla", Price: 150, PriceChange: -2.5, Volume: "1M"},
		OraclePrice:               bigInt(t, "145000000000000000000"),
		CurrentCycle:              4,
		Status:                    model.PoolStatusActive,
		LastCycleActionAt:         time.Unix(1000, 0),
		RebalanceLength:           time.Hour,
		TotalLPLiquidityCommitted: big.NewInt(5000000000),
		UtilizationRatio:          bigInt(t, "500000000000000000"),
		InterestRate:              big.NewInt(0),
		AssetSupply:               bigInt(t, "2500000000000000000"),
	}
}

func TestMarket(t *testing.T) {
	v := Market(model.MarketData{Name: "Tesla", Price: 1234.5, PriceChange: 5.26, Volume: "1M"})
	if v.Price != "$1,234.50" || v.Change != "+5.26%" || v.ChangeTone != format.ToneGreen {
		t.Fatalf("unexpected market view: %+v", v)
	}

	v = Market(model.MarketData{PriceChange: math.Inf(1), Volume: "0", Error: "Failed to fetch market data"})
	if v.Change != format.FallbackText || v.ChangeTone != format.ToneNeutral || v.Error == "" {
		t.Fatalf("unusable change should fall back: %+v", v)
	}
}

func TestPool(t *testing.T) {
	row := Pool(testPool(t), time.Unix(1000, 0).Add(30*time.Minute))
	if row.OraclePrice != "$145.00" {
		t.Fatalf("oracle price = %s", row.OraclePrice)
	}
	if row.SqrtPriceX96 != "954033412219440410284097" {
		t.Fatalf("sqrt price = %s", row.SqrtPriceX96)
	}
	unpriced := testPool(t)
	unpriced.OraclePrice = big.NewInt(0)
	if got := Pool(unpriced, time.Now()).SqrtPriceX96; got != "" {
		t.Fatalf("unpriced pool sqrt price = %s", got)
	}
	if row.TotalLiquidity != "5000 USDC" {
		t.Fatalf("total liquidity = %s", row.TotalLiquidity)
	}
	if row.Utilization != "50.00%" || row.InterestRate != "0.00%" {
		t.Fatalf("ratios = %s %s", row.Utilization, row.InterestRate)
	}
	if row.AssetSupply != "2.5 xTSLA" {
		t.Fatalf("asset supply = %s", row.AssetSupply)
	}
	if row.Rebalance != "NOT_READY" || row.Countdown != "30m0s" {
		t.Fatalf("rebalance = %s %s", row.Rebalance, row.Countdown)
	}
	if row.StatusTone != format.ToneGreen || row.Market.ChangeTone != format.ToneRed {
		t.Fatalf("tones = %s %s", row.StatusTone, row.Market.ChangeTone)
	}
	if len(Pools([]model.Pool{testPool(t), testPool(t)}, time.Now())) != 2 {
		t.Fatalf("expected two rows")
	}
}

func TestLP(t *testing.T) {
	pool := testPool(t)
	card := LP(pool, pools.LPData{
		IsLP: true,
		Position: &model.LPPosition{
			LiquidityCommitment: big.NewInt(1000000000),
			CollateralAmount:    big.NewInt(200000000),
			InterestAccrued:     big.NewInt(1250000),
			AssetShare:          big.NewInt(0),
			LiquidityHealth:     model.HealthHealthy,
		},
		Request: &model.LPRequest{RequestType: model.RequestAddLiquidity, RequestAmount: big.NewInt(5000000), RequestCycle: 4},
	})

	if card.Commitment != "1000 USDC" || card.Collateral != "200 USDC" || card.InterestAccrued != "1.25 USDC" {
		t.Fatalf("amounts = %+v", card)
	}
	if card.CollateralRatio != "20.00%" || card.Health != "HEALTHY" || card.HealthTone != format.ToneGreen {
		t.Fatalf("health = %+v", card)
	}
	if !card.Blocked || card.BlockMessage != metrics.ActiveRequestMessage {
		t.Fatalf("block = %v %q", card.Blocked, card.BlockMessage)
	}
	if card.Request == nil || card.Request.Amount != "5 USDC" {
		t.Fatalf("request = %+v", card.Request)
	}

	empty := LP(pool, pools.LPData{})
	if empty.IsLP || empty.Blocked || empty.Commitment != "" || empty.Health != "UNKNOWN" {
		t.Fatalf("empty card = %+v", empty)
	}
}

func TestUser(t *testing.T) {
	pool := testPool(t)
	card := User(pool, pools.UserData{
		HasPosition: true,
		Position: &model.UserPosition{
			AssetAmount:      bigInt(t, "1000000000000000000"),
			DepositAmount:    big.NewInt(1000000),
			CollateralAmount: big.NewInt(50000000),
		},
		Request: &model.UserRequest{RequestType: model.RequestRedeem, Amount: bigInt(t, "500000000000000000"), RequestCycle: 3},
	})

	if card.PositionValue != "$150.00" || card.EntryPrice != "$1.00" || card.PnL != "$149.00" {
		t.Fatalf("values = %+v", card)
	}
	if card.PnLPercentage != "+14900.00%" || card.PnLTone != format.ToneGreen {
		t.Fatalf("pnl = %s %s", card.PnLPercentage, card.PnLTone)
	}
	if card.CollateralRatio != "34.48%" {
		t.Fatalf("collateral ratio = %s", card.CollateralRatio)
	}
	if card.Request == nil || card.Request.Amount != "0.5" || !card.PendingRequest {
		t.Fatalf("request = %+v pending=%v", card.Request, card.PendingRequest)
	}
}
