package model

import (
	"fmt"
	"math/big"
	"time"
)

// LPPositionRecord is the raw subgraph LP position.
type LPPositionRecord struct {
	ID                  string `json:"id"`
	LP                  string `json:"lp"`
	LiquidityCommitment string `json:"liquidityCommitment"`
	CollateralAmount    string `json:"collateralAmount"`
	InterestAccrued     string `json:"interestAccrued"`
	LiquidityHealth     Scalar `json:"liquidityHealth"`
	AssetShare          string `json:"assetShare"`
	LastRebalanceCycle  string `json:"lastRebalanceCycle"`
	LastRebalancePrice  string `json:"lastRebalancePrice"`
	CreatedAt           string `json:"createdAt"`
	UpdatedAt           string `json:"updatedAt"`
}

// LPPosition is one LP's stake in a pool. Commitment, collateral and interest
// are in reserve token decimals, AssetShare in asset token decimals and
// LastRebalancePrice in PriceDecimals.
type LPPosition struct {
	ID                  string
	LP                  string
	LiquidityCommitment *big.Int
	CollateralAmount    *big.Int
	InterestAccrued     *big.Int
	LiquidityHealth     LiquidityHealth
	AssetShare          *big.Int
	LastRebalanceCycle  uint64
	LastRebalancePrice  *big.Int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r LPPositionRecord) Decode() (LPPosition, error) {
	d := decoder{entity: "lpPosition", id: r.ID}
	health := d.uint64Field("liquidityHealth", string(r.LiquidityHealth))
	if health > uint64(HealthLiquidatable) {
		d.fail("liquidityHealth", string(r.LiquidityHealth), fmt.Errorf("health code out of range"))
	}
	pos := LPPosition{
		ID:                  r.ID,
		LP:                  r.LP,
		LiquidityCommitment: d.bigInt("liquidityCommitment", r.LiquidityCommitment),
		CollateralAmount:    d.bigInt("collateralAmount", r.CollateralAmount),
		InterestAccrued:     d.bigInt("interestAccrued", r.InterestAccrued),
		LiquidityHealth:     LiquidityHealth(health),
		AssetShare:          d.bigInt("assetShare", r.AssetShare),
		LastRebalanceCycle:  d.uint64Field("lastRebalanceCycle", r.LastRebalanceCycle),
		LastRebalancePrice:  d.bigInt("lastRebalancePrice", r.LastRebalancePrice),
		CreatedAt:           d.unixTime("createdAt", r.CreatedAt),
		UpdatedAt:           d.unixTime("updatedAt", r.UpdatedAt),
	}
	if err := d.err(); err != nil {
		return LPPosition{}, err
	}
	return pos, nil
}

// LPRequestRecord is the raw subgraph LP request.
type LPRequestRecord struct {
	ID            string `json:"id"`
	RequestType   string `json:"requestType"`
	RequestAmount string `json:"requestAmount"`
	RequestCycle  string `json:"requestCycle"`
	Liquidator    string `json:"liquidator"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// LPRequest is the latest action request of an LP. The amount is in reserve
// token decimals.
type LPRequest struct {
	ID            string
	RequestType   RequestType
	RequestAmount *big.Int
	RequestCycle  uint64
	Liquidator    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r LPRequestRecord) Decode() (LPRequest, error) {
	d := decoder{entity: "lpRequest", id: r.ID}
	req := LPRequest{
		ID:            r.ID,
		RequestType:   d.requestType("requestType", r.RequestType),
		RequestAmount: d.bigInt("requestAmount", r.RequestAmount),
		RequestCycle:  d.uint64Field("requestCycle", r.RequestCycle),
		Liquidator:    r.Liquidator,
		CreatedAt:     d.unixTime("createdAt", r.CreatedAt),
		UpdatedAt:     d.unixTime("updatedAt", r.UpdatedAt),
	}
	if err := d.err(); err != nil {
		return LPRequest{}, err
	}
	return req, nil
}

// UserPositionRecord is the raw subgraph depositor position.
type UserPositionRecord struct {
	ID               string `json:"id"`
	User             string `json:"user"`
	AssetAmount      string `json:"assetAmount"`
	DepositAmount    string `json:"depositAmount"`
	CollateralAmount string `json:"collateralAmount"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// UserPosition holds a depositor's asset tokens (asset decimals) and the
// reserve deposited and posted as collateral (reserve decimals).
type UserPosition struct {
	ID               string
	User             string
	AssetAmount      *big.Int
	DepositAmount    *big.Int
	CollateralAmount *big.Int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r UserPositionRecord) Decode() (UserPosition, error) {
	d := decoder{entity: "userPosition", id: r.ID}
	pos := UserPosition{
		ID:               r.ID,
		User:             r.User,
		AssetAmount:      d.bigInt("assetAmount", r.AssetAmount),
		DepositAmount:    d.bigInt("depositAmount", r.DepositAmount),
		CollateralAmount: d.bigInt("collateralAmount", r.CollateralAmount),
		CreatedAt:        d.unixTime("createdAt", r.CreatedAt),
		UpdatedAt:        d.unixTime("updatedAt", r.UpdatedAt),
	}
	if err := d.err(); err != nil {
		return UserPosition{}, err
	}
	return pos, nil
}

// UserRequestRecord is the raw subgraph depositor request.
type UserRequestRecord struct {
	ID               string `json:"id"`
	RequestType      string `json:"requestType"`
	Amount           string `json:"amount"`
	CollateralAmount string `json:"collateralAmount"`
	RequestCycle     string `json:"requestCycle"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// UserRequest is the latest deposit or redeem request of a user.
type UserRequest struct {
	ID               string
	RequestType      RequestType
	Amount           *big.Int
	CollateralAmount *big.Int
	RequestCycle     uint64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r UserRequestRecord) Decode() (UserRequest, error) {
	d := decoder{entity: "userRequest", id: r.ID}
	req := UserRequest{
		ID:               r.ID,
		RequestType:      d.requestType("requestType", r.RequestType),
		Amount:           d.bigInt("amount", r.Amount),
		CollateralAmount: d.bigInt("collateralAmount", r.CollateralAmount),
		RequestCycle:     d.uint64Field("requestCycle", r.RequestCycle),
		CreatedAt:        d.unixTime("createdAt", r.CreatedAt),
		UpdatedAt:        d.unixTime("updatedAt", r.UpdatedAt),
	}
	if err := d.err(); err != nil {
		return UserRequest{}, err
	}
	return req, nil
}
