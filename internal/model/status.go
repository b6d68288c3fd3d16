package model

import (
	"fmt"
	"strings"
)

// CycleState is the on-chain cycle state vocabulary.
type CycleState string

const (
	CycleStateActive              CycleState = "POOL_ACTIVE"
	CycleStateRebalancingOffchain CycleState = "POOL_REBALANCING_OFFCHAIN"
	CycleStateRebalancingOnchain  CycleState = "POOL_REBALANCING_ONCHAIN"
	CycleStateHalted              CycleState = "POOL_HALTED"
)

// numeric order of the cycle manager enum
var cycleStateByIndex = []CycleState{
	CycleStateActive,
	CycleStateRebalancingOffchain,
	CycleStateRebalancingOnchain,
	CycleStateHalted,
}

// PoolStatus is the display label of a cycle state.
type PoolStatus string

const (
	PoolStatusActive              PoolStatus = "ACTIVE"
	PoolStatusRebalancingOffchain PoolStatus = "REBALANCING OFFCHAIN"
	PoolStatusRebalancingOnchain  PoolStatus = "REBALANCING ONCHAIN"
	PoolStatusHalted              PoolStatus = "HALTED"
)

var statusByCycleState = map[CycleState]PoolStatus{
	CycleStateActive:              PoolStatusActive,
	CycleStateRebalancingOffchain: PoolStatusRebalancingOffchain,
	CycleStateRebalancingOnchain:  PoolStatusRebalancingOnchain,
	CycleStateHalted:              PoolStatusHalted,
}

// ParseCycleState accepts either the enum name or its numeric index.
func ParseCycleState(value string) (CycleState, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("missing cycle state")
	}
	if len(value) == 1 && value[0] >= '0' && value[0] <= '9' {
		idx := int(value[0] - '0')
		if idx < len(cycleStateByIndex) {
			return cycleStateByIndex[idx], nil
		}
		return "", fmt.Errorf("unknown cycle state index %d", idx)
	}
	state := CycleState(strings.ToUpper(value))
	if _, ok := statusByCycleState[state]; !ok {
		return "", fmt.Errorf("unknown cycle state %s", value)
	}
	return state, nil
}

// Status maps the cycle state to its display label.
func (s CycleState) Status() PoolStatus {
	if status, ok := statusByCycleState[s]; ok {
		return status
	}
	return PoolStatus(s)
}

// RequestType is the kind of a pending LP or user request.
type RequestType string

const (
	RequestNone            RequestType = "NONE"
	RequestAddLiquidity    RequestType = "ADD_LIQUIDITY"
	RequestReduceLiquidity RequestType = "REDUCE_LIQUIDITY"
	RequestLiquidate       RequestType = "LIQUIDATE"
	RequestDeposit         RequestType = "DEPOSIT"
	RequestRedeem          RequestType = "REDEEM"
)

// ParseRequestType validates a request type. Empty values are NONE.
func ParseRequestType(value string) (RequestType, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return RequestNone, nil
	}
	switch rt := RequestType(value); rt {
	case RequestNone, RequestAddLiquidity, RequestReduceLiquidity, RequestLiquidate, RequestDeposit, RequestRedeem:
		return rt, nil
	default:
		return RequestNone, fmt.Errorf("unknown request type %s", value)
	}
}

// LiquidityHealth is the LP health code reported by the liquidity manager.
type LiquidityHealth uint8

const (
	HealthUnknown LiquidityHealth = iota
	HealthHealthy
	HealthWarning
	HealthLiquidatable
)

func (h LiquidityHealth) String() string {
	switch h {
	case HealthHealthy:
		return "HEALTHY"
	case HealthWarning:
		return "WARNING"
	case HealthLiquidatable:
		return "LIQUIDATABLE"
	default:
		return "UNKNOWN"
	}
}
