package pools

import (
	"time"

	"poolScope/internal/model"
)

// RebalanceState is the phase of a pool's rebalance cycle.
type RebalanceState string

const (
	RebalanceNotReady           RebalanceState = "NOT_READY"
	RebalanceReadyForOffchain   RebalanceState = "READY_FOR_OFFCHAIN_REBALANCE"
	RebalanceOffchainInProgress RebalanceState = "OFFCHAIN_REBALANCE_IN_PROGRESS"
	RebalanceReadyForOnchain    RebalanceState = "READY_FOR_ONCHAIN_REBALANCE"
	RebalanceOnchainInProgress  RebalanceState = "ONCHAIN_REBALANCE_IN_PROGRESS"
)

// RebalanceInfo describes where a pool is in its rebalance cycle.
type RebalanceInfo struct {
	State        RebalanceState `json:"state"`
	Countdown    time.Duration  `json:"countdown"`
	NextActionAt time.Time      `json:"nextActionAt"`
}

// CalculateRebalanceState derives the rebalance phase from the last cycle
// action and the rebalance length. Statuses other than active and offchain
// rebalancing are treated as an onchain rebalance in progress.
func CalculateRebalanceState(lastAction time.Time, length time.Duration, status model.PoolStatus, now time.Time) RebalanceInfo {
	next := lastAction.Add(length)
	countdown := next.Sub(now)
	if countdown < 0 {
		countdown = 0
	}
	elapsed := !now.Before(next)

	info := RebalanceInfo{Countdown: countdown, NextActionAt: next}
	switch status {
	case model.PoolStatusActive:
		info.State = RebalanceNotReady
		if elapsed {
			info.State = RebalanceReadyForOffchain
		}
	case model.PoolStatusRebalancingOffchain:
		info.State = RebalanceOffchainInProgress
		if elapsed {
			info.State = RebalanceReadyForOnchain
		}
	default:
		info.State = RebalanceOnchainInProgress
	}
	return info
}

// RebalanceStateOf is CalculateRebalanceState over a decoded pool.
func RebalanceStateOf(pool model.Pool, now time.Time) RebalanceInfo {
	return CalculateRebalanceState(pool.LastCycleActionAt, pool.RebalanceLength, pool.Status, now)
}
