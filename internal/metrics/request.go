package metrics

import "poolScope/internal/model"

// Messages shown when an LP already has a request in flight.
const (
	ActiveRequestMessage          = "You already have an active request. You must wait for it to be processed before making a new one."
	ActiveLiquidityRequestMessage = "You have an active liquidity request. You must wait for it to be processed before making a new one."
)

// HasPendingRequest reports whether a depositor request is still pending.
// A request counts as pending once its cycle is at or before the current one.
func HasPendingRequest(req *model.UserRequest, currentCycle uint64) bool {
	if req == nil || req.RequestType == model.RequestNone {
		return false
	}
	return req.RequestCycle <= currentCycle
}

// LPRequestBlock reports whether an LP's latest request blocks a new one and
// the message to show. Any request other than NONE blocks.
func LPRequestBlock(req *model.LPRequest, currentCycle uint64) (bool, string) {
	if req == nil || req.RequestType == model.RequestNone {
		return false, ""
	}
	if req.RequestCycle == currentCycle {
		return true, ActiveRequestMessage
	}
	return true, ActiveLiquidityRequestMessage
}
