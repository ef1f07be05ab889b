package api

import "github.com/shopspring/decimal"

type CreateCircleRequest struct {
	Name       string   `json:"name" validate:"required,max=100"`
	MemberUIDs []string `json:"memberUids" validate:"dive,required"`
}

type CreateCircleResponse struct {
	Circle *Circle `json:"circle"`
}

type GetCircleRequest struct {
	CircleID string `json:"circleId" validate:"required"`
}

type GetCircleResponse struct {
	Circle *Circle `json:"circle"`
}

type ListCirclesRequest struct{}

type ListCirclesResponse struct {
	Circles []*Circle `json:"circles"`
}

type AddMemberRequest struct {
	CircleID string `json:"circleId" validate:"required"`
	UID      string `json:"uid" validate:"required"`
}

type AddMemberResponse struct {
	Circle *Circle `json:"circle"`
}

type LeaveCircleRequest struct {
	CircleID string `json:"circleId" validate:"required"`
}

type LeaveCircleResponse struct {
	// CircleDeleted is set when the caller was the last member.
	CircleDeleted bool `json:"circleDeleted"`
}

// SyncProfileRequest updates the caller's directory entry. The uid and email come from the
// token.
type SyncProfileRequest struct {
	DisplayName string `json:"displayName" validate:"max=80"`
	PhotoURL    string `json:"photoUrl,omitempty" validate:"omitempty,url"`
	Username    string `json:"username,omitempty" validate:"omitempty,alphanum,max=30"`
}

type SyncProfileResponse struct {
	Profile *Profile `json:"profile"`
}

type GetCircleBalancesRequest struct {
	CircleID string `json:"circleId" validate:"required"`
}

// CircleBalances are the net balances of a circle, the transfers that would settle them, and
// the settlements still waiting on their receiver.
type CircleBalances struct {
	CircleID  string        `json:"circleId"`
	Balances  []Balance     `json:"balances"`
	Transfers []Transfer    `json:"transfers"`
	Pending   []*Settlement `json:"pending"`
}

type GetCircleBalancesResponse struct {
	CircleBalances
}

type RequestSettlementRequest struct {
	CircleID string          `json:"circleId" validate:"required"`
	ToUserID string          `json:"toUserId" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

type RequestSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type RespondToSettlementRequest struct {
	SettlementID string `json:"settlementId" validate:"required"`
	Accept       bool   `json:"accept"`
}

type RespondToSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type WatchCircleRequest struct {
	CircleID string `json:"circleId" validate:"required"`
}

// WatchCircleResponse is one snapshot on the WatchCircle stream.
type WatchCircleResponse struct {
	CircleBalances
}
