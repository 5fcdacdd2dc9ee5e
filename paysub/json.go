package paysub

import (
	"encoding/json"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/carlakc/lnpay/routing"
	"github.com/lightningnetwork/lnd/lnwire"
)

// Events are encoded with flat amount fields, and values that the node did
// not report are left out rather than encoded as null.

type jsonPaying struct {
	CreatedAt   time.Time           `json:"created_at"`
	Destination string              `json:"destination"`
	ID          string              `json:"id"`
	MilliTokens lnwire.MilliSatoshi `json:"mtokens"`
	Paths       []*routing.Route    `json:"paths"`
	SafeTokens  btcutil.Amount      `json:"safe_tokens"`
	Timeout     *uint32             `json:"timeout,omitempty"`
	Tokens      btcutil.Amount      `json:"tokens"`
}

// MarshalJSON encodes the event.
func (p *PayingEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonPaying{
		CreatedAt:   p.CreatedAt,
		Destination: p.Destination,
		ID:          p.ID,
		MilliTokens: p.MilliSat,
		Paths:       nonNilPaths(p.Paths),
		SafeTokens:  p.SafeSat,
		Timeout:     p.Timeout.UnwrapToPtr(),
		Tokens:      p.Sat,
	})
}

type jsonRoutingFailure struct {
	Channel     *string              `json:"channel,omitempty"`
	Index       uint32               `json:"index"`
	MilliTokens *lnwire.MilliSatoshi `json:"mtokens,omitempty"`
	PublicKey   *string              `json:"public_key,omitempty"`
	Reason      string               `json:"reason"`
	Route       *routing.Route       `json:"route"`
}

// MarshalJSON encodes the event.
func (r *RoutingFailureEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonRoutingFailure{
		Channel:     r.Channel.UnwrapToPtr(),
		Index:       r.Index,
		MilliTokens: r.MilliTokens.UnwrapToPtr(),
		PublicKey:   r.PublicKey.UnwrapToPtr(),
		Reason:      r.Reason,
		Route:       r.Route,
	})
}

type jsonFailed struct {
	IsInsufficientBalance bool           `json:"is_insufficient_balance"`
	IsInvalidPayment      bool           `json:"is_invalid_payment"`
	IsPathfindingTimeout  bool           `json:"is_pathfinding_timeout"`
	IsRouteNotFound       bool           `json:"is_route_not_found"`
	Route                 *routing.Route `json:"route,omitempty"`
}

// MarshalJSON encodes the event.
func (f *FailedEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonFailed{
		IsInsufficientBalance: f.IsInsufficientBalance,
		IsInvalidPayment:      f.IsInvalidPayment,
		IsPathfindingTimeout:  f.IsPathfindingTimeout,
		IsRouteNotFound:       f.IsRouteNotFound,
		Route:                 f.Route.UnwrapOr(nil),
	})
}

type jsonConfirmed struct {
	ConfirmedAt    time.Time           `json:"confirmed_at"`
	Fee            btcutil.Amount      `json:"fee"`
	FeeMilliTokens lnwire.MilliSatoshi `json:"fee_mtokens"`
	Hops           []routing.Hop       `json:"hops"`
	ID             string              `json:"id"`
	MilliTokens    lnwire.MilliSatoshi `json:"mtokens"`
	Paths          []*routing.Route    `json:"paths"`
	SafeFee        btcutil.Amount      `json:"safe_fee"`
	SafeTokens     btcutil.Amount      `json:"safe_tokens"`
	Secret         string              `json:"secret"`
	Timeout        uint32              `json:"timeout"`
	Tokens         btcutil.Amount      `json:"tokens"`
}

// MarshalJSON encodes the event.
func (c *ConfirmedEvent) MarshalJSON() ([]byte, error) {
	hops := c.Hops
	if hops == nil {
		hops = []routing.Hop{}
	}

	return json.Marshal(jsonConfirmed{
		ConfirmedAt:    c.ConfirmedAt,
		Fee:            c.Fee.Sat,
		FeeMilliTokens: c.Fee.MilliSat,
		Hops:           hops,
		ID:             c.ID,
		MilliTokens:    c.MilliSat,
		Paths:          nonNilPaths(c.Paths),
		SafeFee:        c.Fee.SafeSat,
		SafeTokens:     c.SafeSat,
		Secret:         c.Secret,
		Timeout:        c.Timeout,
		Tokens:         c.Sat,
	})
}

// nonNilPaths encodes a payment without paths as an empty list.
func nonNilPaths(paths []*routing.Route) []*routing.Route {
	if paths == nil {
		return []*routing.Route{}
	}

	return paths
}
