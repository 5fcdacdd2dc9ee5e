package paysub

import (
	"time"

	"github.com/carlakc/lnpay/fn"
	"github.com/carlakc/lnpay/routing"
	"github.com/lightningnetwork/lnd/lnwire"
)

// EventKind identifies the type of a payment event.
type EventKind string

const (
	// KindPaying is emitted while the payment has paths in flight.
	KindPaying EventKind = "paying"

	// KindRoutingFailure is emitted for each payment attempt that fails.
	KindRoutingFailure EventKind = "routing_failure"

	// KindFailed is emitted when the payment can make no further
	// progress.
	KindFailed EventKind = "failed"

	// KindConfirmed is emitted when the payment succeeds.
	KindConfirmed EventKind = "confirmed"
)

// Event is a payment lifecycle event.
type Event interface {
	// Kind returns the type of the event.
	Kind() EventKind

	// Terminal returns true if no events follow this one.
	Terminal() bool
}

// PayingEvent reports the paths that a payment currently has in flight.
type PayingEvent struct {
	// CreatedAt is the time the payment was created.
	CreatedAt time.Time

	// Destination is the hex encoded key of the node being paid.
	Destination string

	// ID is the hex encoded payment hash.
	ID string

	// Amount is the total amount in flight, including fees.
	routing.Amount

	// Paths are the routes of the attempts in flight.
	Paths []*routing.Route

	// Timeout is the expiry height of the first path in flight.
	Timeout fn.Option[uint32]
}

// Kind returns the type of the event.
func (p *PayingEvent) Kind() EventKind {
	return KindPaying
}

// Terminal returns false, payments in flight progress further.
func (p *PayingEvent) Terminal() bool {
	return false
}

// RoutingFailureEvent reports a failed payment attempt.
type RoutingFailureEvent struct {
	// Channel is the channel that the failure occurred on, if the
	// failing node was not the destination.
	Channel fn.Option[string]

	// Index is the position in the route of the node that reported the
	// failure, where zero is the sending node.
	Index uint32

	// MilliTokens is the htlc amount reported by the failing node.
	MilliTokens fn.Option[lnwire.MilliSatoshi]

	// PublicKey is the hex encoded key of the failing node, if it was not
	// the sending node.
	PublicKey fn.Option[string]

	// Reason is the failure code reported.
	Reason string

	// Route is the route that the attempt took.
	Route *routing.Route
}

// Kind returns the type of the event.
func (r *RoutingFailureEvent) Kind() EventKind {
	return KindRoutingFailure
}

// Terminal returns false, the payment may still try other routes.
func (r *RoutingFailureEvent) Terminal() bool {
	return false
}

// FailedEvent reports that a payment failed permanently. At most one of the
// reason flags is set, all are false when the node reported a reason that is
// not one of them.
type FailedEvent struct {
	// IsInsufficientBalance is set when the node did not have the
	// outbound liquidity to pay.
	IsInsufficientBalance bool

	// IsInvalidPayment is set when the destination rejected the payment
	// details.
	IsInvalidPayment bool

	// IsPathfindingTimeout is set when the pathfinding timeout elapsed.
	IsPathfindingTimeout bool

	// IsRouteNotFound is set when no route to the destination was found.
	IsRouteNotFound bool

	// Route is the route of the last attempt that failed.
	Route fn.Option[*routing.Route]
}

// Kind returns the type of the event.
func (f *FailedEvent) Kind() EventKind {
	return KindFailed
}

// Terminal returns true.
func (f *FailedEvent) Terminal() bool {
	return true
}

// ConfirmedEvent reports a successful payment.
type ConfirmedEvent struct {
	// ConfirmedAt is the time the payment settled.
	ConfirmedAt time.Time

	// Fee is the total fee paid across all paths.
	Fee routing.Amount

	// Hops are the hops of the first path.
	Hops []routing.Hop

	// ID is the hex encoded payment hash.
	ID string

	// Amount is the total amount paid, including fees.
	routing.Amount

	// Paths are the routes of the attempts that settled.
	Paths []*routing.Route

	// Secret is the hex encoded payment preimage.
	Secret string

	// Timeout is the expiry height of the first path.
	Timeout uint32
}

// Kind returns the type of the event.
func (c *ConfirmedEvent) Kind() EventKind {
	return KindConfirmed
}

// Terminal returns true.
func (c *ConfirmedEvent) Terminal() bool {
	return true
}
