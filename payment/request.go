package payment

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/carlakc/lnpay/fn"
	"github.com/carlakc/lnpay/record"
	"github.com/carlakc/lnpay/routing"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/routing/route"
)

const (
	// DefaultCltvDelta is the final cltv delta used when a payment does
	// not specify one.
	DefaultCltvDelta = 40

	// MaxConfidence is the confidence value that expresses complete
	// preference for reliable routes.
	MaxConfidence = 1_000_000

	// idLength is the number of random bytes used for a generated payment
	// id.
	idLength = 32
)

// Request describes a payment to a destination, as provided by the caller.
// Only the destination is required, along with either an amount or a payment
// request.
type Request struct {
	// Destination is the hex encoded public key of the node to pay.
	Destination string

	// Tokens is the amount to pay in satoshis.
	Tokens fn.Option[btcutil.Amount]

	// MilliTokens is the amount to pay in millisatoshis.
	MilliTokens fn.Option[lnwire.MilliSatoshi]

	// PaymentRequest is an encoded payment request to pay.
	PaymentRequest fn.Option[string]

	// CltvDelta is the final cltv delta of the payment.
	CltvDelta fn.Option[uint16]

	// Confidence is the preference for reliable routes over cheap routes,
	// out of one million.
	Confidence fn.Option[uint32]

	// Features are the feature bits the destination is known to support.
	Features []lnwire.FeatureBit

	// ID is the hex encoded payment hash.
	ID fn.Option[string]

	// IncomingPeer restricts the payment to pay through this final hop
	// public key.
	IncomingPeer fn.Option[string]

	// MaxFee is the maximum fee to pay, in satoshis.
	MaxFee fn.Option[btcutil.Amount]

	// MaxFeeMilliTokens is the maximum fee to pay, in millisatoshis. It
	// takes precedence over MaxFee.
	MaxFeeMilliTokens fn.Option[lnwire.MilliSatoshi]

	// MaxPathMilliTokens is the largest amount a single path of a multi
	// path payment may carry.
	MaxPathMilliTokens fn.Option[lnwire.MilliSatoshi]

	// MaxPaths is the maximum number of simultaneous paths.
	MaxPaths fn.Option[uint32]

	// MaxTimeoutHeight is the highest block height that the payment's
	// timeout may reach.
	MaxTimeoutHeight fn.Option[uint32]

	// Messages are custom records to send to the destination.
	Messages []record.Message

	// OutgoingChannel restricts the payment to pay out of this channel.
	OutgoingChannel fn.Option[string]

	// OutgoingChannels restricts the payment to pay out of any of these
	// channels.
	OutgoingChannels []string

	// PathfindingTimeout is the time to spend finding a route.
	PathfindingTimeout fn.Option[time.Duration]

	// Payment is the hex encoded payment identifier (payment address).
	Payment fn.Option[string]

	// Routes are explicit routes to the destination.
	Routes []routing.HintRoute
}

// NormalizedRequest is a validated payment with defaults applied and all
// encoded values parsed.
type NormalizedRequest struct {
	// Destination is the node to pay.
	Destination route.Vertex

	// ID is the payment hash.
	ID lntypes.Hash

	// Amount is the amount to pay. It is None when the amount is taken
	// from the payment request.
	Amount fn.Option[lnwire.MilliSatoshi]

	// PaymentRequest is the payment request to pay, if any.
	PaymentRequest fn.Option[string]

	// CltvDelta is the final cltv delta of the payment.
	CltvDelta uint16

	// Confidence is the preference for reliable routes, out of one
	// million.
	Confidence fn.Option[uint32]

	// Features are the feature bits of the destination.
	Features []lnwire.FeatureBit

	// IncomingPeer is the required final hop, if any.
	IncomingPeer fn.Option[route.Vertex]

	// MaxFee is the maximum fee to pay.
	MaxFee fn.Option[lnwire.MilliSatoshi]

	// MaxPathAmount is the maximum amount for a single path.
	MaxPathAmount fn.Option[lnwire.MilliSatoshi]

	// MaxPaths is the maximum number of simultaneous paths.
	MaxPaths fn.Option[uint32]

	// MaxTimeoutHeight is the highest block height of the payment timeout.
	MaxTimeoutHeight fn.Option[uint32]

	// CustomRecords are the custom records sent to the destination.
	CustomRecords record.CustomSet

	// OutgoingChannels are the channels the payment may leave through.
	OutgoingChannels []uint64

	// PathfindingTimeout is the time to spend finding a route.
	PathfindingTimeout fn.Option[time.Duration]

	// PaymentAddr is the payment identifier.
	PaymentAddr fn.Option[[32]byte]

	// RouteHints are the explicit routes converted to route hints.
	RouteHints []*lnrpc.RouteHint
}
