package paysub

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/carlakc/lnpay/fn"
	"github.com/carlakc/lnpay/payment"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/routing/route"
)

const (
	// DefaultPathfindingTimeout is the time the node is given to find a
	// route when the payment does not specify one.
	DefaultPathfindingTimeout = time.Minute

	// noFeeLimitMsat is the fee limit used when the payment does not
	// specify one.
	noFeeLimitMsat = math.MaxInt64
)

var (
	// ErrHeightUnavailable is returned when a payment has a maximum
	// timeout height but the node's block height can't be looked up.
	ErrHeightUnavailable = errors.New("block height required for " +
		"maximum timeout height")

	// ErrTimeoutHeightReached is returned when a payment's maximum
	// timeout height is not above the node's current block height.
	ErrTimeoutHeightReached = errors.New("maximum timeout height " +
		"already reached")
)

// blockHeight looks up the node's best block height if the payment needs it
// to express its maximum timeout height.
func blockHeight(ctx context.Context, lightning lnrpc.LightningClient,
	req *payment.NormalizedRequest) (fn.Option[uint32], error) {

	if req.MaxTimeoutHeight.IsNone() {
		return fn.None[uint32](), nil
	}

	if lightning == nil {
		return fn.None[uint32](), ErrHeightUnavailable
	}

	info, err := lightning.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return fn.None[uint32](), fmt.Errorf("%w: %v",
			ErrHeightUnavailable, err)
	}

	return fn.Some(info.BlockHeight), nil
}

// newSendRequest creates the node's payment request for a normalized
// payment. When the payment pays a payment request, the destination, amount
// and hash are taken from it and only the routing constraints are added.
func newSendRequest(req *payment.NormalizedRequest,
	height fn.Option[uint32]) (*routerrpc.SendPaymentRequest, error) {

	sendReq := &routerrpc.SendPaymentRequest{
		TimeoutSeconds:    timeoutSeconds(req.PathfindingTimeout),
		FeeLimitMsat:      feeLimitMsat(req.MaxFee),
		OutgoingChanIds:   req.OutgoingChannels,
		DestCustomRecords: req.CustomRecords,
		AllowSelfPayment:  true,
		MaxParts:          req.MaxPaths.UnwrapOr(0),
		MaxShardSizeMsat: uint64(
			req.MaxPathAmount.UnwrapOr(0),
		),
		TimePref: timePref(req.Confidence),
	}

	req.IncomingPeer.WhenSome(func(peer route.Vertex) {
		sendReq.LastHopPubkey = peer[:]
	})

	cltvLimit, err := cltvLimit(req.MaxTimeoutHeight, height)
	if err != nil {
		return nil, err
	}
	sendReq.CltvLimit = cltvLimit

	if invoice := req.PaymentRequest.UnwrapOr(""); invoice != "" {
		sendReq.PaymentRequest = invoice

		return sendReq, nil
	}

	sendReq.Dest = req.Destination[:]
	sendReq.AmtMsat = int64(req.Amount.UnwrapOr(0))
	sendReq.PaymentHash = req.ID[:]
	sendReq.FinalCltvDelta = int32(req.CltvDelta)
	sendReq.RouteHints = req.RouteHints

	req.PaymentAddr.WhenSome(func(addr [32]byte) {
		sendReq.PaymentAddr = addr[:]
	})

	for _, bit := range req.Features {
		sendReq.DestFeatures = append(
			sendReq.DestFeatures, lnrpc.FeatureBit(bit),
		)
	}

	return sendReq, nil
}

// timeoutSeconds rounds a pathfinding timeout up to whole seconds.
func timeoutSeconds(timeout fn.Option[time.Duration]) int32 {
	t := timeout.UnwrapOr(DefaultPathfindingTimeout)
	if t <= 0 {
		t = DefaultPathfindingTimeout
	}

	return int32((t + time.Second - 1) / time.Second)
}

// feeLimitMsat returns the fee limit for a payment, which has no limit when
// the payment does not specify one.
func feeLimitMsat(maxFee fn.Option[lnwire.MilliSatoshi]) int64 {
	return fn.ElimOption(
		maxFee,
		func() int64 { return noFeeLimitMsat },
		func(fee lnwire.MilliSatoshi) int64 { return int64(fee) },
	)
}

// timePref maps a confidence out of one million onto the node's time
// preference range, where -1 prefers cheap routes and 1 prefers reliable
// routes. No confidence leaves the node's default of zero.
func timePref(confidence fn.Option[uint32]) float64 {
	return fn.ElimOption(
		confidence,
		func() float64 { return 0 },
		func(c uint32) float64 {
			return float64(c)/payment.MaxConfidence*2 - 1
		},
	)
}

// cltvLimit expresses a maximum timeout height relative to the node's block
// height.
func cltvLimit(maxHeight, height fn.Option[uint32]) (int32, error) {
	if maxHeight.IsNone() {
		return 0, nil
	}
	limit := maxHeight.UnwrapOr(0)

	current, err := height.UnwrapOrErr(ErrHeightUnavailable)
	if err != nil {
		return 0, err
	}

	if limit <= current {
		return 0, fmt.Errorf("%w: max height %v, current height %v",
			ErrTimeoutHeightReached, limit, current)
	}

	return int32(limit - current), nil
}
