package payment

import (
	"fmt"
	"io"

	"github.com/carlakc/lnpay/fn"
	"github.com/carlakc/lnpay/lnnode"
	"github.com/carlakc/lnpay/record"
	"github.com/carlakc/lnpay/routing"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/routing/route"
)

// Normalize validates a payment request and applies defaults. The random
// source is used to generate a payment id when the request has none, and must
// be cryptographically secure outside of tests.
//
// Requests are checked in a fixed order: the destination first, then the
// node's ability to send payments, then the amount.
func Normalize(req *Request, auth lnnode.Authorizer,
	rand io.Reader) (*NormalizedRequest, error) {

	destination, err := parseVertex(req.Destination)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDestination, err)
	}

	if auth == nil || !auth.Supports(lnnode.SendPaymentV2) {
		return nil, ErrUnauthenticated
	}

	amount, err := resolveAmount(req)
	if err != nil {
		return nil, err
	}

	if maxFee := req.MaxFee.UnwrapOr(0); maxFee < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMaxFee, maxFee)
	}

	id, err := resolveID(req.ID, rand)
	if err != nil {
		return nil, err
	}

	normalized := &NormalizedRequest{
		Destination:        destination,
		ID:                 id,
		Amount:             amount,
		PaymentRequest:     req.PaymentRequest,
		CltvDelta:          req.CltvDelta.UnwrapOr(DefaultCltvDelta),
		Features:           req.Features,
		MaxPathAmount:      req.MaxPathMilliTokens,
		MaxPaths:           req.MaxPaths,
		MaxTimeoutHeight:   req.MaxTimeoutHeight,
		PathfindingTimeout: req.PathfindingTimeout,
		MaxFee: req.MaxFeeMilliTokens.Alt(
			fn.MapOption(lnwire.NewMSatFromSatoshis)(req.MaxFee),
		),
	}

	// A zero cltv delta is treated as not set.
	if normalized.CltvDelta == 0 {
		normalized.CltvDelta = DefaultCltvDelta
	}

	if err := normalized.applyConstraints(req); err != nil {
		return nil, err
	}

	return normalized, nil
}

// applyConstraints parses the optional routing constraints of a request.
func (n *NormalizedRequest) applyConstraints(req *Request) error {
	confidence := req.Confidence.UnwrapOr(0)
	if confidence > MaxConfidence {
		return fmt.Errorf("%w: %v", ErrInvalidConfidence, confidence)
	}
	n.Confidence = req.Confidence

	if peer := req.IncomingPeer.UnwrapOr(""); peer != "" {
		vertex, err := parseVertex(peer)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidIncomingPeer, err)
		}
		n.IncomingPeer = fn.Some(vertex)
	}

	channels := req.OutgoingChannels
	req.OutgoingChannel.WhenSome(func(channel string) {
		channels = append([]string{channel}, channels...)
	})

	for _, channel := range channels {
		scid, err := routing.ParseChannel(channel)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOutgoingChannel,
				err)
		}
		n.OutgoingChannels = append(n.OutgoingChannels, scid.ToUint64())
	}

	if payment := req.Payment.UnwrapOr(""); payment != "" {
		addr, err := parseHash(payment)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPaymentAddr, err)
		}
		n.PaymentAddr = fn.Some([32]byte(addr))
	}

	hints, err := routing.NewRouteHints(req.Routes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoutes, err)
	}
	n.RouteHints = hints

	records, err := record.NewCustomSet(req.Messages)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessages, err)
	}
	n.CustomRecords = records

	return nil
}

// resolveAmount returns the amount to pay in millisatoshis, or None when the
// amount comes from a payment request. Zero amounts are not amounts.
func resolveAmount(req *Request) (fn.Option[lnwire.MilliSatoshi], error) {
	var (
		mSat   = req.MilliTokens.UnwrapOr(0)
		tokens = req.Tokens.UnwrapOr(0)
	)

	switch {
	case tokens < 0:
		return fn.None[lnwire.MilliSatoshi](), fmt.Errorf("%w: %v",
			ErrInvalidAmount, tokens)

	case mSat != 0 && tokens != 0:
		if lnwire.NewMSatFromSatoshis(tokens) != mSat {
			return fn.None[lnwire.MilliSatoshi](), fmt.Errorf(
				"%w: %v != %v", ErrAmountMismatch, tokens, mSat,
			)
		}

		return fn.Some(mSat), nil

	case mSat != 0:
		return fn.Some(mSat), nil

	case tokens != 0:
		return fn.Some(lnwire.NewMSatFromSatoshis(tokens)), nil

	case req.PaymentRequest.UnwrapOr("") != "":
		return fn.None[lnwire.MilliSatoshi](), nil

	default:
		return fn.None[lnwire.MilliSatoshi](), ErrMissingAmount
	}
}

// resolveID parses the payment id provided, or generates one from the random
// source.
func resolveID(id fn.Option[string], rand io.Reader) (lntypes.Hash, error) {
	if idStr := id.UnwrapOr(""); idStr != "" {
		hash, err := parseHash(idStr)
		if err != nil {
			return lntypes.Hash{}, fmt.Errorf("%w: %v", ErrInvalidID,
				err)
		}

		return hash, nil
	}

	var hash lntypes.Hash
	if _, err := io.ReadFull(rand, hash[:idLength]); err != nil {
		return lntypes.Hash{}, fmt.Errorf("unable to generate payment "+
			"id: %w", err)
	}

	return hash, nil
}

// parseHash decodes a hex encoded 32 byte value.
func parseHash(str string) (lntypes.Hash, error) {
	return lntypes.MakeHashFromStr(str)
}

// parseVertex decodes a hex encoded compressed public key.
func parseVertex(key string) (route.Vertex, error) {
	pubKey, err := routing.ParseNodeKey(key)
	if err != nil {
		return route.Vertex{}, err
	}

	return route.NewVertex(pubKey), nil
}
