package routing

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/carlakc/lnpay/fn"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
)

const (
	// DefaultHintCltvDelta is the cltv delta used for a hint hop that
	// does not specify one.
	DefaultHintCltvDelta = 40
)

var (
	// ErrInsufficientHintHops is returned when an explicit route does not
	// have enough hops to describe a single channel.
	ErrInsufficientHintHops = errors.New("route hint requires at least " +
		"two hops")

	// ErrNoHintChannel is returned when a hop after the first hop of an
	// explicit route does not name the channel to reach it.
	ErrNoHintChannel = errors.New("route hint hop requires a channel")
)

// HintHop is a hop in an explicit route to the destination. The first hop of
// a route only identifies the node the route starts at, every later hop
// describes the channel that leads to it and that channel's policy.
type HintHop struct {
	// PublicKey is the hex encoded key of the node reached by this hop.
	PublicKey string

	// Channel is the standard format id of the channel leading to this
	// hop.
	Channel fn.Option[string]

	// BaseFee is the base fee of the channel leading to this hop.
	BaseFee fn.Option[lnwire.MilliSatoshi]

	// FeeRate is the proportional fee of the channel, in millionths.
	FeeRate fn.Option[uint32]

	// CltvDelta is the cltv delta of the channel.
	CltvDelta fn.Option[uint16]
}

// HintRoute is an explicit route, ordered from the node that the route starts
// at to the destination.
type HintRoute []HintHop

// Validate performs validation on an explicit route.
func (r HintRoute) Validate() error {
	if len(r) < 2 {
		return fmt.Errorf("%w got: %v", ErrInsufficientHintHops,
			len(r))
	}

	for i, hop := range r {
		if _, err := ParseNodeKey(hop.PublicKey); err != nil {
			return fmt.Errorf("hop %d: %w", i, err)
		}

		// The first hop is only the start of the route.
		if i == 0 {
			continue
		}

		channel, err := hop.Channel.UnwrapOrErr(ErrNoHintChannel)
		if err != nil {
			return fmt.Errorf("hop %d: %w", i, err)
		}

		if _, err := ParseChannel(channel); err != nil {
			return fmt.Errorf("hop %d: %w", i, err)
		}
	}

	return nil
}

// RouteHint converts the explicit route into the route hint format that the
// node's pathfinding understands. Each hint hop is keyed by the node that
// the channel starts at, which is the previous hop of the route.
func (r HintRoute) RouteHint() (*lnrpc.RouteHint, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	hint := &lnrpc.RouteHint{
		HopHints: make([]*lnrpc.HopHint, 0, len(r)-1),
	}

	for i := 1; i < len(r); i++ {
		from, err := ParseNodeKey(r[i-1].PublicKey)
		if err != nil {
			return nil, err
		}

		// Validated above.
		scid, err := ParseChannel(r[i].Channel.UnwrapOr(""))
		if err != nil {
			return nil, err
		}

		hint.HopHints = append(hint.HopHints, &lnrpc.HopHint{
			NodeId:      hexKey(from),
			ChanId:      scid.ToUint64(),
			FeeBaseMsat: uint32(r[i].BaseFee.UnwrapOr(0)),
			FeeProportionalMillionths: r[i].FeeRate.UnwrapOr(0),
			CltvExpiryDelta: uint32(
				r[i].CltvDelta.UnwrapOr(DefaultHintCltvDelta),
			),
		})
	}

	return hint, nil
}

// NewRouteHints converts a set of explicit routes into route hints.
func NewRouteHints(routes []HintRoute) ([]*lnrpc.RouteHint, error) {
	if len(routes) == 0 {
		return nil, nil
	}

	hints := make([]*lnrpc.RouteHint, 0, len(routes))
	for i, route := range routes {
		hint, err := route.RouteHint()
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}

		hints = append(hints, hint)
	}

	return hints, nil
}

// hexKey returns the lower case hex encoding of a compressed public key.
func hexKey(pubKey *btcec.PublicKey) string {
	return hex.EncodeToString(pubKey.SerializeCompressed())
}
