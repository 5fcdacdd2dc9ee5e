package routing

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/carlakc/lnpay/fn"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
)

var (
	// ErrNoRoute is returned when a route is expected but not present.
	ErrNoRoute = errors.New("route required")

	// ErrEmptyRoute is returned when a route has no hops.
	ErrEmptyRoute = errors.New("route has no hops")

	// ErrInconsistentRoute is returned when a hop forwards more than it
	// receives.
	ErrInconsistentRoute = errors.New("hop forwards more than it " +
		"receives")
)

// Hop is a single hop of a route that a payment attempt took.
type Hop struct {
	// PublicKey is the hex encoded key of the node this hop sends to.
	PublicKey string

	// ChannelID is the numeric id of the channel used by this hop.
	ChannelID uint64

	// Channel is the standard format id of the channel used by this hop.
	Channel string

	// Capacity is the capacity of the channel, if the node reported it or
	// it could be looked up in the graph.
	Capacity fn.Option[btcutil.Amount]

	// Fee is the fee charged by this hop.
	Fee Amount

	// Forward is the amount forwarded by this hop.
	Forward Amount

	// Timeout is the cltv expiry height of the hop.
	Timeout uint32
}

// Route is a route that a payment attempt took, with both exact and rounded
// aggregate amounts.
type Route struct {
	// Hops are the hops of the route, ordered from the first peer to the
	// destination.
	Hops []Hop

	// Total is the amount sent over the route, including fees.
	Total Amount

	// Fee is the total fee paid to the route's hops.
	Fee Amount

	// Timeout is the cltv expiry height of the route.
	Timeout uint32

	// Payment is the hex encoded payment identifier (payment address) sent
	// to the final hop. Nodes before 0.12 don't report it.
	Payment fn.Option[string]

	// TotalMilliSat is the total amount of the multi-path payment this
	// route is a shard of, as sent to the final hop.
	TotalMilliSat fn.Option[lnwire.MilliSatoshi]
}

// CapacityLookup provides channel capacities for routes when the node does
// not report them inline.
type CapacityLookup interface {
	// ChannelCapacity returns the capacity of a channel and a bool
	// indicating whether the capacity is known.
	ChannelCapacity(ctx context.Context, chanID uint64) (btcutil.Amount,
		bool)
}

// NewRouteFromRPC converts a route reported by the node into a Route, filling
// in fees that were not reported from per-hop amount differences. The
// capacity lookup is optional.
func NewRouteFromRPC(ctx context.Context, rpcRoute *lnrpc.Route,
	capacities CapacityLookup) (*Route, error) {

	if rpcRoute == nil {
		return nil, ErrNoRoute
	}

	if len(rpcRoute.Hops) == 0 {
		return nil, ErrEmptyRoute
	}

	total := msatOrSat(rpcRoute.TotalAmtMsat, rpcRoute.TotalAmt)

	route := &Route{
		Hops:    make([]Hop, 0, len(rpcRoute.Hops)),
		Total:   NewAmount(total),
		Timeout: rpcRoute.TotalTimeLock,
	}

	var (
		incoming = total
		hopFees  lnwire.MilliSatoshi
	)
	for i, rpcHop := range rpcRoute.Hops {
		if rpcHop == nil {
			return nil, fmt.Errorf("hop %d: missing", i)
		}

		forward := msatOrSat(rpcHop.AmtToForwardMsat, rpcHop.AmtToForward)

		// The amount a hop keeps is what it receives less what it
		// forwards, which is the reported fee if there is one.
		fee := msatOrSat(rpcHop.FeeMsat, rpcHop.Fee)
		if fee == 0 {
			if forward > incoming {
				return nil, fmt.Errorf("hop %d: %w", i,
					ErrInconsistentRoute)
			}

			fee = incoming - forward
		}

		hop := Hop{
			PublicKey: rpcHop.PubKey,
			ChannelID: rpcHop.ChanId,
			Channel:   FormatChannel(rpcHop.ChanId),
			Capacity:  hopCapacity(ctx, rpcHop, capacities),
			Fee:       NewAmount(fee),
			Forward:   NewAmount(forward),
			Timeout:   rpcHop.Expiry,
		}
		route.Hops = append(route.Hops, hop)

		hopFees += fee
		incoming = forward
	}

	route.Fee = NewAmount(
		fn.NonZero(msatOrSat(rpcRoute.TotalFeesMsat, rpcRoute.TotalFees)).
			UnwrapOr(hopFees),
	)

	// Multi-path records are only present on the final hop, and only on
	// nodes that support reporting them.
	if mpp := rpcRoute.Hops[len(rpcRoute.Hops)-1].MppRecord; mpp != nil {
		if len(mpp.PaymentAddr) != 0 {
			route.Payment = fn.Some(hex.EncodeToString(mpp.PaymentAddr))
		}

		if mpp.TotalAmtMsat > 0 {
			route.TotalMilliSat = fn.Some(
				lnwire.MilliSatoshi(mpp.TotalAmtMsat),
			)
		}
	}

	return route, nil
}

// hopCapacity returns the capacity the node reported for a hop, falling back
// to the capacity lookup.
func hopCapacity(ctx context.Context, hop *lnrpc.Hop,
	capacities CapacityLookup) fn.Option[btcutil.Amount] {

	//nolint:staticcheck
	if hop.ChanCapacity > 0 {
		return fn.Some(btcutil.Amount(hop.ChanCapacity))
	}

	if capacities == nil {
		return fn.None[btcutil.Amount]()
	}

	capacity, ok := capacities.ChannelCapacity(ctx, hop.ChanId)
	if !ok {
		return fn.None[btcutil.Amount]()
	}

	return fn.Some(capacity)
}

// msatOrSat returns the millisatoshi value if set, otherwise the satoshi
// value converted to millisatoshis.
func msatOrSat(mSat, sat int64) lnwire.MilliSatoshi {
	if mSat > 0 {
		return lnwire.MilliSatoshi(mSat)
	}

	if sat > 0 {
		return lnwire.NewMSatFromSatoshis(btcutil.Amount(sat))
	}

	return 0
}
