package routing

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/carlakc/lnpay/fn"
	"github.com/lightningnetwork/lnd/lnrpc"
)

// getChanInfoQuery is the function signature used to look up a channel edge
// in the node's graph.
type getChanInfoQuery func(ctx context.Context,
	chanID uint64) (*lnrpc.ChannelEdge, error)

// CapacityManager is an implementation of the CapacityLookup interface which
// uses the graph lookup provided to find channel capacities. Lookups are
// cached for the lifetime of the manager, including lookups that found no
// capacity, so each channel is queried at most once.
type CapacityManager struct {
	getChanInfo getChanInfoQuery

	mu         sync.Mutex
	capacities map[uint64]fn.Option[btcutil.Amount]
}

// A compile time check to ensure CapacityManager implements the
// CapacityLookup interface.
var _ CapacityLookup = (*CapacityManager)(nil)

// NewCapacityManager creates a capacity manager that queries the node's graph
// over the lightning client provided.
func NewCapacityManager(client lnrpc.LightningClient) *CapacityManager {
	return newCapacityManager(func(ctx context.Context,
		chanID uint64) (*lnrpc.ChannelEdge, error) {

		return client.GetChanInfo(ctx, &lnrpc.ChanInfoRequest{
			ChanId: chanID,
		})
	})
}

func newCapacityManager(query getChanInfoQuery) *CapacityManager {
	return &CapacityManager{
		getChanInfo: query,
		capacities:  make(map[uint64]fn.Option[btcutil.Amount]),
	}
}

// ChannelCapacity returns the capacity of a channel and a bool indicating
// whether the channel was found. Channels that are unknown to the graph (for
// example private channels of other nodes, or closed channels) are reported
// as not found.
func (c *CapacityManager) ChannelCapacity(ctx context.Context,
	chanID uint64) (btcutil.Amount, bool) {

	c.mu.Lock()
	defer c.mu.Unlock()

	capacity, ok := c.capacities[chanID]
	if !ok {
		capacity = c.lookup(ctx, chanID)
		c.capacities[chanID] = capacity
	}

	return capacity.UnwrapOr(0), capacity.IsSome()
}

// lookup queries the graph for a channel's capacity.
func (c *CapacityManager) lookup(ctx context.Context,
	chanID uint64) fn.Option[btcutil.Amount] {

	edge, err := c.getChanInfo(ctx, chanID)
	switch {
	case err != nil:
		log.Debugf("Unable to look up capacity of channel %v: %v",
			FormatChannel(chanID), err)

		return fn.None[btcutil.Amount]()

	case edge == nil || edge.Capacity <= 0:
		return fn.None[btcutil.Amount]()
	}

	return fn.Some(btcutil.Amount(edge.Capacity))
}
