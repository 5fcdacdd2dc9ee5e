package lntest

import (
	"context"
	"errors"
	"sync"

	"github.com/lightningnetwork/lnd/lnrpc"
	"google.golang.org/grpc"
)

// ErrEdgeNotFound is returned by the mock for unknown channels.
var ErrEdgeNotFound = errors.New("edge not found")

// MockLightning is a lightning client that serves block height and channel
// lookups. Only GetInfo and GetChanInfo are implemented, calls to other
// methods panic.
type MockLightning struct {
	lnrpc.LightningClient

	mu sync.Mutex

	// BlockHeight is the height reported by GetInfo.
	BlockHeight uint32

	// InfoErr is returned by GetInfo if set.
	InfoErr error

	// Capacities are the channel capacities reported by GetChanInfo.
	Capacities map[uint64]int64

	chanInfoCalls int
}

// A compile time check to ensure MockLightning implements the
// LightningClient interface.
var _ lnrpc.LightningClient = (*MockLightning)(nil)

// GetInfo returns the mock's block height.
func (m *MockLightning) GetInfo(_ context.Context, _ *lnrpc.GetInfoRequest,
	_ ...grpc.CallOption) (*lnrpc.GetInfoResponse, error) {

	if m.InfoErr != nil {
		return nil, m.InfoErr
	}

	return &lnrpc.GetInfoResponse{
		BlockHeight: m.BlockHeight,
	}, nil
}

// GetChanInfo returns the capacity of a known channel.
func (m *MockLightning) GetChanInfo(_ context.Context,
	in *lnrpc.ChanInfoRequest,
	_ ...grpc.CallOption) (*lnrpc.ChannelEdge, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.chanInfoCalls++

	capacity, ok := m.Capacities[in.ChanId]
	if !ok {
		return nil, ErrEdgeNotFound
	}

	return &lnrpc.ChannelEdge{
		ChannelId: in.ChanId,
		Capacity:  capacity,
	}, nil
}

// ChanInfoCalls returns the number of channel lookups made.
func (m *MockLightning) ChanInfoCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.chanInfoCalls
}
