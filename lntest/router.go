package lntest

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Step is a single scripted response of a payment stream.
type Step struct {
	// Update is the payment update returned by Recv.
	Update *lnrpc.Payment

	// Err is the error returned by Recv, if set.
	Err error
}

// MockRouter is a router client that serves scripted payment streams. Only
// SendPaymentV2 is implemented, calls to other methods panic.
type MockRouter struct {
	routerrpc.RouterClient

	mu sync.Mutex

	// SendErr is returned by SendPaymentV2 if set.
	SendErr error

	script   []Step
	requests []*routerrpc.SendPaymentRequest
	streams  []*PaymentStream
}

// NewMockRouter creates a router whose next stream serves the steps
// provided.
func NewMockRouter(steps ...Step) *MockRouter {
	return &MockRouter{
		script: steps,
	}
}

// A compile time check to ensure MockRouter implements the RouterClient
// interface.
var _ routerrpc.RouterClient = (*MockRouter)(nil)

// SendPaymentV2 records the request and returns a stream that serves the
// router's script.
func (m *MockRouter) SendPaymentV2(ctx context.Context,
	in *routerrpc.SendPaymentRequest,
	_ ...grpc.CallOption) (routerrpc.Router_SendPaymentV2Client, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, in)

	if m.SendErr != nil {
		return nil, m.SendErr
	}

	stream := newPaymentStream(ctx, m.script)
	m.streams = append(m.streams, stream)

	return stream, nil
}

// Requests returns the payment requests the router received.
func (m *MockRouter) Requests() []*routerrpc.SendPaymentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*routerrpc.SendPaymentRequest(nil), m.requests...)
}

// Stream returns the i-th stream that the router opened.
func (m *MockRouter) Stream(i int) *PaymentStream {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.streams[i]
}

// PaymentStream is a payment update stream that serves scripted steps, then
// steps sent with Send. Once both are exhausted Recv blocks until the
// stream's context is cancelled.
type PaymentStream struct {
	grpc.ClientStream

	ctx   context.Context
	steps chan Step

	mu       sync.Mutex
	received int
}

// A compile time check to ensure PaymentStream implements the
// Router_SendPaymentV2Client interface.
var _ routerrpc.Router_SendPaymentV2Client = (*PaymentStream)(nil)

func newPaymentStream(ctx context.Context, script []Step) *PaymentStream {
	steps := make(chan Step, len(script)+100)
	for _, step := range script {
		steps <- step
	}

	return &PaymentStream{
		ctx:   ctx,
		steps: steps,
	}
}

// Send queues a step for the stream to serve.
func (p *PaymentStream) Send(step Step) {
	p.steps <- step
}

// Recv returns the next step of the stream.
func (p *PaymentStream) Recv() (*lnrpc.Payment, error) {
	// A cancelled stream fails even if steps remain, as grpc streams do.
	if err := p.ctx.Err(); err != nil {
		return nil, status.Error(codes.Canceled, err.Error())
	}

	select {
	case step := <-p.steps:
		p.mu.Lock()
		p.received++
		p.mu.Unlock()

		return step.Update, step.Err

	case <-p.ctx.Done():
		return nil, status.Error(codes.Canceled, p.ctx.Err().Error())
	}
}

// Context returns the stream's context.
func (p *PaymentStream) Context() context.Context {
	return p.ctx
}

// Released returns a channel that is closed once the stream's context is
// cancelled.
func (p *PaymentStream) Released() <-chan struct{} {
	return p.ctx.Done()
}

// Received returns the number of steps that have been served.
func (p *PaymentStream) Received() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.received
}
