package paysub

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/carlakc/lnpay/lnnode"
	"github.com/carlakc/lnpay/payment"
	"github.com/carlakc/lnpay/routing"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/queue"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// eventBufferSize is the number of events buffered for the consumer
	// before the unbounded overflow queue is used.
	eventBufferSize = 10
)

var (
	// ErrPaymentRejected is returned when the node rejects a payment
	// before sending any updates for it.
	ErrPaymentRejected = errors.New("payment rejected by node")

	// ErrNoRouter is returned when a subscription is created without a
	// router client.
	ErrNoRouter = errors.New("router client required")
)

// RejectedError is returned when the node does not accept a payment. It
// matches ErrPaymentRejected and wraps the node's error.
type RejectedError struct {
	// Err is the error that the node returned.
	Err error
}

// Error returns the error string.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPaymentRejected, e.Err)
}

// Is returns true for ErrPaymentRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrPaymentRejected
}

// Unwrap returns the node's error.
func (e *RejectedError) Unwrap() error {
	return e.Err
}

// StreamError is reported when a payment's update stream fails before the
// payment reached its final outcome.
type StreamError struct {
	// Code is the grpc status code of the failure.
	Code codes.Code

	// Err is the underlying error.
	Err error
}

// Error returns the error string.
func (e *StreamError) Error() string {
	return fmt.Sprintf("payment stream failed (%v): %v", e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// Config provides the collaborators that a subscription uses.
type Config struct {
	// Router is used to send the payment.
	Router routerrpc.RouterClient

	// Lightning is used to look up the node's block height. It is only
	// required for payments with a maximum timeout height.
	Lightning lnrpc.LightningClient

	// Capacities looks up channel capacities that the node does not
	// report. Optional.
	Capacities routing.CapacityLookup

	// Clock provides the time. Defaults to the system clock.
	Clock clock.Clock
}

// streamDone is queued when the update stream ends without a final outcome.
type streamDone struct{}

// Subscription delivers the events of a single payment.
type Subscription struct {
	handler *updateHandler
	stream  routerrpc.Router_SendPaymentV2Client
	ctx     context.Context
	cancel  func()

	events  *queue.ConcurrentQueue
	updates chan Event
	errChan chan error

	recvDone   chan struct{}
	quit       chan struct{}
	cancelOnce sync.Once
	wg         sync.WaitGroup
}

// Subscribe sends a payment and returns a subscription to its events. The
// node's first update is read before Subscribe returns, so a payment that
// the node rejects fails with ErrPaymentRejected and produces no events.
func Subscribe(ctx context.Context, cfg *Config,
	req *payment.NormalizedRequest) (*Subscription, error) {

	if cfg.Router == nil {
		return nil, ErrNoRouter
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewDefaultClock()
	}

	height, err := blockHeight(ctx, cfg.Lightning, req)
	if err != nil {
		return nil, err
	}

	sendReq, err := newSendRequest(req, height)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)

	stream, err := cfg.Router.SendPaymentV2(streamCtx, sendReq)
	if err != nil {
		cancel()
		return nil, &RejectedError{Err: err}
	}

	first, err := stream.Recv()
	if err != nil {
		cancel()
		return nil, &RejectedError{Err: err}
	}

	s := &Subscription{
		handler: &updateHandler{
			state: newAttemptState(
				req.ID, req.Destination, clk.Now(),
			),
			clock:      clk,
			capacities: cfg.Capacities,
		},
		stream:   stream,
		ctx:      streamCtx,
		cancel:   cancel,
		events:   queue.NewConcurrentQueue(eventBufferSize),
		updates:  make(chan Event),
		errChan:  make(chan error, 1),
		recvDone: make(chan struct{}),
		quit:     make(chan struct{}),
	}

	log.Infof("Payment %v: sent to %v", req.ID, req.Destination)

	s.events.Start()

	s.wg.Add(2)
	go s.receiveUpdates(first)
	go s.forwardEvents()

	return s, nil
}

// PayViaDetails normalizes a payment and sends it with the node provided.
func PayViaDetails(ctx context.Context, node *lnnode.Node,
	req *payment.Request) (*Subscription, error) {

	normalized, err := payment.Normalize(req, node, rand.Reader)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Router: node.Router(),
	}

	if node.Supports(lnnode.GetInfo) {
		cfg.Lightning = node.Lightning()
	}

	if node.Supports(lnnode.GetChanInfo) {
		cfg.Capacities = routing.NewCapacityManager(node.Lightning())
	}

	return Subscribe(ctx, cfg, normalized)
}

// Updates returns the payment's events. Zero or more paying and routing
// failure events are followed by a single confirmed or failed event, after
// which the channel is closed. The channel is also closed if the stream
// fails or the subscription is cancelled.
func (s *Subscription) Updates() <-chan Event {
	return s.updates
}

// Err returns a channel that receives a *StreamError if the payment's
// stream fails before the payment reaches its final outcome.
func (s *Subscription) Err() <-chan error {
	return s.errChan
}

// Cancel stops the subscription and releases its stream. It is safe to call
// more than once.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.quit)
		s.cancel()
	})

	s.wg.Wait()
}

// receiveUpdates is the only writer of the payment's state. It classifies
// each update, queueing the events produced, until the stream ends. Once the
// payment reaches its final outcome the stream is released, and any updates
// that were already received are discarded.
//
// NOTE: This MUST be run as a goroutine.
func (s *Subscription) receiveUpdates(first *lnrpc.Payment) {
	defer s.wg.Done()
	defer close(s.recvDone)

	update := first
	for {
		events, err := s.handler.handle(s.ctx, update)
		if err != nil {
			s.streamFailed(&StreamError{
				Code: codes.Internal,
				Err:  err,
			})

			return
		}

		for _, event := range events {
			if !s.queueEvent(event) {
				return
			}
		}

		if !s.handler.state.canEmit() {
			s.cancel()
		}

		update, err = s.stream.Recv()
		if err != nil {
			s.recvFailed(err)
			return
		}
	}
}

// recvFailed handles the end of the update stream. Errors after the payment
// reached its final outcome, and cancellation by the caller, are not
// reported.
func (s *Subscription) recvFailed(err error) {
	if !s.handler.state.canEmit() {
		return
	}

	code := status.Code(err)
	if code == codes.Canceled || errors.Is(err, context.Canceled) {
		log.Debugf("Payment %v: subscription cancelled",
			s.handler.state.id)

		s.queueEvent(streamDone{})
		return
	}

	s.streamFailed(&StreamError{
		Code: code,
		Err:  err,
	})
}

// streamFailed reports a stream error to the consumer and ends the
// subscription's events.
func (s *Subscription) streamFailed(err *StreamError) {
	log.Errorf("Payment %v: %v", s.handler.state.id, err)
	streamErrorsTotal.Inc()

	s.cancel()
	s.errChan <- err
	s.queueEvent(streamDone{})
}

// queueEvent adds an item to the event queue, returning false if the
// subscription was cancelled.
func (s *Subscription) queueEvent(item interface{}) bool {
	if event, ok := item.(Event); ok {
		eventsTotal.WithLabelValues(string(event.Kind())).Inc()
	}

	select {
	case s.events.ChanIn() <- item:
		return true

	case <-s.quit:
		return false
	}
}

// forwardEvents delivers queued events to the consumer in order, closing the
// updates channel after the final event.
//
// NOTE: This MUST be run as a goroutine.
func (s *Subscription) forwardEvents() {
	defer s.wg.Done()
	defer func() {
		<-s.recvDone
		s.events.Stop()
	}()
	defer close(s.updates)

	for {
		var item interface{}
		select {
		case i, ok := <-s.events.ChanOut():
			if !ok {
				return
			}
			item = i

		case <-s.quit:
			return
		}

		event, ok := item.(Event)
		if !ok {
			return
		}

		select {
		case s.updates <- event:

		case <-s.quit:
			return
		}

		if event.Terminal() {
			return
		}
	}
}
