package paysub

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/carlakc/lnpay/fn"
	"github.com/carlakc/lnpay/routing"
	"github.com/davecgh/go-spew/spew"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
)

// statusInitiated is the status that nodes from 0.18 report for payments
// that have been created but have no attempts in flight yet.
const statusInitiated lnrpc.Payment_PaymentStatus = 4

var (
	// ErrNilUpdate is returned when the node sends an empty update.
	ErrNilUpdate = errors.New("empty payment update")

	// ErrUnknownStatus is returned when the node reports a payment status
	// that can't be classified.
	ErrUnknownStatus = errors.New("unknown payment status")
)

// updateHandler classifies the updates of a payment's stream into events.
type updateHandler struct {
	state      *attemptState
	clock      clock.Clock
	capacities routing.CapacityLookup
}

// handle classifies a payment update, returning the events that it produces
// in the order they should be delivered. Updates received once the payment
// has reached its final outcome produce no events.
func (h *updateHandler) handle(ctx context.Context,
	update *lnrpc.Payment) ([]Event, error) {

	if !h.state.canEmit() {
		log.Debugf("Payment %v: discarding update received after "+
			"final outcome", h.state.id)
		discardedUpdatesTotal.Inc()

		return nil, nil
	}

	if update == nil {
		return nil, ErrNilUpdate
	}

	// Payments sent by payment request pay the request's hash, which only
	// the node knows.
	if update.PaymentHash != "" {
		if err := h.state.setID(update.PaymentHash); err != nil {
			return nil, err
		}
	}

	log.Tracef("Payment %v: received update: %v", h.state.id,
		newLogClosure(func() string {
			return spew.Sdump(update)
		}),
	)

	events, err := h.routingFailures(ctx, update.Htlcs)
	if err != nil {
		return nil, err
	}

	var event Event
	switch update.Status {
	case lnrpc.Payment_IN_FLIGHT, statusInitiated:
		event, err = h.paying(ctx, update)

	case lnrpc.Payment_SUCCEEDED:
		event, err = h.confirmed(ctx, update)

	case lnrpc.Payment_FAILED:
		event, err = h.failed(update)

	default:
		err = fmt.Errorf("%w: %v", ErrUnknownStatus, update.Status)
	}
	if err != nil {
		return nil, err
	}

	return append(events, event), nil
}

// routingFailures produces a routing failure event for every failed attempt
// that has not been reported yet.
func (h *updateHandler) routingFailures(ctx context.Context,
	htlcs []*lnrpc.HTLCAttempt) ([]Event, error) {

	var events []Event
	for _, htlc := range h.state.newFailures(htlcs) {
		rt, err := routing.NewRouteFromRPC(
			ctx, htlc.Route, h.capacities,
		)
		if err != nil {
			return nil, fmt.Errorf("attempt %v: %w",
				htlc.AttemptId, err)
		}

		h.state.lastFailure = fn.Some(rt)

		event := &RoutingFailureEvent{
			Reason: failureReason(lnrpc.Failure_UNKNOWN_FAILURE),
			Route:  rt,
		}

		if failure := htlc.Failure; failure != nil {
			index := failure.FailureSourceIndex

			event.Index = index
			event.Reason = failureReason(failure.Code)
			event.MilliTokens = fn.NonZero(
				lnwire.MilliSatoshi(failure.HtlcMsat),
			)

			if index > 0 && int(index) <= len(rt.Hops) {
				event.PublicKey = fn.Some(
					rt.Hops[index-1].PublicKey,
				)
			}

			if int(index) < len(rt.Hops) {
				event.Channel = fn.Some(rt.Hops[index].Channel)
			}
		}

		log.Debugf("Payment %v: attempt %v failed at hop %v: %v",
			h.state.id, htlc.AttemptId, event.Index, event.Reason)

		events = append(events, event)
	}

	return events, nil
}

// paying produces an event describing the attempts that are in flight.
func (h *updateHandler) paying(ctx context.Context,
	update *lnrpc.Payment) (*PayingEvent, error) {

	paths, err := h.routes(ctx, update.Htlcs, lnrpc.HTLCAttempt_IN_FLIGHT)
	if err != nil {
		return nil, err
	}

	h.state.setInFlight(paths)

	createdAt := h.state.createdAt
	if update.CreationTimeNs > 0 {
		createdAt = time.Unix(0, update.CreationTimeNs)
	}

	event := &PayingEvent{
		CreatedAt:   createdAt,
		Destination: h.state.destination.String(),
		ID:          h.state.id.String(),
		Amount:      totalAmount(paths),
		Paths:       paths,
	}

	if len(paths) > 0 {
		event.Timeout = fn.Some(paths[0].Timeout)
	}

	return event, nil
}

// confirmed produces the final event of a payment that succeeded.
func (h *updateHandler) confirmed(ctx context.Context,
	update *lnrpc.Payment) (*ConfirmedEvent, error) {

	paths, err := h.routes(ctx, update.Htlcs, lnrpc.HTLCAttempt_SUCCEEDED)
	if err != nil {
		return nil, err
	}

	var (
		total = totalAmount(paths)
		fee   = totalFee(paths)
	)

	// Nodes that don't report attempts only report the payment's totals.
	if len(paths) == 0 {
		fee = routing.NewAmount(lnwire.MilliSatoshi(update.FeeMsat))
		total = routing.NewAmount(
			lnwire.MilliSatoshi(update.ValueMsat),
		).Add(fee)
	}

	event := &ConfirmedEvent{
		ConfirmedAt: h.confirmedAt(update.Htlcs),
		Fee:         fee,
		ID:          h.state.id.String(),
		Amount:      total,
		Paths:       paths,
		Secret:      preimage(update),
	}

	if len(paths) > 0 {
		event.Hops = paths[0].Hops
		event.Timeout = paths[0].Timeout
	}

	if err := h.state.resolve(total.MilliSat); err != nil {
		return nil, err
	}

	log.Infof("Payment %v: confirmed, paid %v with fee %v over %v "+
		"paths", h.state.id, total, fee, len(paths))

	return event, nil
}

// failed produces the final event of a payment that failed.
func (h *updateHandler) failed(update *lnrpc.Payment) (*FailedEvent, error) {
	event := failureFlags(update.FailureReason)
	event.Route = h.state.lastFailure

	if count := event.flagCount(); count > 1 {
		log.Errorf("Payment %v: failure reason %v set %v flags",
			h.state.id, update.FailureReason, count)
	}

	if err := h.state.resolve(0); err != nil {
		return nil, err
	}

	log.Infof("Payment %v: failed: %v", h.state.id, update.FailureReason)

	return event, nil
}

// routes converts the routes of all attempts with the status provided.
func (h *updateHandler) routes(ctx context.Context, htlcs []*lnrpc.HTLCAttempt,
	status lnrpc.HTLCAttempt_HTLCStatus) ([]*routing.Route, error) {

	var paths []*routing.Route
	for _, htlc := range htlcs {
		if htlc == nil || htlc.Status != status {
			continue
		}

		rt, err := routing.NewRouteFromRPC(
			ctx, htlc.Route, h.capacities,
		)
		if err != nil {
			return nil, fmt.Errorf("attempt %v: %w",
				htlc.AttemptId, err)
		}

		paths = append(paths, rt)
	}

	return paths, nil
}

// confirmedAt returns the latest resolution time of the attempts that
// settled, or the current time if the node does not report one.
func (h *updateHandler) confirmedAt(htlcs []*lnrpc.HTLCAttempt) time.Time {
	var latest int64
	for _, htlc := range htlcs {
		if htlc == nil || htlc.Status != lnrpc.HTLCAttempt_SUCCEEDED {
			continue
		}

		if htlc.ResolveTimeNs > latest {
			latest = htlc.ResolveTimeNs
		}
	}

	if latest == 0 {
		return h.clock.Now()
	}

	return time.Unix(0, latest)
}

// preimage returns the hex encoded preimage of a settled payment.
func preimage(update *lnrpc.Payment) string {
	if update.PaymentPreimage != "" {
		return update.PaymentPreimage
	}

	for _, htlc := range update.Htlcs {
		if htlc != nil && len(htlc.Preimage) > 0 {
			return hex.EncodeToString(htlc.Preimage)
		}
	}

	return ""
}
