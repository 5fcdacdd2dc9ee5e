package paysub

import (
	"errors"
	"fmt"
	"time"

	"github.com/carlakc/lnpay/fn"
	"github.com/carlakc/lnpay/routing"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/routing/route"
)

// errAlreadyTerminal is returned when a payment that already reached a final
// outcome is resolved again.
var errAlreadyTerminal = errors.New("payment already resolved")

// attemptState tracks the progression of a single payment attempt through
// its lifecycle. It is owned by the goroutine that reads the payment's
// update stream.
type attemptState struct {
	// id is the payment hash of the payment we are tracking.
	id lntypes.Hash

	// destination is the node that the payment is paying.
	destination route.Vertex

	// createdAt is the time the payment was started, used when the node
	// does not report a creation time.
	createdAt time.Time

	// paths are the routes of the attempts currently in flight.
	paths []*routing.Route

	// committed is the amount currently in flight, including fees.
	committed lnwire.MilliSatoshi

	// confirmed is the amount that settled, including fees.
	confirmed lnwire.MilliSatoshi

	// failedAttempts is the set of htlc attempt ids that we have already
	// reported as routing failures.
	failedAttempts map[uint64]struct{}

	// lastFailure is the route of the most recent attempt that failed.
	lastFailure fn.Option[*routing.Route]

	// terminal is set once the payment has been confirmed or has failed.
	terminal bool
}

// newAttemptState creates the state for a payment started at the time
// provided.
func newAttemptState(id lntypes.Hash, destination route.Vertex,
	createdAt time.Time) *attemptState {

	return &attemptState{
		id:             id,
		destination:    destination,
		createdAt:      createdAt,
		failedAttempts: make(map[uint64]struct{}),
	}
}

// setID sets the payment hash to the one reported by the node.
func (a *attemptState) setID(paymentHash string) error {
	id, err := lntypes.MakeHashFromStr(paymentHash)
	if err != nil {
		return fmt.Errorf("invalid payment hash %q: %w", paymentHash,
			err)
	}

	if id != a.id {
		log.Debugf("Payment %v: node reports payment hash %v", a.id,
			id)
		a.id = id
	}

	return nil
}

// newFailures returns the failed htlc attempts of an update that we have not
// seen before, marking them as seen. Attempts are returned in the order that
// the node reported them.
func (a *attemptState) newFailures(
	htlcs []*lnrpc.HTLCAttempt) []*lnrpc.HTLCAttempt {

	var failures []*lnrpc.HTLCAttempt
	for _, htlc := range htlcs {
		if htlc == nil || htlc.Status != lnrpc.HTLCAttempt_FAILED {
			continue
		}

		if _, ok := a.failedAttempts[htlc.AttemptId]; ok {
			continue
		}

		a.failedAttempts[htlc.AttemptId] = struct{}{}
		failures = append(failures, htlc)
	}

	return failures
}

// setInFlight replaces the set of paths in flight.
func (a *attemptState) setInFlight(paths []*routing.Route) {
	a.paths = paths
	a.committed = totalAmount(paths).MilliSat
}

// resolve marks the payment as having reached its final outcome, recording
// the amount that settled.
func (a *attemptState) resolve(confirmed lnwire.MilliSatoshi) error {
	if a.terminal {
		return fmt.Errorf("%w: %v", errAlreadyTerminal, a.id)
	}

	a.terminal = true
	a.confirmed = confirmed
	a.paths = nil
	a.committed = 0

	return nil
}

// canEmit returns true if the payment has not yet reached a final outcome,
// and may still emit events.
func (a *attemptState) canEmit() bool {
	return !a.terminal
}

// totalAmount returns the sum of the amounts sent over a set of routes.
func totalAmount(paths []*routing.Route) routing.Amount {
	var total routing.Amount
	for _, path := range paths {
		total = total.Add(path.Total)
	}

	return total
}

// totalFee returns the sum of the fees paid over a set of routes.
func totalFee(paths []*routing.Route) routing.Amount {
	var total routing.Amount
	for _, path := range paths {
		total = total.Add(path.Fee)
	}

	return total
}
