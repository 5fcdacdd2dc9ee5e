package paysub

import (
	"strings"
	"testing"
	"time"

	"github.com/carlakc/lnpay/payment"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/routing/route"
	"github.com/stretchr/testify/require"
)

const (
	destKey = "02eec7245d6b7d2ccb30380bfbe2a3648cd7a942653f5aa340edcea1f283686619"
	hopKey  = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

	defaultTimeout = 5 * time.Second
)

var (
	testTime = time.Unix(1_700_000_000, 0)

	testHash = lntypes.Hash{1, 2, 3}
)

// testRequest returns a normalized payment of 1000 sat to destKey.
func testRequest(t *testing.T) *payment.NormalizedRequest {
	t.Helper()

	dest, err := route.NewVertexFromStr(destKey)
	require.NoError(t, err)

	return &payment.NormalizedRequest{
		Destination: dest,
		ID:          testHash,
		CltvDelta:   payment.DefaultCltvDelta,
	}
}

func newTestHandler(t *testing.T) *updateHandler {
	t.Helper()

	dest, err := route.NewVertexFromStr(destKey)
	require.NoError(t, err)

	return &updateHandler{
		state: newAttemptState(testHash, dest, testTime),
		clock: clock.NewTestClock(testTime),
	}
}

// testRoute returns a two hop route to destKey forwarding amt with a fee of
// 1.5 sat charged by the first hop.
func testRoute(chanID uint64, amt int64) *lnrpc.Route {
	return &lnrpc.Route{
		TotalTimeLock: 700_100,
		TotalAmtMsat:  amt + 1_500,
		TotalFeesMsat: 1_500,
		Hops: []*lnrpc.Hop{
			{
				ChanId:           chanID,
				AmtToForwardMsat: amt,
				FeeMsat:          1_500,
				Expiry:           700_060,
				PubKey:           hopKey,
			},
			{
				ChanId:           chanID + 1,
				AmtToForwardMsat: amt,
				Expiry:           700_060,
				PubKey:           destKey,
			},
		},
	}
}

func inFlightHtlc(id uint64, rt *lnrpc.Route) *lnrpc.HTLCAttempt {
	return &lnrpc.HTLCAttempt{
		AttemptId: id,
		Status:    lnrpc.HTLCAttempt_IN_FLIGHT,
		Route:     rt,
	}
}

func failedHtlc(id uint64, rt *lnrpc.Route,
	failure *lnrpc.Failure) *lnrpc.HTLCAttempt {

	return &lnrpc.HTLCAttempt{
		AttemptId: id,
		Status:    lnrpc.HTLCAttempt_FAILED,
		Route:     rt,
		Failure:   failure,
	}
}

func settledHtlc(id uint64, rt *lnrpc.Route,
	resolved time.Time) *lnrpc.HTLCAttempt {

	return &lnrpc.HTLCAttempt{
		AttemptId:     id,
		Status:        lnrpc.HTLCAttempt_SUCCEEDED,
		Route:         rt,
		ResolveTimeNs: resolved.UnixNano(),
		Preimage:      []byte{9, 9},
	}
}

func paymentUpdate(status lnrpc.Payment_PaymentStatus,
	htlcs ...*lnrpc.HTLCAttempt) *lnrpc.Payment {

	return &lnrpc.Payment{
		PaymentHash: testHash.String(),
		Status:      status,
		Htlcs:       htlcs,
	}
}

// collectEvents reads a subscription's events until its updates channel is
// closed.
func collectEvents(t *testing.T, sub *Subscription) []Event {
	t.Helper()

	var (
		events  []Event
		timeout = time.After(defaultTimeout)
	)
	for {
		select {
		case event, ok := <-sub.Updates():
			if !ok {
				return events
			}
			events = append(events, event)

		case <-timeout:
			t.Fatalf("updates not closed, received: %v",
				eventKinds(events))
		}
	}
}

func eventKinds(events []Event) string {
	kinds := make([]string, 0, len(events))
	for _, event := range events {
		kinds = append(kinds, string(event.Kind()))
	}

	return strings.Join(kinds, ",")
}

// requireReleased asserts that a stream's context is cancelled.
func requireReleased(t *testing.T, released <-chan struct{}) {
	t.Helper()

	select {
	case <-released:
	case <-time.After(defaultTimeout):
		t.Fatal("stream not released")
	}
}

// requireNoStreamError asserts that no stream error was reported.
func requireNoStreamError(t *testing.T, sub *Subscription) {
	t.Helper()

	select {
	case err := <-sub.Err():
		t.Fatalf("unexpected stream error: %v", err)
	default:
	}
}
