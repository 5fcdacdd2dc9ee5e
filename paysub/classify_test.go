package paysub

import (
	"context"
	"testing"
	"testing/quick"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/carlakc/lnpay/fn"
	"github.com/carlakc/lnpay/routing"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

// TestHandlePaying tests the paying events of payments in flight.
func TestHandlePaying(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newTestHandler(t)

	// Nodes may report a payment in flight before any attempts are made.
	events, err := h.handle(ctx, paymentUpdate(lnrpc.Payment_IN_FLIGHT))
	require.NoError(t, err)
	require.Len(t, events, 1)

	paying, ok := events[0].(*PayingEvent)
	require.True(t, ok)
	require.Equal(t, testTime, paying.CreatedAt)
	require.Equal(t, destKey, paying.Destination)
	require.Equal(t, testHash.String(), paying.ID)
	require.Equal(t, routing.NewAmount(0), paying.Amount)
	require.Empty(t, paying.Paths)
	require.True(t, paying.Timeout.IsNone())

	// Two paths in flight are reported together.
	update := paymentUpdate(
		statusInitiated,
		inFlightHtlc(1, testRoute(10, 500_000)),
		inFlightHtlc(2, testRoute(20, 500_000)),
	)
	update.CreationTimeNs = testTime.Add(time.Second).UnixNano()

	events, err = h.handle(ctx, update)
	require.NoError(t, err)
	require.Len(t, events, 1)

	paying = events[0].(*PayingEvent)
	require.Equal(t, testTime.Add(time.Second), paying.CreatedAt)
	require.Len(t, paying.Paths, 2)
	require.Equal(t, routing.NewAmount(1_003_000), paying.Amount)
	require.EqualValues(t, 1003, paying.Sat)
	require.EqualValues(t, 1003, paying.SafeSat)
	require.Equal(t, fn.Some(uint32(700_100)), paying.Timeout)
	require.Equal(t, routing.NewAmount(1_500), paying.Paths[0].Fee)
	require.EqualValues(t, 1, paying.Paths[0].Fee.Sat)
	require.EqualValues(t, 2, paying.Paths[0].Fee.SafeSat)

	require.Equal(
		t, lnwire.MilliSatoshi(1_003_000), h.state.committed,
	)
}

// TestHandleRoutingFailures tests that each failed attempt is reported once,
// before the status event of the update that first reports it.
func TestHandleRoutingFailures(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		h       = newTestHandler(t)
		failure = &lnrpc.Failure{
			Code:               lnrpc.Failure_TEMPORARY_CHANNEL_FAILURE,
			FailureSourceIndex: 1,
			HtlcMsat:           1_000_000,
		}
		failed = failedHtlc(1, testRoute(10, 1_000_000), failure)
	)

	events, err := h.handle(ctx, paymentUpdate(
		lnrpc.Payment_IN_FLIGHT, failed,
		inFlightHtlc(2, testRoute(20, 1_000_000)),
	))
	require.NoError(t, err)
	require.Equal(t, "routing_failure,paying", eventKinds(events))

	routingFailure := events[0].(*RoutingFailureEvent)
	require.EqualValues(t, 1, routingFailure.Index)
	require.Equal(t, "TemporaryChannelFailure", routingFailure.Reason)
	require.Equal(t, fn.Some(hopKey), routingFailure.PublicKey)
	require.Equal(
		t, fn.Some(routing.FormatChannel(11)), routingFailure.Channel,
	)
	require.Equal(
		t, fn.Some(lnwire.MilliSatoshi(1_000_000)),
		routingFailure.MilliTokens,
	)
	require.Equal(
		t, routing.NewAmount(1_001_500), routingFailure.Route.Total,
	)

	// The same failure reported again is not repeated.
	events, err = h.handle(ctx, paymentUpdate(
		lnrpc.Payment_IN_FLIGHT, failed,
		inFlightHtlc(2, testRoute(20, 1_000_000)),
	))
	require.NoError(t, err)
	require.Equal(t, "paying", eventKinds(events))

	// A final failure reports the route of the last failed attempt.
	update := paymentUpdate(
		lnrpc.Payment_FAILED, failed,
		failedHtlc(2, testRoute(20, 1_000_000), nil),
	)
	update.FailureReason = lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE

	events, err = h.handle(ctx, update)
	require.NoError(t, err)
	require.Equal(t, "routing_failure,failed", eventKinds(events))

	unknown := events[0].(*RoutingFailureEvent)
	require.Equal(t, "UnknownFailure", unknown.Reason)
	require.Zero(t, unknown.Index)
	require.True(t, unknown.PublicKey.IsNone())
	require.True(t, unknown.MilliTokens.IsNone())

	failedEvent := events[1].(*FailedEvent)
	require.True(t, failedEvent.IsRouteNotFound)
	require.Equal(t, fn.Some(unknown.Route), failedEvent.Route)
}

// TestRoutingFailurePosition tests the channel and key reported for failures
// at each position of a route.
func TestRoutingFailurePosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		index     uint32
		channel   fn.Option[string]
		publicKey fn.Option[string]
	}{
		{
			name:      "sender",
			index:     0,
			channel:   fn.Some(routing.FormatChannel(10)),
			publicKey: fn.None[string](),
		},
		{
			name:      "intermediate",
			index:     1,
			channel:   fn.Some(routing.FormatChannel(11)),
			publicKey: fn.Some(hopKey),
		},
		{
			name:      "destination",
			index:     2,
			channel:   fn.None[string](),
			publicKey: fn.Some(destKey),
		},
		{
			name:      "out of range",
			index:     5,
			channel:   fn.None[string](),
			publicKey: fn.None[string](),
		},
	}

	for _, testCase := range tests {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandler(t)
			events, err := h.handle(
				context.Background(), paymentUpdate(
					lnrpc.Payment_IN_FLIGHT, failedHtlc(
						1, testRoute(10, 1000),
						&lnrpc.Failure{
							Code: lnrpc.Failure_INCORRECT_OR_UNKNOWN_PAYMENT_DETAILS,
							FailureSourceIndex: testCase.index,
						},
					),
				),
			)
			require.NoError(t, err)
			require.Equal(
				t, "routing_failure,paying",
				eventKinds(events),
			)

			event := events[0].(*RoutingFailureEvent)
			require.Equal(t, testCase.index, event.Index)
			require.Equal(t, testCase.channel, event.Channel)
			require.Equal(t, testCase.publicKey, event.PublicKey)
		})
	}
}

// TestHandleFailed tests classification of final payment failures.
func TestHandleFailed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reason   lnrpc.PaymentFailureReason
		expected *FailedEvent
	}{
		{
			reason:   lnrpc.PaymentFailureReason_FAILURE_REASON_NONE,
			expected: &FailedEvent{},
		},
		{
			reason: lnrpc.PaymentFailureReason_FAILURE_REASON_TIMEOUT,
			expected: &FailedEvent{
				IsPathfindingTimeout: true,
			},
		},
		{
			reason: lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE,
			expected: &FailedEvent{
				IsRouteNotFound: true,
			},
		},
		{
			reason:   lnrpc.PaymentFailureReason_FAILURE_REASON_ERROR,
			expected: &FailedEvent{},
		},
		{
			reason: lnrpc.PaymentFailureReason_FAILURE_REASON_INCORRECT_PAYMENT_DETAILS,
			expected: &FailedEvent{
				IsInvalidPayment: true,
			},
		},
		{
			reason: lnrpc.PaymentFailureReason_FAILURE_REASON_INSUFFICIENT_BALANCE,
			expected: &FailedEvent{
				IsInsufficientBalance: true,
			},
		},
		{
			// Reasons added by later versions set no flags.
			reason:   lnrpc.PaymentFailureReason(6),
			expected: &FailedEvent{},
		},
	}

	for _, testCase := range tests {
		testCase := testCase

		t.Run(testCase.reason.String(), func(t *testing.T) {
			t.Parallel()

			h := newTestHandler(t)
			update := paymentUpdate(lnrpc.Payment_FAILED)
			update.FailureReason = testCase.reason

			events, err := h.handle(context.Background(), update)
			require.NoError(t, err)
			require.Equal(t, "failed", eventKinds(events))

			event := events[0].(*FailedEvent)
			require.Equal(t, testCase.expected, event)
			require.LessOrEqual(t, event.flagCount(), 1)
			require.False(t, h.state.canEmit())
		})
	}
}

// TestHandleConfirmed tests the totals of a multi-path payment that
// succeeded.
func TestHandleConfirmed(t *testing.T) {
	t.Parallel()

	var (
		h       = newTestHandler(t)
		route1  = testRoute(10, 400_000)
		route2  = testRoute(20, 600_000)
		settled = testTime.Add(time.Minute)
	)

	update := paymentUpdate(
		lnrpc.Payment_SUCCEEDED,
		failedHtlc(1, testRoute(30, 1_000_000), nil),
		settledHtlc(2, route1, testTime.Add(time.Second)),
		settledHtlc(3, route2, settled),
	)
	update.PaymentPreimage = "0909"

	events, err := h.handle(context.Background(), update)
	require.NoError(t, err)
	require.Equal(t, "routing_failure,confirmed", eventKinds(events))

	confirmed := events[1].(*ConfirmedEvent)
	require.Equal(t, settled, confirmed.ConfirmedAt)
	require.Equal(t, routing.NewAmount(1_003_000), confirmed.Amount)
	require.Equal(t, routing.NewAmount(3_000), confirmed.Fee)
	require.EqualValues(t, 3, confirmed.Fee.Sat)
	require.Len(t, confirmed.Paths, 2)
	require.Equal(t, confirmed.Paths[0].Hops, confirmed.Hops)
	require.EqualValues(t, 700_100, confirmed.Timeout)
	require.Equal(t, "0909", confirmed.Secret)
	require.Equal(t, testHash.String(), confirmed.ID)

	require.False(t, h.state.canEmit())
	require.Equal(t, lnwire.MilliSatoshi(1_003_000), h.state.confirmed)
}

// TestHandleConfirmedTotalsOnly tests payments from nodes that only report
// payment totals.
func TestHandleConfirmedTotalsOnly(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	update := paymentUpdate(lnrpc.Payment_SUCCEEDED)
	update.ValueMsat = 10_000
	update.FeeMsat = 1_001

	events, err := h.handle(context.Background(), update)
	require.NoError(t, err)

	confirmed := events[0].(*ConfirmedEvent)
	require.Equal(t, testTime, confirmed.ConfirmedAt)
	require.Equal(t, routing.NewAmount(11_001), confirmed.Amount)
	require.Equal(t, routing.NewAmount(1_001), confirmed.Fee)
	require.EqualValues(t, 1, confirmed.Fee.Sat)
	require.EqualValues(t, 2, confirmed.Fee.SafeSat)
	require.Empty(t, confirmed.Hops)

	// The preimage falls back to the one reported by a settled attempt.
	require.Empty(t, confirmed.Secret)
	require.Equal(t, "0909", preimage(paymentUpdate(
		lnrpc.Payment_SUCCEEDED,
		settledHtlc(1, testRoute(1, 1), testTime),
	)))
}

// TestHandleAfterTerminal tests that updates after a final outcome produce
// no events.
func TestHandleAfterTerminal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newTestHandler(t)

	events, err := h.handle(ctx, paymentUpdate(lnrpc.Payment_FAILED))
	require.NoError(t, err)
	require.Len(t, events, 1)

	for _, status := range []lnrpc.Payment_PaymentStatus{
		lnrpc.Payment_IN_FLIGHT, lnrpc.Payment_SUCCEEDED,
		lnrpc.Payment_FAILED, lnrpc.Payment_UNKNOWN,
	} {
		events, err := h.handle(ctx, paymentUpdate(
			status, failedHtlc(9, testRoute(1, 1000), nil),
		))
		require.NoError(t, err)
		require.Empty(t, events)
	}

	events, err = h.handle(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, events)

	require.ErrorIs(t, h.state.resolve(0), errAlreadyTerminal)
}

// TestHandleUnclassifiable tests updates that can't be classified.
func TestHandleUnclassifiable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := newTestHandler(t).handle(ctx, nil)
	require.ErrorIs(t, err, ErrNilUpdate)

	_, err = newTestHandler(t).handle(
		ctx, paymentUpdate(lnrpc.Payment_UNKNOWN),
	)
	require.ErrorIs(t, err, ErrUnknownStatus)

	_, err = newTestHandler(t).handle(
		ctx, paymentUpdate(lnrpc.Payment_PaymentStatus(99)),
	)
	require.ErrorIs(t, err, ErrUnknownStatus)

	_, err = newTestHandler(t).handle(ctx, paymentUpdate(
		lnrpc.Payment_IN_FLIGHT, inFlightHtlc(1, nil),
	))
	require.ErrorIs(t, err, routing.ErrNoRoute)
}

// TestHandleAmountRoundings tests that every amount of a paying event holds
// both of its satoshi roundings.
func TestHandleAmountRoundings(t *testing.T) {
	t.Parallel()

	roundingsHold := func(amt routing.Amount) bool {
		floor := btcutil.Amount(amt.MilliSat / 1000)
		ceil := btcutil.Amount((amt.MilliSat + 999) / 1000)

		return amt.Sat == floor && amt.SafeSat == ceil
	}

	f := func(amounts []uint32) bool {
		h := newTestHandler(t)

		htlcs := make([]*lnrpc.HTLCAttempt, 0, len(amounts))
		var total lnwire.MilliSatoshi
		for i, amt := range amounts {
			amt := int64(amt) + 1
			htlcs = append(htlcs, inFlightHtlc(
				uint64(i), testRoute(uint64(i*2+1), amt),
			))
			total += lnwire.MilliSatoshi(amt + 1_500)
		}

		events, err := h.handle(
			context.Background(),
			paymentUpdate(lnrpc.Payment_IN_FLIGHT, htlcs...),
		)
		if err != nil || len(events) != 1 {
			return false
		}

		paying := events[0].(*PayingEvent)
		if paying.MilliSat != total || !roundingsHold(paying.Amount) {
			return false
		}

		for _, path := range paying.Paths {
			if !roundingsHold(path.Total) ||
				!roundingsHold(path.Fee) {

				return false
			}

			for _, hop := range path.Hops {
				if !roundingsHold(hop.Fee) ||
					!roundingsHold(hop.Forward) {

					return false
				}
			}
		}

		return true
	}

	require.NoError(t, quick.Check(f, nil))
}

// TestFailureReason tests naming of failure codes.
func TestFailureReason(t *testing.T) {
	t.Parallel()

	require.Equal(t, "UnknownNextPeer",
		failureReason(lnrpc.Failure_UNKNOWN_NEXT_PEER))
	require.Equal(t, "MppTimeout", failureReason(lnrpc.Failure_MPP_TIMEOUT))
	require.Equal(t, "FeeInsufficient",
		failureReason(lnrpc.Failure_FEE_INSUFFICIENT))

	// Codes without a name are reported by number.
	require.Equal(t, "1234", failureReason(lnrpc.Failure_FailureCode(1234)))

	require.Equal(t, "InvalidOnionBlinding",
		camelCase("INVALID_ONION_BLINDING"))
}
