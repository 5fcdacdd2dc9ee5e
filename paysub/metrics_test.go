package paysub

import (
	"context"
	"testing"

	"github.com/carlakc/lnpay/lntest"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TestMetrics tests the counters updated by a subscription. It is not run in
// parallel so that other tests don't update the counters.
func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	require.Error(t, RegisterMetrics(reg))

	var (
		paying    = eventsTotal.WithLabelValues(string(KindPaying))
		confirmed = eventsTotal.WithLabelValues(string(KindConfirmed))

		payingBefore    = testutil.ToFloat64(paying)
		confirmedBefore = testutil.ToFloat64(confirmed)
		errorsBefore    = testutil.ToFloat64(streamErrorsTotal)
		discardedBefore = testutil.ToFloat64(discardedUpdatesTotal)
	)

	rt := testRoute(10, 1000)
	router := lntest.NewMockRouter(
		lntest.Step{Update: paymentUpdate(lnrpc.Payment_IN_FLIGHT)},
		lntest.Step{Update: paymentUpdate(
			lnrpc.Payment_SUCCEEDED, settledHtlc(1, rt, testTime),
		)},
	)

	sub, err := Subscribe(
		context.Background(), testConfig(router), testRequest(t),
	)
	require.NoError(t, err)
	collectEvents(t, sub)
	sub.Cancel()

	require.Equal(t, payingBefore+1, testutil.ToFloat64(paying))
	require.Equal(t, confirmedBefore+1, testutil.ToFloat64(confirmed))

	router = lntest.NewMockRouter(
		lntest.Step{Update: paymentUpdate(lnrpc.Payment_IN_FLIGHT)},
		lntest.Step{Err: status.Error(codes.Internal, "db failure")},
	)

	sub, err = Subscribe(
		context.Background(), testConfig(router), testRequest(t),
	)
	require.NoError(t, err)
	collectEvents(t, sub)
	sub.Cancel()

	require.Equal(t, errorsBefore+1, testutil.ToFloat64(streamErrorsTotal))

	h := newTestHandler(t)
	_, err = h.handle(context.Background(), paymentUpdate(
		lnrpc.Payment_FAILED,
	))
	require.NoError(t, err)
	_, err = h.handle(context.Background(), paymentUpdate(
		lnrpc.Payment_FAILED,
	))
	require.NoError(t, err)

	require.Equal(
		t, discardedBefore+1, testutil.ToFloat64(discardedUpdatesTotal),
	)
}
