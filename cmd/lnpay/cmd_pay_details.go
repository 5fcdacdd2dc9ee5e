package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/carlakc/lnpay/fn"
	"github.com/carlakc/lnpay/payment"
	"github.com/carlakc/lnpay/paysub"
	"github.com/carlakc/lnpay/record"
	"github.com/carlakc/lnpay/routing"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

var payDetailsCommand = cli.Command{
	Name:     "paydetails",
	Category: "Payments",
	Usage:    "Send a payment and follow it until it resolves.",
	Description: `
	Send a payment to a destination, either from its details or from a
	payment request, and print each event of the payment as it
	progresses. The command exits once the payment is confirmed or has
	failed.

	Explicit routes are given as comma separated hops, the first hop is
	the node the route starts at and every later hop is
	<pubkey>@<channel>[:<base fee msat>:<fee rate ppm>:<cltv delta>].`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "dest",
			Usage: "the public key of the node to pay",
		},
		cli.Int64Flag{
			Name:  "amt",
			Usage: "the amount to pay in satoshis",
		},
		cli.Uint64Flag{
			Name:  "amt_msat",
			Usage: "the amount to pay in millisatoshis",
		},
		cli.StringFlag{
			Name:  "pay_req",
			Usage: "a payment request to pay",
		},
		cli.StringFlag{
			Name:  "payment_hash",
			Usage: "the hash to pay, generated if not set",
		},
		cli.StringFlag{
			Name:  "payment_addr",
			Usage: "the payment address of the payment",
		},
		cli.UintFlag{
			Name:  "final_cltv_delta",
			Usage: "the final cltv delta of the payment",
		},
		cli.Int64Flag{
			Name:  "fee_limit",
			Usage: "the maximum fee to pay in satoshis",
		},
		cli.Uint64Flag{
			Name:  "fee_limit_msat",
			Usage: "the maximum fee to pay in millisatoshis",
		},
		cli.UintFlag{
			Name:  "max_parts",
			Usage: "the maximum number of simultaneous paths",
		},
		cli.Uint64Flag{
			Name:  "max_shard_size_msat",
			Usage: "the largest amount a single path may carry",
		},
		cli.UintFlag{
			Name:  "max_timeout_height",
			Usage: "the highest block height the payment may time out at",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "the time to spend finding a route",
		},
		cli.StringSliceFlag{
			Name:  "outgoing_chan_id",
			Usage: "a channel that the payment may leave through",
		},
		cli.StringFlag{
			Name:  "last_hop",
			Usage: "the public key of the final hop to pay through",
		},
		cli.UintFlag{
			Name: "confidence",
			Usage: "the preference for reliable routes over cheap " +
				"routes, out of one million",
		},
		cli.IntSliceFlag{
			Name:  "feature",
			Usage: "a feature bit the destination supports",
		},
		cli.StringSliceFlag{
			Name:  "data",
			Usage: "a custom record to send, as <type>=<hex value>",
		},
		cli.StringSliceFlag{
			Name:  "route",
			Usage: "an explicit route to the destination",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "print events as json even on a terminal",
		},
	},
	Action: actionDecorator(payDetails),
}

func payDetails(ctx *cli.Context) error {
	ctxc := getContext()

	req, err := parsePaymentRequest(ctx)
	if err != nil {
		return err
	}

	node, cfg, cleanUp, err := getNode(ctx, ctxc)
	if err != nil {
		return err
	}
	defer cleanUp()

	sub, err := paysub.PayViaDetails(ctxc, node, req)
	if err != nil {
		return err
	}
	defer sub.Cancel()

	printer := newEventPrinter(ctx.Bool("json"))

	group, groupCtx := errgroup.WithContext(ctxc)
	done := make(chan struct{})

	if cfg.MetricsListen != "" {
		group.Go(func() error {
			return serveMetrics(groupCtx, cfg.MetricsListen, done)
		})
	}

	group.Go(func() error {
		defer close(done)

		return followPayment(groupCtx, sub, printer)
	})

	return group.Wait()
}

// followPayment prints a payment's events until the payment resolves.
func followPayment(ctx context.Context, sub *paysub.Subscription,
	printer *eventPrinter) error {

	for {
		select {
		case event, ok := <-sub.Updates():
			if !ok {
				return subscriptionErr(sub)
			}

			if err := printer.print(event); err != nil {
				return err
			}

			if event.Terminal() {
				return nil
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// subscriptionErr returns the error that ended a subscription without a
// final event.
func subscriptionErr(sub *paysub.Subscription) error {
	select {
	case err := <-sub.Err():
		return err

	default:
		return errors.New("payment subscription cancelled")
	}
}

// parsePaymentRequest builds a payment from the command's flags.
func parsePaymentRequest(ctx *cli.Context) (*payment.Request, error) {
	req := &payment.Request{
		Destination: ctx.String("dest"),
	}

	if ctx.IsSet("amt") {
		req.Tokens = fn.Some(btcutil.Amount(ctx.Int64("amt")))
	}
	if ctx.IsSet("amt_msat") {
		req.MilliTokens = fn.Some(
			lnwire.MilliSatoshi(ctx.Uint64("amt_msat")),
		)
	}
	if ctx.IsSet("pay_req") {
		req.PaymentRequest = fn.Some(ctx.String("pay_req"))
	}
	if ctx.IsSet("payment_hash") {
		req.ID = fn.Some(ctx.String("payment_hash"))
	}
	if ctx.IsSet("payment_addr") {
		req.Payment = fn.Some(ctx.String("payment_addr"))
	}
	if ctx.IsSet("final_cltv_delta") {
		req.CltvDelta = fn.Some(uint16(ctx.Uint("final_cltv_delta")))
	}
	if ctx.IsSet("fee_limit") {
		req.MaxFee = fn.Some(btcutil.Amount(ctx.Int64("fee_limit")))
	}
	if ctx.IsSet("fee_limit_msat") {
		req.MaxFeeMilliTokens = fn.Some(
			lnwire.MilliSatoshi(ctx.Uint64("fee_limit_msat")),
		)
	}
	if ctx.IsSet("max_parts") {
		req.MaxPaths = fn.Some(uint32(ctx.Uint("max_parts")))
	}
	if ctx.IsSet("max_shard_size_msat") {
		req.MaxPathMilliTokens = fn.Some(
			lnwire.MilliSatoshi(ctx.Uint64("max_shard_size_msat")),
		)
	}
	if ctx.IsSet("max_timeout_height") {
		req.MaxTimeoutHeight = fn.Some(
			uint32(ctx.Uint("max_timeout_height")),
		)
	}
	if ctx.IsSet("timeout") {
		req.PathfindingTimeout = fn.Some(ctx.Duration("timeout"))
	}
	if ctx.IsSet("last_hop") {
		req.IncomingPeer = fn.Some(ctx.String("last_hop"))
	}
	if ctx.IsSet("confidence") {
		req.Confidence = fn.Some(uint32(ctx.Uint("confidence")))
	}

	req.OutgoingChannels = ctx.StringSlice("outgoing_chan_id")

	for _, bit := range ctx.IntSlice("feature") {
		req.Features = append(req.Features, lnwire.FeatureBit(bit))
	}

	for _, data := range ctx.StringSlice("data") {
		msg, err := parseData(data)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, msg)
	}

	for _, route := range ctx.StringSlice("route") {
		hints, err := parseRoute(route)
		if err != nil {
			return nil, err
		}
		req.Routes = append(req.Routes, hints)
	}

	return req, nil
}

// parseData parses a custom record given as <type>=<hex value>.
func parseData(data string) (record.Message, error) {
	kv := strings.Split(data, "=")
	if len(kv) != 2 {
		return record.Message{}, fmt.Errorf("invalid data format: "+
			"expected <type>=<hex value>, got %q", data)
	}

	return record.ParseMessage(kv[0], kv[1])
}

// parseRoute parses an explicit route given as comma separated hops.
func parseRoute(route string) (routing.HintRoute, error) {
	var hops routing.HintRoute
	for i, hopStr := range strings.Split(route, ",") {
		if i == 0 {
			hops = append(hops, routing.HintHop{PublicKey: hopStr})
			continue
		}

		hop, err := parseHintHop(hopStr)
		if err != nil {
			return nil, fmt.Errorf("route hop %d: %w", i, err)
		}
		hops = append(hops, hop)
	}

	return hops, nil
}

// parseHintHop parses <pubkey>@<channel>[:<base fee>:<fee rate>:<cltv>].
func parseHintHop(hopStr string) (routing.HintHop, error) {
	keyChannel := strings.SplitN(hopStr, "@", 2)
	if len(keyChannel) != 2 {
		return routing.HintHop{}, fmt.Errorf("expected "+
			"<pubkey>@<channel>, got %q", hopStr)
	}

	fields := strings.Split(keyChannel[1], ":")
	hop := routing.HintHop{
		PublicKey: keyChannel[0],
		Channel:   fn.Some(fields[0]),
	}

	switch len(fields) {
	case 1:
		return hop, nil

	case 4:

	default:
		return routing.HintHop{}, fmt.Errorf("expected channel "+
			"policy <base fee>:<fee rate>:<cltv>, got %q",
			keyChannel[1])
	}

	baseFee, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return routing.HintHop{}, fmt.Errorf("base fee: %w", err)
	}

	feeRate, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return routing.HintHop{}, fmt.Errorf("fee rate: %w", err)
	}

	cltvDelta, err := strconv.ParseUint(fields[3], 10, 16)
	if err != nil {
		return routing.HintHop{}, fmt.Errorf("cltv delta: %w", err)
	}

	hop.BaseFee = fn.Some(lnwire.MilliSatoshi(baseFee))
	hop.FeeRate = fn.Some(uint32(feeRate))
	hop.CltvDelta = fn.Some(uint16(cltvDelta))

	return hop, nil
}
