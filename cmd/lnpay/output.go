package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/carlakc/lnpay/paysub"
	"github.com/carlakc/lnpay/routing"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// eventPrinter writes payment events either as json or, when writing to a
// terminal, as tables.
type eventPrinter struct {
	out    io.Writer
	asJSON bool
}

// newEventPrinter creates a printer for stdout. Json is used unless stdout
// is a terminal.
func newEventPrinter(forceJSON bool) *eventPrinter {
	return &eventPrinter{
		out:    os.Stdout,
		asJSON: forceJSON || !term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (p *eventPrinter) print(event paysub.Event) error {
	if p.asJSON {
		return p.printJSON(event)
	}

	switch e := event.(type) {
	case *paysub.PayingEvent:
		fmt.Fprintf(p.out, "paying %v to %v (id %v)\n", e.Amount,
			e.Destination, e.ID)
		p.printPaths(e.Paths)

	case *paysub.RoutingFailureEvent:
		fmt.Fprintf(p.out, "routing failure: %v at hop %d",
			e.Reason, e.Index)
		e.Channel.WhenSome(func(channel string) {
			fmt.Fprintf(p.out, " (channel %v)", channel)
		})
		fmt.Fprintln(p.out)

	case *paysub.FailedEvent:
		fmt.Fprintf(p.out, "payment failed: insufficient balance=%v "+
			"invalid payment=%v pathfinding timeout=%v "+
			"route not found=%v\n", e.IsInsufficientBalance,
			e.IsInvalidPayment, e.IsPathfindingTimeout,
			e.IsRouteNotFound)

	case *paysub.ConfirmedEvent:
		fmt.Fprintf(p.out, "payment confirmed at %v: sent %v, fee %v, "+
			"preimage %v\n", e.ConfirmedAt, e.Amount, e.Fee,
			e.Secret)
		p.printPaths(e.Paths)

	default:
		return p.printJSON(event)
	}

	return nil
}

// printJSON writes an event as an indented json object keyed by its kind.
func (p *eventPrinter) printJSON(event paysub.Event) error {
	b, err := json.MarshalIndent(map[string]paysub.Event{
		string(event.Kind()): event,
	}, "", "    ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(p.out, string(b))
	return err
}

// printPaths writes one table row per hop of each path.
func (p *eventPrinter) printPaths(paths []*routing.Route) {
	if len(paths) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{
		"Path", "Hop", "Channel", "Public Key", "Forward (msat)",
		"Fee (msat)", "Timeout",
	})

	for i, path := range paths {
		for j, hop := range path.Hops {
			t.AppendRow(table.Row{
				i, j, hop.Channel, hop.PublicKey,
				uint64(hop.Forward.MilliSat),
				uint64(hop.Fee.MilliSat), hop.Timeout,
			})
		}
		t.AppendSeparator()
	}

	t.Render()
}
