package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/carlakc/lnpay/lncfg"
	"github.com/carlakc/lnpay/lnnode"
	"github.com/carlakc/lnpay/record"
	"github.com/lightningnetwork/lnd/signal"
	"github.com/urfave/cli"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[lnpay] %v\n", err)
	os.Exit(1)
}

// getContext returns a context that is cancelled when the process receives
// an interrupt.
func getContext() context.Context {
	shutdownInterceptor, err := signal.Intercept()
	if err != nil {
		fatal(err)
	}

	ctxc, cancel := context.WithCancel(context.Background())
	go func() {
		<-shutdownInterceptor.ShutdownChannel()
		cancel()
	}()

	return ctxc
}

// actionDecorator is used to add additional information and error handling
// to command actions.
func actionDecorator(f func(*cli.Context) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		err := f(c)
		if err == nil {
			return nil
		}

		s, ok := status.FromError(err)
		if ok && s.Code() == codes.Unimplemented &&
			strings.Contains(s.Message(), "routerrpc") {

			return fmt.Errorf("the node does not serve the router "+
				"sub-server: %w", err)
		}

		return err
	}
}

// loadConfig reads the config file and applies the global flags over it.
func loadConfig(ctx *cli.Context) (*lncfg.Config, error) {
	cfg, err := lncfg.LoadConfig(ctx.GlobalString("configfile"))
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"rpcserver":     &cfg.Node.RPCServer,
		"lnddir":        &cfg.Node.LndDir,
		"network":       &cfg.Node.Network,
		"tlscertpath":   &cfg.Node.TLSCertPath,
		"macaroonpath":  &cfg.Node.MacaroonPath,
		"debuglevel":    &cfg.DebugLevel,
		"logdir":        &cfg.LogDir,
		"metricslisten": &cfg.MetricsListen,
	}
	for name, value := range overrides {
		if ctx.GlobalIsSet(name) {
			*value = ctx.GlobalString(name)
		}
	}

	// Paths derived from the lnd directory or network are derived again
	// unless they were set explicitly.
	if ctx.GlobalIsSet("lnddir") || ctx.GlobalIsSet("network") {
		if !ctx.GlobalIsSet("tlscertpath") {
			cfg.Node.TLSCertPath = ""
		}
		if !ctx.GlobalIsSet("macaroonpath") {
			cfg.Node.MacaroonPath = ""
		}
	}
	cfg.Node.Normalize()
	cfg.LogDir = lncfg.CleanAndExpandPath(cfg.LogDir)

	err = record.SetCustomOverrides(cfg.Protocol.CustomRecordOverrides())
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// getNode loads the config, sets up logging and connects to the node. The
// cleanup function returned closes the connection and the log file.
func getNode(ctx *cli.Context, ctxc context.Context) (*lnnode.Node,
	*lncfg.Config, func(), error) {

	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	closeLogs, err := setupLogging(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	node, err := lnnode.Dial(ctxc, cfg.Node)
	if err != nil {
		closeLogs()
		return nil, nil, nil, err
	}

	cleanUp := func() {
		if err := node.Close(); err != nil {
			log.Errorf("Unable to close connection: %v", err)
		}
		closeLogs()
	}

	return node, cfg, cleanUp, nil
}

func main() {
	app := cli.NewApp()
	app.Name = "lnpay"
	app.Usage = "send payments through lnd and follow their progress"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "configfile",
			Usage: "path to an ini config file",
		},
		cli.StringFlag{
			Name:  "rpcserver",
			Value: lncfg.DefaultRPCServer,
			Usage: "host:port of the node's gRPC interface",
		},
		cli.StringFlag{
			Name:      "lnddir",
			Value:     lncfg.DefaultLndDir,
			Usage:     "path to the node's data directory",
			TakesFile: true,
		},
		cli.StringFlag{
			Name:  "network, n",
			Value: lncfg.DefaultNetwork,
			Usage: "the network the node is running on, used to " +
				"find the default macaroon",
		},
		cli.StringFlag{
			Name:      "tlscertpath",
			Usage:     "path to the node's tls certificate",
			TakesFile: true,
		},
		cli.StringFlag{
			Name:      "macaroonpath",
			Usage:     "path to the macaroon to authenticate with",
			TakesFile: true,
		},
		cli.StringFlag{
			Name:  "debuglevel",
			Value: lncfg.DefaultLogLevel,
			Usage: "logging level for all subsystems, or " +
				"<subsystem>=<level> pairs",
		},
		cli.StringFlag{
			Name:  "logdir",
			Usage: "directory to write rotated logs to",
		},
		cli.StringFlag{
			Name:  "metricslisten",
			Usage: "host:port to serve prometheus metrics on",
		},
	}
	app.Commands = []cli.Command{
		payDetailsCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
