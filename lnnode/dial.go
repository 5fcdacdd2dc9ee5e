package lnnode

import (
	"context"
	"fmt"
	"os"

	"github.com/carlakc/lnpay/lncfg"
	"github.com/lightningnetwork/lnd/macaroons"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"gopkg.in/macaroon.v2"
)

const (
	// maxMsgRecvSize is the largest message the client will accept from
	// the node. Payment updates for payments with many attempts grow
	// large.
	maxMsgRecvSize = 50 << 20
)

// Dial opens an authenticated connection to the node described by the config
// and returns a handle that owns it.
func Dial(ctx context.Context, cfg *lncfg.Node) (*Node, error) {
	cfg.Normalize()

	creds, err := credentials.NewClientTLSFromFile(cfg.TLSCertPath, "")
	if err != nil {
		return nil, fmt.Errorf("load tls cert: %w", err)
	}

	mac, err := loadMacaroon(cfg.MacaroonPath)
	if err != nil {
		return nil, err
	}

	macCred, err := macaroons.NewMacaroonCredential(mac)
	if err != nil {
		return nil, fmt.Errorf("macaroon credential: %w", err)
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(macCred),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMsgRecvSize),
		),
	}

	conn, err := grpc.DialContext(ctx, cfg.RPCServer, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCServer, err)
	}

	node, err := NewFromConn(conn, mac)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	node.conn = conn

	log.Infof("Connected to node at %v (send payments: %v)",
		cfg.RPCServer, node.Supports(SendPaymentV2))

	return node, nil
}

func loadMacaroon(path string) (*macaroon.Macaroon, error) {
	macBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read macaroon: %w", err)
	}

	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return nil, fmt.Errorf("decode macaroon: %w", err)
	}

	return mac, nil
}
