package lncfg

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

const (
	// DefaultRPCPort is the default port that lnd serves gRPC on.
	DefaultRPCPort = "10009"

	// DefaultRPCServer is the default address of the node we dispatch
	// payments through.
	DefaultRPCServer = "localhost:" + DefaultRPCPort

	// DefaultNetwork is the network used to locate the default macaroon.
	DefaultNetwork = "mainnet"

	defaultTLSCertFilename  = "tls.cert"
	defaultMacaroonFilename = "admin.macaroon"
)

var (
	// DefaultLndDir is the default data directory of lnd.
	DefaultLndDir = defaultLndDir()
)

// Node houses the options needed to open an authenticated connection to an
// lnd node.
type Node struct {
	// RPCServer is the host:port of the node's gRPC interface.
	RPCServer string `long:"rpcserver" description:"The host:port of the node's gRPC interface"`

	// LndDir is the node's data directory, used to derive default tls
	// certificate and macaroon paths.
	LndDir string `long:"lnddir" description:"The path to the node's data directory"`

	// Network is the chain network the node runs on.
	Network string `long:"network" description:"The network the node is running on" choice:"mainnet" choice:"testnet" choice:"regtest" choice:"simnet" choice:"signet"`

	// TLSCertPath is the path to the node's tls certificate. If empty it
	// is derived from LndDir.
	TLSCertPath string `long:"tlscertpath" description:"The path to the node's tls certificate"`

	// MacaroonPath is the path to the macaroon used to authenticate. If
	// empty it is derived from LndDir and Network.
	MacaroonPath string `long:"macaroonpath" description:"The path to the macaroon to authenticate with"`
}

// DefaultNode returns a node config with all default values set.
func DefaultNode() *Node {
	return &Node{
		RPCServer: DefaultRPCServer,
		LndDir:    DefaultLndDir,
		Network:   DefaultNetwork,
	}
}

// Normalize fills in any paths that have not been set explicitly and expands
// home directory references.
func (n *Node) Normalize() {
	if n.RPCServer == "" {
		n.RPCServer = DefaultRPCServer
	}

	if n.LndDir == "" {
		n.LndDir = DefaultLndDir
	}
	n.LndDir = CleanAndExpandPath(n.LndDir)

	if n.Network == "" {
		n.Network = DefaultNetwork
	}

	if n.TLSCertPath == "" {
		n.TLSCertPath = filepath.Join(n.LndDir, defaultTLSCertFilename)
	}
	n.TLSCertPath = CleanAndExpandPath(n.TLSCertPath)

	if n.MacaroonPath == "" {
		n.MacaroonPath = filepath.Join(
			n.LndDir, "data", "chain", "bitcoin", n.Network,
			defaultMacaroonFilename,
		)
	}
	n.MacaroonPath = CleanAndExpandPath(n.MacaroonPath)
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultLndDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lnd"
	}

	return filepath.Join(home, ".lnd")
}
