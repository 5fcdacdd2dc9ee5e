package lncfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNodeNormalize asserts that unset paths are derived from the lnd
// directory and network.
func TestNodeNormalize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	node := &Node{
		LndDir:  dir,
		Network: "regtest",
	}
	node.Normalize()

	require.Equal(t, DefaultRPCServer, node.RPCServer)
	require.Equal(t, filepath.Join(dir, "tls.cert"), node.TLSCertPath)
	require.Equal(t, filepath.Join(
		dir, "data", "chain", "bitcoin", "regtest", "admin.macaroon",
	), node.MacaroonPath)

	// Explicit paths are kept.
	node = &Node{
		RPCServer:    "remote:10010",
		TLSCertPath:  filepath.Join(dir, "other.cert"),
		MacaroonPath: filepath.Join(dir, "pay.macaroon"),
	}
	node.Normalize()

	require.Equal(t, "remote:10010", node.RPCServer)
	require.Equal(t, filepath.Join(dir, "other.cert"), node.TLSCertPath)
	require.Equal(t, filepath.Join(dir, "pay.macaroon"), node.MacaroonPath)
}

// TestLoadConfig tests reading an ini config file over the defaults.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFilename)

	conf := []byte(`[Node]
node.rpcserver=remote:10010
node.lnddir=` + dir + `
node.network=regtest

[Application Options]
debuglevel=debug
logdir=` + dir + `
`)
	require.NoError(t, os.WriteFile(path, conf, 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "remote:10010", cfg.Node.RPCServer)
	require.Equal(t, "regtest", cfg.Node.Network)
	require.Equal(t, filepath.Join(dir, "tls.cert"), cfg.Node.TLSCertPath)
	require.Equal(t, "debug", cfg.DebugLevel)
	require.Equal(t, DefaultMaxLogFiles, cfg.MaxLogFiles)
	require.Equal(t, filepath.Join(dir, "lnpay.log"), cfg.LogFile())

	// An explicit path must exist.
	_, err = LoadConfig(filepath.Join(dir, "missing.conf"))
	require.Error(t, err)
}
