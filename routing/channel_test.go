package routing

import (
	"strings"
	"testing"

	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

const pubkeyStr = "02eec7245d6b7d2ccb30380bfbe2a3648cd7a942653f5aa340edcea1f283686619"

// TestChannelFormat tests round trips between numeric and standard format
// channel ids.
func TestChannelFormat(t *testing.T) {
	t.Parallel()

	scid := lnwire.ShortChannelID{
		BlockHeight: 700000,
		TxIndex:     1234,
		TxPosition:  1,
	}

	formatted := FormatChannel(scid.ToUint64())
	require.Equal(t, "700000x1234x1", formatted)

	parsed, err := ParseChannel(formatted)
	require.NoError(t, err)
	require.Equal(t, scid, parsed)
}

// TestParseChannelInvalid tests rejection of malformed channel ids.
func TestParseChannelInvalid(t *testing.T) {
	t.Parallel()

	for _, channel := range []string{
		"", "1x2", "1x2x3x4", "ax2x3", "16777216x0x0", "0x16777216x0",
		"0x0x65536", "1:2:3",
	} {
		_, err := ParseChannel(channel)
		require.ErrorIs(t, err, ErrInvalidChannel, channel)
	}
}

// TestParseNodeKey tests validation of hex encoded node keys.
func TestParseNodeKey(t *testing.T) {
	t.Parallel()

	key, err := ParseNodeKey(pubkeyStr)
	require.NoError(t, err)
	require.Equal(t, pubkeyStr, hexKey(key))

	// Upper case hex is accepted.
	_, err = ParseNodeKey(strings.ToUpper(pubkeyStr))
	require.NoError(t, err)

	for _, key := range []string{
		"",
		// Right length, but 0xaa is not a compressed key prefix.
		strings.Repeat("AA", 33),
		strings.Repeat("AA", 33) + "A",
		strings.Repeat("AA", 32),
		strings.Repeat("zz", 33),
		// Right length, but not a point on the curve.
		"05" + strings.Repeat("aa", 32),
	} {
		_, err := ParseNodeKey(key)
		require.ErrorIs(t, err, ErrInvalidPublicKey, key)
	}
}
