package routing

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/lnwire"
)

const (
	// maxBlockHeight is the largest block height that fits in the three
	// bytes a short channel id reserves for it.
	maxBlockHeight = 1<<24 - 1

	// maxTxIndex is the largest transaction index that fits in a short
	// channel id.
	maxTxIndex = 1<<24 - 1

	// maxTxPosition is the largest output index that fits in a short
	// channel id.
	maxTxPosition = 1<<16 - 1
)

var (
	// ErrInvalidChannel is returned when a channel is not in the standard
	// BLOCKxTXxOUTPUT format.
	ErrInvalidChannel = errors.New("invalid standard format channel id")

	// ErrInvalidPublicKey is returned when a node key is not a hex encoded
	// compressed public key.
	ErrInvalidPublicKey = errors.New("invalid public key")
)

// FormatChannel returns the standard BLOCKxTXxOUTPUT format of a numeric
// channel id.
func FormatChannel(chanID uint64) string {
	scid := lnwire.NewShortChanIDFromInt(chanID)

	return fmt.Sprintf("%dx%dx%d", scid.BlockHeight, scid.TxIndex,
		scid.TxPosition)
}

// ParseChannel parses a channel id in standard BLOCKxTXxOUTPUT format.
func ParseChannel(channel string) (lnwire.ShortChannelID, error) {
	parts := strings.Split(channel, "x")
	if len(parts) != 3 {
		return lnwire.ShortChannelID{}, fmt.Errorf("%w: %q",
			ErrInvalidChannel, channel)
	}

	limits := [3]uint64{maxBlockHeight, maxTxIndex, maxTxPosition}

	var values [3]uint64
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil || v > limits[i] {
			return lnwire.ShortChannelID{}, fmt.Errorf("%w: %q",
				ErrInvalidChannel, channel)
		}

		values[i] = v
	}

	return lnwire.ShortChannelID{
		BlockHeight: uint32(values[0]),
		TxIndex:     uint32(values[1]),
		TxPosition:  uint16(values[2]),
	}, nil
}

// ParseNodeKey decodes a 66 character hex encoded compressed public key and
// checks that it is a point on the curve.
func ParseNodeKey(key string) (*btcec.PublicKey, error) {
	if len(key) != 2*btcec.PubKeyBytesLenCompressed {
		return nil, fmt.Errorf("%w: expected %d hex characters, got "+
			"%d", ErrInvalidPublicKey,
			2*btcec.PubKeyBytesLenCompressed, len(key))
	}

	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	pubKey, err := btcec.ParsePubKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	return pubKey, nil
}
