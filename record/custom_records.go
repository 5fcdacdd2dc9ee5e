package record

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/lightningnetwork/lnd/tlv"
)

const (
	// CustomTypeStart is the start of the custom tlv type range as defined
	// in BOLT 01.
	CustomTypeStart = 65536
)

// CustomTypeOverride contains a set of record types < CustomTypeStart that we
// allow to be sent as custom records. This allows us to send records that are
// reserved for the protocol level to nodes that are known to handle them.
var CustomTypeOverride []tlv.Type

// SetCustomOverrides validates that the set of override types are outside of
// the custom record range (there's no reason to override records that are
// already within the range), and updates the CustomTypeOverride global to hold
// this set of record types.
func SetCustomOverrides(overrideTypes []uint64) error {
	overrides := make([]tlv.Type, len(overrideTypes))

	for i, t := range overrideTypes {
		if t >= CustomTypeStart {
			return fmt.Errorf("can't override type: %v, already "+
				"in custom range", t)
		}

		overrides[i] = tlv.Type(t)
	}

	CustomTypeOverride = overrides

	return nil
}

// IsCustomOverride returns a bool indicating whether the record type is one
// of the protocol types that we override for custom use.
func IsCustomOverride(t tlv.Type) bool {
	for _, override := range CustomTypeOverride {
		if t == override {
			return true
		}
	}

	return false
}

// Message is an application-defined record that is delivered to the final
// hop of a payment.
type Message struct {
	// Type is the tlv type the value is sent under.
	Type tlv.Type

	// Value is the raw record value.
	Value []byte
}

// ParseMessage parses a message from its decimal type string and hex encoded
// value.
func ParseMessage(msgType, value string) (Message, error) {
	t, err := strconv.ParseUint(msgType, 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("invalid message type %q: %w",
			msgType, err)
	}

	v, err := hex.DecodeString(value)
	if err != nil {
		return Message{}, fmt.Errorf("invalid message value for "+
			"type %v: %w", t, err)
	}

	return Message{
		Type:  tlv.Type(t),
		Value: v,
	}, nil
}

// CustomSet stores a set of custom key/value pairs.
type CustomSet map[uint64][]byte

// NewCustomSet builds the set of custom records for a list of messages,
// rejecting messages that repeat a type.
func NewCustomSet(msgs []Message) (CustomSet, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	set := make(CustomSet, len(msgs))
	for _, msg := range msgs {
		if _, ok := set[uint64(msg.Type)]; ok {
			return nil, fmt.Errorf("duplicate custom record "+
				"type: %v", msg.Type)
		}

		set[uint64(msg.Type)] = msg.Value
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}

	return set, nil
}

// Validate checks that all custom records are in the custom type range, or
// have been explicitly overridden.
func (c CustomSet) Validate() error {
	for key := range c {
		if key < CustomTypeStart && !IsCustomOverride(tlv.Type(key)) {
			return fmt.Errorf("no custom records with types "+
				"below %v allowed", CustomTypeStart)
		}
	}

	return nil
}
