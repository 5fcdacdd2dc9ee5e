package payment

import "errors"

var (
	// ErrInvalidDestination is returned when a payment's destination is
	// absent or is not a hex encoded compressed public key.
	ErrInvalidDestination = errors.New("expected destination public " +
		"key when paying via details")

	// ErrUnauthenticated is returned when the node handle provided cannot
	// send payments.
	ErrUnauthenticated = errors.New("expected authenticated node to " +
		"subscribe to pay via details")

	// ErrMissingAmount is returned when a payment has no amount and no
	// payment request to take the amount from.
	ErrMissingAmount = errors.New("expected token amount to pay in " +
		"payment details")

	// ErrAmountMismatch is returned when a payment specifies both tokens
	// and millitokens and they describe different amounts.
	ErrAmountMismatch = errors.New("tokens and millitokens amounts do " +
		"not match")

	// ErrInvalidAmount is returned when a payment's token amount is
	// negative.
	ErrInvalidAmount = errors.New("expected positive token amount")

	// ErrInvalidMaxFee is returned when a payment's fee limit is negative.
	ErrInvalidMaxFee = errors.New("expected non-negative max fee")

	// ErrInvalidID is returned when a payment's id is not a hex encoded
	// 32 byte hash.
	ErrInvalidID = errors.New("expected hex payment hash id")

	// ErrInvalidPaymentAddr is returned when a payment identifier is not
	// a hex encoded 32 byte value.
	ErrInvalidPaymentAddr = errors.New("expected hex payment identifier")

	// ErrInvalidIncomingPeer is returned when the incoming peer constraint
	// is not a valid public key.
	ErrInvalidIncomingPeer = errors.New("expected incoming peer public key")

	// ErrInvalidOutgoingChannel is returned when an outgoing channel
	// constraint is not a standard format channel id.
	ErrInvalidOutgoingChannel = errors.New("expected standard format " +
		"outgoing channel id")

	// ErrInvalidConfidence is returned when a confidence above one million
	// is requested.
	ErrInvalidConfidence = errors.New("expected confidence out of one " +
		"million")

	// ErrInvalidRoutes is returned when the explicit routes provided can't
	// be used as route hints.
	ErrInvalidRoutes = errors.New("expected valid routes to pay through")

	// ErrInvalidMessages is returned when the custom records provided are
	// not valid.
	ErrInvalidMessages = errors.New("expected valid custom messages")
)
