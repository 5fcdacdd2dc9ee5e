package paysub

import (
	"strings"

	"github.com/lightningnetwork/lnd/lnrpc"
)

// failureReason returns the name of the failure code reported for a failed
// payment attempt.
func failureReason(code lnrpc.Failure_FailureCode) string {
	switch code {
	case lnrpc.Failure_RESERVED:
		return "Reserved"

	case lnrpc.Failure_INCORRECT_OR_UNKNOWN_PAYMENT_DETAILS:
		return "IncorrectOrUnknownPaymentDetails"

	case lnrpc.Failure_INCORRECT_PAYMENT_AMOUNT:
		return "IncorrectPaymentAmount"

	case lnrpc.Failure_FINAL_INCORRECT_CLTV_EXPIRY:
		return "FinalIncorrectCltvExpiry"

	case lnrpc.Failure_FINAL_INCORRECT_HTLC_AMOUNT:
		return "FinalIncorrectHtlcAmount"

	case lnrpc.Failure_FINAL_EXPIRY_TOO_SOON:
		return "FinalExpiryTooSoon"

	case lnrpc.Failure_INVALID_REALM:
		return "InvalidRealm"

	case lnrpc.Failure_EXPIRY_TOO_SOON:
		return "ExpiryTooSoon"

	case lnrpc.Failure_INVALID_ONION_VERSION:
		return "InvalidOnionVersion"

	case lnrpc.Failure_INVALID_ONION_HMAC:
		return "InvalidOnionHmac"

	case lnrpc.Failure_INVALID_ONION_KEY:
		return "InvalidOnionKey"

	case lnrpc.Failure_AMOUNT_BELOW_MINIMUM:
		return "AmountBelowMinimum"

	case lnrpc.Failure_FEE_INSUFFICIENT:
		return "FeeInsufficient"

	case lnrpc.Failure_INCORRECT_CLTV_EXPIRY:
		return "IncorrectCltvExpiry"

	case lnrpc.Failure_CHANNEL_DISABLED:
		return "ChannelDisabled"

	case lnrpc.Failure_TEMPORARY_CHANNEL_FAILURE:
		return "TemporaryChannelFailure"

	case lnrpc.Failure_REQUIRED_NODE_FEATURE_MISSING:
		return "RequiredNodeFeatureMissing"

	case lnrpc.Failure_REQUIRED_CHANNEL_FEATURE_MISSING:
		return "RequiredChannelFeatureMissing"

	case lnrpc.Failure_UNKNOWN_NEXT_PEER:
		return "UnknownNextPeer"

	case lnrpc.Failure_TEMPORARY_NODE_FAILURE:
		return "TemporaryNodeFailure"

	case lnrpc.Failure_PERMANENT_NODE_FAILURE:
		return "PermanentNodeFailure"

	case lnrpc.Failure_PERMANENT_CHANNEL_FAILURE:
		return "PermanentChannelFailure"

	case lnrpc.Failure_EXPIRY_TOO_FAR:
		return "ExpiryTooFar"

	case lnrpc.Failure_MPP_TIMEOUT:
		return "MppTimeout"

	case lnrpc.Failure_INVALID_ONION_PAYLOAD:
		return "InvalidOnionPayload"

	case lnrpc.Failure_INTERNAL_FAILURE:
		return "InternalFailure"

	case lnrpc.Failure_UNKNOWN_FAILURE:
		return "UnknownFailure"

	case lnrpc.Failure_UNREADABLE_FAILURE:
		return "UnreadableFailure"

	default:
		return camelCase(code.String())
	}
}

// camelCase converts an upper snake case enum name into camel case. Enum
// values without a name are printed as numbers, and are returned unchanged.
func camelCase(name string) string {
	var sb strings.Builder
	for _, word := range strings.Split(name, "_") {
		if word == "" {
			continue
		}

		sb.WriteString(word[:1])
		sb.WriteString(strings.ToLower(word[1:]))
	}

	return sb.String()
}

// failureFlags classifies the reason a payment failed.
func failureFlags(reason lnrpc.PaymentFailureReason) *FailedEvent {
	event := &FailedEvent{}

	switch reason {
	case lnrpc.PaymentFailureReason_FAILURE_REASON_INSUFFICIENT_BALANCE:
		event.IsInsufficientBalance = true

	case lnrpc.PaymentFailureReason_FAILURE_REASON_INCORRECT_PAYMENT_DETAILS:
		event.IsInvalidPayment = true

	case lnrpc.PaymentFailureReason_FAILURE_REASON_TIMEOUT:
		event.IsPathfindingTimeout = true

	case lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE:
		event.IsRouteNotFound = true
	}

	return event
}

// flagCount returns the number of reason flags set on a failed event.
func (f *FailedEvent) flagCount() int {
	var count int
	for _, flag := range []bool{
		f.IsInsufficientBalance, f.IsInvalidPayment,
		f.IsPathfindingTimeout, f.IsRouteNotFound,
	} {
		if flag {
			count++
		}
	}

	return count
}
