package routing

import (
	"encoding/json"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lnwire"
)

// jsonHop is the flat json encoding of a Hop. Values that are not known are
// left out.
type jsonHop struct {
	Channel         string              `json:"channel"`
	ChannelCapacity *btcutil.Amount     `json:"channel_capacity,omitempty"`
	Fee             btcutil.Amount      `json:"fee"`
	FeeMilliTokens  lnwire.MilliSatoshi `json:"fee_mtokens"`
	Forward         btcutil.Amount      `json:"forward"`
	ForwardMilli    lnwire.MilliSatoshi `json:"forward_mtokens"`
	PublicKey       string              `json:"public_key"`
	Timeout         uint32              `json:"timeout"`
}

// MarshalJSON encodes the hop with its amounts flattened.
func (h Hop) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonHop{
		Channel:         h.Channel,
		ChannelCapacity: h.Capacity.UnwrapToPtr(),
		Fee:             h.Fee.Sat,
		FeeMilliTokens:  h.Fee.MilliSat,
		Forward:         h.Forward.Sat,
		ForwardMilli:    h.Forward.MilliSat,
		PublicKey:       h.PublicKey,
		Timeout:         h.Timeout,
	})
}

// jsonRoute is the flat json encoding of a Route. Values that are not known
// are left out.
type jsonRoute struct {
	Fee            btcutil.Amount       `json:"fee"`
	FeeMilliTokens lnwire.MilliSatoshi  `json:"fee_mtokens"`
	Hops           []Hop                `json:"hops"`
	MilliTokens    lnwire.MilliSatoshi  `json:"mtokens"`
	Payment        *string              `json:"payment,omitempty"`
	SafeFee        btcutil.Amount       `json:"safe_fee"`
	SafeTokens     btcutil.Amount       `json:"safe_tokens"`
	Timeout        uint32               `json:"timeout"`
	Tokens         btcutil.Amount       `json:"tokens"`
	TotalMilli     *lnwire.MilliSatoshi `json:"total_mtokens,omitempty"`
}

// MarshalJSON encodes the route with its amounts flattened.
func (r Route) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonRoute{
		Fee:            r.Fee.Sat,
		FeeMilliTokens: r.Fee.MilliSat,
		Hops:           r.Hops,
		MilliTokens:    r.Total.MilliSat,
		Payment:        r.Payment.UnwrapToPtr(),
		SafeFee:        r.Fee.SafeSat,
		SafeTokens:     r.Total.SafeSat,
		Timeout:        r.Timeout,
		Tokens:         r.Total.Sat,
		TotalMilli:     r.TotalMilliSat.UnwrapToPtr(),
	})
}
