package routing

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/carlakc/lnpay/fn"
	"github.com/lightningnetwork/lnd/lnwire"
)

// roundings produces the rounded down and rounded up satoshi values of a
// millisatoshi amount.
var roundings = fn.Pair(floorSatoshis, ceilSatoshis)

// Amount is a millisatoshi amount along with both of its satoshi roundings.
// The satoshi fields are always derived from MilliSat, so an Amount should
// only be created with NewAmount.
type Amount struct {
	// MilliSat is the exact amount.
	MilliSat lnwire.MilliSatoshi `json:"mtokens"`

	// Sat is the amount rounded down to the nearest satoshi.
	Sat btcutil.Amount `json:"tokens"`

	// SafeSat is the amount rounded up to the nearest satoshi.
	SafeSat btcutil.Amount `json:"safe_tokens"`
}

// NewAmount creates an amount from its exact millisatoshi value.
func NewAmount(mSat lnwire.MilliSatoshi) Amount {
	sat, safeSat := roundings(mSat).AsGoPair()

	return Amount{
		MilliSat: mSat,
		Sat:      sat,
		SafeSat:  safeSat,
	}
}

// Add returns the sum of two amounts.
func (a Amount) Add(b Amount) Amount {
	return NewAmount(a.MilliSat + b.MilliSat)
}

// String returns the exact amount along with its roundings.
func (a Amount) String() string {
	return fmt.Sprintf("%v (%d..%d sat)", a.MilliSat, a.Sat, a.SafeSat)
}

func floorSatoshis(mSat lnwire.MilliSatoshi) btcutil.Amount {
	return mSat.ToSatoshis()
}

func ceilSatoshis(mSat lnwire.MilliSatoshi) btcutil.Amount {
	sat := mSat / 1000
	if mSat%1000 != 0 {
		sat++
	}

	return btcutil.Amount(sat)
}
