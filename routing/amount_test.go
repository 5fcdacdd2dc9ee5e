package routing

import (
	"testing"
	"testing/quick"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

// TestAmountRoundings asserts that the satoshi values of an amount are always
// the floor and ceiling of its millisatoshi value.
func TestAmountRoundings(t *testing.T) {
	err := quick.Check(func(mSat uint32) bool {
		amt := NewAmount(lnwire.MilliSatoshi(mSat))

		floor := btcutil.Amount(mSat / 1000)
		ceil := floor
		if mSat%1000 != 0 {
			ceil++
		}

		return amt.Sat == floor && amt.SafeSat == ceil &&
			amt.SafeSat-amt.Sat <= 1
	}, nil)

	if err != nil {
		t.Fatal(err)
	}
}

// TestAmountAdd asserts that addition keeps both roundings consistent with
// the summed millisatoshi value rather than summing the roundings.
func TestAmountAdd(t *testing.T) {
	t.Parallel()

	a := NewAmount(1500)
	b := NewAmount(1500)

	sum := a.Add(b)
	require.Equal(t, NewAmount(3000), sum)
	require.Equal(t, btcutil.Amount(3), sum.Sat)
	require.Equal(t, btcutil.Amount(3), sum.SafeSat)

	require.Equal(t, Amount{}, NewAmount(0))
	require.Equal(t, btcutil.Amount(1), NewAmount(1).SafeSat)
	require.Equal(t, btcutil.Amount(0), NewAmount(999).Sat)
}
