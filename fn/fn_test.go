package fn

import (
	"testing"
	"testing/quick"
)

func TestPairAsGoPair(t *testing.T) {
	double := func(x int32) int64 { return int64(x) * 2 }

	err := quick.Check(
		func(x int32) bool {
			a, b := Pair(Iden[int32], double)(x).AsGoPair()
			return a == x && b == int64(x)*2
		},
		nil,
	)

	if err != nil {
		t.Fatal(err)
	}
}
