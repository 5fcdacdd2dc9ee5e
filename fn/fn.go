package fn

// Iden is the left and right identity of function composition. It is a
// function that simply returns its argument.
func Iden[A any](a A) A {
	return a
}

// Pair takes two functions that share the same argument type and runs them
// both and produces a 2-tuple of the results.
func Pair[A, B, C any](f func(A) B, g func(A) C) func(A) T2[B, C] {
	return func(a A) T2[B, C] {
		return T2[B, C]{
			fst: f(a),
			snd: g(a),
		}
	}
}
