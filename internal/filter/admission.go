package filter

import (
	"math/rand/v2"
	"sync"
)

// DrawMax is the inclusive upper bound of an admission draw.
const DrawMax = 100

// DrawFunc returns one admission draw in [0, DrawMax].
type DrawFunc func() int

// IsPrime reports whether n is prime: at least 2 and divisible only by 1 and itself.
func IsPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n == 2 {
		return true
	}
	if n%2 == 0 {
		return false
	}
	for i := 3; i*i <= n; i += 2 {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// UniformDraw draws uniformly from [0, DrawMax] using r, or the global source when r is nil.
// A matched item passes the gate on 25 of the 101 possible draws.
func UniformDraw(r *rand.Rand) DrawFunc {
	if r == nil {
		return func() int { return rand.IntN(DrawMax + 1) }
	}
	var mu sync.Mutex
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return r.IntN(DrawMax + 1)
	}
}

// SequenceDraw cycles through values in order. It panics if values is empty.
func SequenceDraw(values ...int) DrawFunc {
	if len(values) == 0 {
		panic("filter: SequenceDraw needs at least one value")
	}
	var (
		mu sync.Mutex
		i  int
	)
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		v := values[i%len(values)]
		i++
		return v
	}
}
