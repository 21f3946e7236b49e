// Package failure implements the statistical failure model shared by every
// noisy component of crusher.
//
// Failures are modelled as a Poisson process in "processing time". The time
// needed to process a value grows with the size of its canonical text form,
// so larger values accumulate more opportunity for failure:
//
//	t = rate * size(value) * 8
//
// The probability that at least one failure occurs during t is 1 - exp(-t),
// and the number of failures over n units is Poisson distributed with mean
// rate * n.
//
// All functions draw from an explicitly passed generator so that callers
// can make every outcome reproducible by seeding it.
package failure

import (
	"math"
	"math/rand/v2"

	"github.com/ValentinKolb/crusher/lib/value"
)

// Time returns the processing time for v at the given rate.
func Time(rate float64, v value.Value) float64 {
	return timeFor(rate, v.Size())
}

func timeFor(rate float64, size int) float64 {
	return rate * float64(size) * 8
}

// ShouldFail reports whether any failure happened while processing v.
// A zero rate never fails.
func ShouldFail(rng *rand.Rand, rate float64, v value.Value) bool {
	return ShouldFailN(rng, rate, v.Size())
}

// ShouldFailN is ShouldFail for a value whose text form has the given size.
func ShouldFailN(rng *rand.Rand, rate float64, size int) bool {
	return rng.Float64() >= math.Exp(-timeFor(rate, size))
}

// Count returns the number of failures that happened processing n units at
// the given rate. The result is a sample of Poisson(rate * n).
//
// The sample is drawn by accumulating probability mass terms until the
// uniform draw is consumed. If the mass underflows to zero no further
// failures are possible and the current count is returned.
func Count(rng *rand.Rand, rate float64, n int) int {
	t := rate * float64(n)
	r := rng.Float64()
	prob := math.Exp(-t)
	count := 0
	for r >= prob && prob > 0 {
		r -= prob
		count++
		prob *= t / float64(count)
	}
	return count
}
