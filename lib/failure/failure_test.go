package failure

import (
	"math/rand/v2"
	"testing"

	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/stretchr/testify/assert"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestShouldFailZeroRate(t *testing.T) {
	rng := newRand()
	for _, v := range []value.Value{value.Text("h"), value.Int(123456), value.Seq(value.Text("a"), value.Real(1.5))} {
		for i := 0; i < 1000; i++ {
			assert.False(t, ShouldFail(rng, 0, v))
		}
	}
}

func TestShouldFailHighRate(t *testing.T) {
	rng := newRand()
	large := value.Text(string(make([]byte, 1000)))
	fails := 0
	for i := 0; i < 1000; i++ {
		if ShouldFail(rng, 1, large) {
			fails++
		}
	}
	assert.Equal(t, 1000, fails)
}

func TestShouldFailProbability(t *testing.T) {
	// t = 0.03 * 1 * 8 = 0.24 -> p = 1 - exp(-0.24) ~ 0.2134
	rng := newRand()
	const trials = 20000
	fails := 0
	for i := 0; i < trials; i++ {
		if ShouldFail(rng, 0.03, value.Text("h")) {
			fails++
		}
	}
	assert.InDelta(t, 0.2134, float64(fails)/trials, 0.02)
}

func TestTime(t *testing.T) {
	assert.Equal(t, 0.0, Time(0, value.Text("abc")))
	assert.InDelta(t, 0.5*3*8, Time(0.5, value.Text("abc")), 1e-12)
	assert.InDelta(t, 0.5*8*8, Time(0.5, value.Seq(value.Text("abc"))), 1e-12)
}

func TestCountMean(t *testing.T) {
	rng := newRand()
	const (
		trials = 10000
		rate   = 0.01
		n      = 100
	)
	sum := 0
	for i := 0; i < trials; i++ {
		sum += Count(rng, rate, n)
	}
	mean := float64(sum) / trials
	assert.InEpsilon(t, rate*n, mean, 0.1)
}

func TestCountZero(t *testing.T) {
	rng := newRand()
	for i := 0; i < 1000; i++ {
		assert.Equal(t, 0, Count(rng, 0, 24))
	}
}

func TestCountTerminatesOnUnderflow(t *testing.T) {
	// exp(-1e6) underflows to zero
	rng := newRand()
	assert.Equal(t, 0, Count(rng, 1e4, 100))
}
