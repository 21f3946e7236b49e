package channel

import (
	"math"
	"math/bits"
	"math/rand/v2"

	"github.com/ValentinKolb/crusher/lib/failure"
	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("channel")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultRate = 0.0001

	// realWindow is the number of bit positions a Real can be corrupted in.
	realWindow = 24

	// caps keep corrupted numbers inside their Go type
	maxIntegerBits   = 63
	maxCharacterBits = 32
)

// --------------------------------------------------------------------------
// Settings
// --------------------------------------------------------------------------

// Settings are the failure rates of a Channel.
type Settings struct {
	BitRate      float64 // Rate of bit-flip failures
	CloneRate    float64 // Rate of clone failures (previous value is re-emitted)
	ScrambleRate float64 // Rate of scramble failures
}

// DefaultSettings returns the default channel settings
func DefaultSettings() Settings {
	return Settings{
		BitRate:      defaultRate,
		CloneRate:    defaultRate,
		ScrambleRate: defaultRate,
	}
}

// ParseSettings builds Settings from positional configuration parameters
// (bitRate, cloneRate, scrambleRate).
func ParseSettings(params []float64) (Settings, error) {
	if len(params) != 3 {
		return Settings{}, store.ConfigErrorf("channel expects 3 parameters, got %d", len(params))
	}
	for i, p := range params {
		if p < 0 || math.IsNaN(p) {
			return Settings{}, store.ConfigErrorf("channel parameter %d must be a non-negative rate, got %v", i, p)
		}
	}
	return Settings{BitRate: params[0], CloneRate: params[1], ScrambleRate: params[2]}, nil
}

// --------------------------------------------------------------------------
// Channel
// --------------------------------------------------------------------------

// Channel is a noisy pipe. Every value passing through it may come out
// with flipped bits, or be replaced by the value that passed before it.
//
// A Channel is not safe for concurrent use.
type Channel struct {
	name     string
	settings Settings
	rng      *rand.Rand

	// last value that was not cloned
	hasPrev bool
	prev    value.Value

	stats channelStats
}

// channelStats tallies injected failures
type channelStats struct {
	clones    gometrics.Counter
	scrambles gometrics.Counter
	bitflips  gometrics.Counter
	flipCount gometrics.Histogram
}

// New creates a channel. The registry receives the failure tallies of the
// channel under "channel.<name>.*"; a nil registry uses a private one.
func New(name string, rng *rand.Rand, settings Settings, registry gometrics.Registry) *Channel {
	if registry == nil {
		registry = gometrics.NewRegistry()
	}
	prefix := "channel." + name + "."
	return &Channel{
		name:     name,
		settings: settings,
		rng:      rng,
		stats: channelStats{
			clones:    gometrics.GetOrRegisterCounter(prefix+"clone", registry),
			scrambles: gometrics.GetOrRegisterCounter(prefix+"scramble", registry),
			bitflips:  gometrics.GetOrRegisterCounter(prefix+"bitflip", registry),
			flipCount: gometrics.GetOrRegisterHistogram(prefix+"flipped-bits", registry, gometrics.NewUniformSample(1028)),
		},
	}
}

func (c *Channel) Name() string { return c.name }

func (c *Channel) Settings() Settings { return c.settings }

// Config replaces all settings of the channel.
func (c *Channel) Config(s Settings) {
	c.settings = s
}

// Mangle returns v, possibly corrupted.
//
// If the channel has seen a value before, a clone failure re-emits that
// previous value instead of v. Otherwise v becomes the previous value and
// is either scrambled or passed through the bit-flip rules.
func (c *Channel) Mangle(v value.Value) value.Value {
	if c.hasPrev && failure.ShouldFail(c.rng, c.settings.CloneRate, v) {
		c.stats.clones.Inc(1)
		Logger.Debugf("%s: clone failure, re-emitting %s", c.name, c.prev)
		return c.prev
	}
	c.prev = v
	c.hasPrev = true

	if failure.ShouldFail(c.rng, c.settings.ScrambleRate, v) {
		c.stats.scrambles.Inc(1)
		return c.Scramble(v)
	}

	flipped := 0
	out := c.bitflip(v, &flipped)
	if flipped > 0 {
		c.stats.bitflips.Inc(1)
		c.stats.flipCount.Update(int64(flipped))
		Logger.Debugf("%s: flipped %d bits, %s became %s", c.name, flipped, v, out)
	}
	return out
}

// Scramble is reserved for scrambling the bits of a value.
// It is not implemented yet and returns v unchanged.
func (c *Channel) Scramble(v value.Value) value.Value {
	return v
}

// --------------------------------------------------------------------------
// Bit flipping
// --------------------------------------------------------------------------

// bitflip applies the first matching corruption rule to v. The number of
// flipped bits is added to flipped.
func (c *Channel) bitflip(v value.Value, flipped *int) value.Value {
	switch {
	case v.Kind() == value.KindCharacter:
		r, _ := v.Rune()
		return value.Char(c.flipRune(r, flipped))

	case v.Kind() == value.KindText:
		runes := []rune(v.Str())
		for i, r := range runes {
			runes[i] = c.flipRune(r, flipped)
		}
		return value.TextFromRunes(runes)

	case v.IsNegative():
		// corrupt the magnitude, the sign bit may be lost on the way
		magnitude := c.bitflip(negate(v), flipped)
		if failure.ShouldFailN(c.rng, c.settings.BitRate, 1) {
			return magnitude
		}
		return negate(magnitude)

	case v.Kind() == value.KindInteger:
		i, _ := v.Int()
		return value.Int(int64(c.flipUint(uint64(i), maxIntegerBits, flipped)))

	case v.Kind() == value.KindReal:
		f, _ := v.Float()
		return value.Real(c.flipReal(f, flipped))

	case v.Kind() == value.KindSequence:
		items := v.Items()
		out := make([]value.Value, len(items))
		for i, item := range items {
			out[i] = c.bitflip(item, flipped)
		}
		return value.Seq(out...)

	default:
		return v
	}
}

// flipRune flips bits of a code point treated as an unsigned integer.
func (c *Channel) flipRune(r rune, flipped *int) rune {
	return rune(uint32(c.flipUint(uint64(uint32(r)), maxCharacterBits, flipped)))
}

// flipUint flips a Poisson sampled number of bits among the low
// bits.Len(x)+1 bits of x, so the leading zero can be flipped as well.
func (c *Channel) flipUint(x uint64, maxBits int, flipped *int) uint64 {
	n := min(bits.Len64(x)+1, maxBits)
	count := failure.Count(c.rng, c.settings.BitRate, n)
	for i := 0; i < count; i++ {
		x ^= 1 << c.rng.IntN(n)
	}
	*flipped += count
	return x
}

// flipReal flips bits of a non-negative float inside a fixed window of
// realWindow powers of two below 2^n, n = ceil(log2(x+1))+1. A float is not
// a bit pattern, so each flip adds or subtracts the power of two depending
// on the parity of the corresponding binary digit.
func (c *Channel) flipReal(x float64, flipped *int) float64 {
	count := failure.Count(c.rng, c.settings.BitRate, realWindow)
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	n := int(math.Ceil(math.Log2(x+1))) + 1
	for i := 0; i < count; i++ {
		bit := math.Ldexp(1, n-c.rng.IntN(realWindow))
		if digit := math.Floor(x / bit); math.Mod(digit, 2) == 0 {
			x += bit
		} else {
			x -= bit
		}
	}
	*flipped += count
	return x
}

// negate flips the sign of a number. The magnitude of math.MinInt64 is
// clamped to math.MaxInt64.
func negate(v value.Value) value.Value {
	if i, ok := v.Int(); ok {
		if i == math.MinInt64 {
			return value.Int(math.MaxInt64)
		}
		return value.Int(-i)
	}
	f, _ := v.Float()
	return value.Real(-f)
}
