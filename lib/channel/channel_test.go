package channel

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChannel(s Settings, registry gometrics.Registry) *Channel {
	return New("test", rand.New(rand.NewPCG(7, 11)), s, registry)
}

var samples = []value.Value{
	value.Char('x'),
	value.Text("hello world"),
	value.Int(0),
	value.Int(12345),
	value.Int(-76),
	value.Real(7.234),
	value.Real(-8.763),
	value.Seq(value.Text("test"), value.Int(-3), value.Seq(value.Real(0.5), value.None)),
	value.Opaque("True"),
}

func TestMangleZeroRates(t *testing.T) {
	c := newChannel(Settings{}, nil)
	for i := 0; i < 100; i++ {
		for _, v := range samples {
			out := c.Mangle(v)
			assert.True(t, v.Equal(out), "want %s, got %s", v, out)
			assert.Equal(t, v.Kind(), out.Kind())
		}
	}
}

func TestCloneFailure(t *testing.T) {
	registry := gometrics.NewRegistry()
	c := newChannel(Settings{CloneRate: 1000}, registry)

	// nothing to clone yet
	assert.True(t, value.Text("a").Equal(c.Mangle(value.Text("a"))))

	// every following value is replaced by the last accepted one
	assert.True(t, value.Text("a").Equal(c.Mangle(value.Text("b"))))
	assert.True(t, value.Text("a").Equal(c.Mangle(value.Int(3))))

	assert.Equal(t, int64(2), registry.Get("channel.test.clone").(gometrics.Counter).Count())
}

func TestScrambleIsNoOp(t *testing.T) {
	registry := gometrics.NewRegistry()
	c := newChannel(Settings{ScrambleRate: 1000}, registry)
	for _, v := range samples {
		assert.True(t, v.Equal(c.Mangle(v)))
	}
	assert.Equal(t, int64(len(samples)), registry.Get("channel.test.scramble").(gometrics.Counter).Count())
	assert.True(t, value.Int(5).Equal(c.Scramble(value.Int(5))))
}

func TestBitflipStaysInLowBits(t *testing.T) {
	c := newChannel(Settings{BitRate: 1}, nil)
	changed := false
	for i := 0; i < 200; i++ {
		// 5 has 3 significant bits, so only the low 4 bits may change
		out := c.Mangle(value.Int(5))
		n, ok := out.Int()
		require.True(t, ok)
		assert.GreaterOrEqual(t, n, int64(0))
		assert.Less(t, n, int64(16))
		changed = changed || n != 5

		r, ok := c.Mangle(value.Char('a')).Rune()
		require.True(t, ok)
		assert.Less(t, r, rune(256))
	}
	assert.True(t, changed)
}

func TestBitflipText(t *testing.T) {
	c := newChannel(Settings{BitRate: 1}, nil)
	out := c.Mangle(value.Text("abc"))
	assert.Equal(t, value.KindText, out.Kind())
	assert.Equal(t, 3, out.Len())
}

func TestBitflipNegativeLosesSign(t *testing.T) {
	// at this rate the sign decision practically always keeps the corrupted magnitude
	c := newChannel(Settings{BitRate: 10}, nil)
	for i := 0; i < 100; i++ {
		assert.False(t, c.Mangle(value.Int(-76)).IsNegative())
		assert.False(t, c.Mangle(value.Real(-8.763)).IsNegative())
	}
}

func TestBitflipNegativeKeepsSign(t *testing.T) {
	// a tiny rate leaves the value and its sign intact in nearly all trials
	c := newChannel(Settings{BitRate: 1e-9}, nil)
	for i := 0; i < 100; i++ {
		assert.True(t, c.Mangle(value.Int(-76)).IsNegative())
	}
}

func TestBitflipReal(t *testing.T) {
	c := newChannel(Settings{BitRate: 0.5}, nil)
	for i := 0; i < 200; i++ {
		out := c.Mangle(value.Real(1.5))
		f, ok := out.Float()
		require.Equal(t, value.KindReal, out.Kind())
		require.True(t, ok)
		assert.GreaterOrEqual(t, f, 0.0)
		// every flip is a power of two >= 2^-20
		assert.Equal(t, 0.0, math.Mod(f*(1<<20), 1))
	}
}

func TestBitflipSequenceKeepsShape(t *testing.T) {
	c := newChannel(Settings{BitRate: 0.5}, nil)
	in := value.Seq(value.Text("ab"), value.Int(7), value.Seq(value.Real(2.5), value.None))
	out := c.Mangle(in)
	require.Equal(t, value.KindSequence, out.Kind())
	require.Equal(t, 3, out.Len())
	assert.Equal(t, value.KindText, out.Items()[0].Kind())
	assert.Equal(t, value.KindSequence, out.Items()[2].Kind())
	assert.True(t, value.None.Equal(out.Items()[2].Items()[1]))
}

func TestOpaqueUnchanged(t *testing.T) {
	c := newChannel(Settings{BitRate: 100}, nil)
	assert.True(t, value.Opaque("False").Equal(c.Mangle(value.Opaque("False"))))
}

func TestSeededChannelsAgree(t *testing.T) {
	s := Settings{BitRate: 0.05, CloneRate: 0.01, ScrambleRate: 0.01}
	a, b := newChannel(s, nil), newChannel(s, nil)
	for i := 0; i < 50; i++ {
		for _, v := range samples {
			assert.True(t, a.Mangle(v).Equal(b.Mangle(v)))
		}
	}
}

func TestConfig(t *testing.T) {
	c := newChannel(DefaultSettings(), nil)
	s := Settings{BitRate: 0.1, CloneRate: 0.2, ScrambleRate: 0.3}
	c.Config(s)
	assert.Equal(t, s, c.Settings())
	assert.Equal(t, "test", c.Name())
}

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]float64{0.1, 0, 0.3})
	require.NoError(t, err)
	assert.Equal(t, Settings{BitRate: 0.1, ScrambleRate: 0.3}, s)

	_, err = ParseSettings([]float64{0.1, 0.2})
	assert.ErrorIs(t, err, store.ErrConfig)

	_, err = ParseSettings([]float64{0.1, -1, 0.2})
	assert.ErrorIs(t, err, store.ErrConfig)
}
