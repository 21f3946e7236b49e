package cache

import (
	"math/rand/v2"
	"testing"

	"github.com/ValentinKolb/crusher/lib/store"
	storetesting "github.com/ValentinKolb/crusher/lib/store/testing"
	"github.com/ValentinKolb/crusher/lib/value"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(3, 5))
}

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "Cache", func(t testing.TB) store.IStore {
		return New(newRand(), Settings{}, nil)
	})
	storetesting.RunStoreTests(t, "CacheWide", func(t testing.TB) store.IStore {
		return New(newRand(), Settings{BucketWidth: 1 << 16}, nil)
	})
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "Cache", func(t testing.TB) store.IStore {
		return New(newRand(), Settings{}, nil)
	})
}

// "xa" and "ya" share their last encoded byte
var (
	keyA = value.Text("xa")
	keyB = value.Text("ya")
)

func TestCollisionOverwrites(t *testing.T) {
	c := New(newRand(), Settings{BucketWidth: 1}, nil)

	c.Store(keyA, value.Int(1))
	c.Store(keyB, value.Int(2))
	assert.Equal(t, 1, c.Len())

	_, err := c.Fetch(keyA)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := c.Fetch(keyB)
	require.NoError(t, err)
	assert.True(t, value.Int(2).Equal(got))
}

func TestFetchEmpty(t *testing.T) {
	c := New(newRand(), DefaultSettings(), nil)
	_, err := c.Fetch(value.Text("anything"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestKeyHalfWrite(t *testing.T) {
	registry := gometrics.NewRegistry()
	c := New(newRand(), Settings{BucketWidth: 1, KeyHalfWriteRate: 1000}, registry)

	c.Store(keyA, value.Int(1))
	c.Store(keyB, value.Int(2))

	// the bucket keeps key A but receives B's value
	got, err := c.Fetch(keyA)
	require.NoError(t, err)
	assert.True(t, value.Int(2).Equal(got))

	_, err = c.Fetch(keyB)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, int64(1), registry.Get("cache.key-half-write").(gometrics.Counter).Count())
}

func TestValueHalfWrite(t *testing.T) {
	c := New(newRand(), Settings{BucketWidth: 1, ValueHalfWriteRate: 1000}, nil)

	c.Store(keyA, value.Int(1))
	c.Store(keyB, value.Int(2))

	// the bucket holds key B with A's stale value
	got, err := c.Fetch(keyB)
	require.NoError(t, err)
	assert.True(t, value.Int(1).Equal(got))
}

func TestHalfWriteNeedsOccupiedBucket(t *testing.T) {
	c := New(newRand(), Settings{KeyHalfWriteRate: 1000, ValueHalfWriteRate: 1000}, nil)

	c.Store(keyA, value.Int(1))
	c.Store(keyB, value.Int(2))

	got, err := c.Fetch(keyB)
	require.NoError(t, err)
	assert.True(t, value.Int(2).Equal(got))
}

func TestHalfWriteAfterWidthChange(t *testing.T) {
	c := New(newRand(), Settings{KeyHalfWriteRate: 1000, ValueHalfWriteRate: 1000}, nil)

	// an entry left in B's bucket by a wider configuration
	c.buckets[c.hash(keyB)] = entry{key: keyA, val: value.Int(1)}

	// the key half-write picks keyA, whose own bucket is empty, so the
	// value half-write has nothing to reuse
	c.Store(keyB, value.Int(2))
	got, err := c.Fetch(keyA)
	require.NoError(t, err)
	assert.True(t, value.Int(2).Equal(got))
}

func TestFalseHit(t *testing.T) {
	c := New(newRand(), Settings{BucketWidth: 1, FalseHitRate: 1000}, nil)
	c.Store(keyA, value.Int(1))

	got, err := c.Fetch(keyB)
	require.NoError(t, err)
	assert.True(t, value.Int(1).Equal(got))

	// different bucket, no false hit possible
	_, err = c.Fetch(value.Text("xb"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRandomHit(t *testing.T) {
	c := New(newRand(), Settings{RandomHitRate: 1000}, nil)
	c.Store(value.Text("one"), value.Int(1))
	c.Store(value.Text("two"), value.Int(2))

	seen := map[int64]bool{}
	for i := 0; i < 100; i++ {
		got, err := c.Fetch(value.Text("unrelated"))
		require.NoError(t, err)
		n, ok := got.Int()
		require.True(t, ok)
		seen[n] = true
	}
	assert.Equal(t, map[int64]bool{1: true, 2: true}, seen)
}

func TestRemove(t *testing.T) {
	c := New(newRand(), Settings{}, nil)
	c.Store(keyA, value.Int(1))

	c.Remove(value.Text("absent"))
	assert.Equal(t, 1, c.Len())

	c.Remove(keyA)
	assert.Equal(t, 0, c.Len())
	_, err := c.Fetch(keyA)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHash(t *testing.T) {
	c := New(newRand(), Settings{BucketWidth: 2}, nil)
	assert.Equal(t, "xa", c.hash(keyA))

	c.Config(Settings{})
	assert.Equal(t, keyA.Key(), c.hash(keyA))
}

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]float64{8, 0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	assert.Equal(t, Settings{BucketWidth: 8, FalseHitRate: 0.1, RandomHitRate: 0.2, KeyHalfWriteRate: 0.3, ValueHalfWriteRate: 0.4}, s)

	for _, params := range [][]float64{
		{8, 0.1, 0.2, 0.3},
		{8.5, 0, 0, 0, 0},
		{-1, 0, 0, 0, 0},
		{8, 0, -0.1, 0, 0},
	} {
		_, err := ParseSettings(params)
		assert.ErrorIs(t, err, store.ErrConfig, "params %v", params)
	}
}
