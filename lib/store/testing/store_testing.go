package testing

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory creates a new, empty store with every failure rate set to
// zero and a cache wide enough to give every key its own bucket.
type StoreFactory func(t testing.TB) store.IStore

// RunStoreTests runs the conformance suite for a noise-free store.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Store&Fetch", func(t *testing.T) {
			testStoreFetch(t, factory(t))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory(t))
		})

		t.Run("FetchMissing", func(t *testing.T) {
			testFetchMissing(t, factory(t))
		})

		t.Run("StructuredKeys", func(t *testing.T) {
			testStructuredKeys(t, factory(t))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testStoreFetch(t *testing.T, s store.IStore) {
	key := value.Text("h")
	val := value.Text("v")

	s.Store(key, val)

	got, err := s.Fetch(key)
	require.NoError(t, err)
	assert.True(t, val.Equal(got), "expected %s, got %s", val, got)
}

func testOverwrite(t *testing.T, s store.IStore) {
	key := value.Text("counter")

	s.Store(key, value.Int(1))
	s.Store(key, value.Int(2))

	got, err := s.Fetch(key)
	require.NoError(t, err)
	assert.True(t, value.Int(2).Equal(got), "expected 2, got %s", got)
}

func testFetchMissing(t *testing.T, s store.IStore) {
	_, err := s.Fetch(value.Int(1))
	assert.ErrorIs(t, err, store.ErrNotFound)

	s.Store(value.Text("present"), value.Text("yes"))

	_, err = s.Fetch(value.Text("absent"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testStructuredKeys(t *testing.T, s store.IStore) {
	pairs := []struct{ key, val value.Value }{
		{value.Seq(value.Text("hello"), value.Text("world")), value.Seq(value.Text("by"), value.Text("jove"))},
		{value.MustParse(`("test","m",12,-76,7.234,-8.763,10004.3422,(123,"h"))`), value.Text("test")},
		{value.Seq(value.Text("goodbye"), value.Text("world")), value.Int(13)},
		{value.Int(-42), value.Real(-0.125)},
		{value.Char('k'), value.Opaque("None")},
	}

	for _, p := range pairs {
		s.Store(p.key, p.val)
	}

	for _, p := range pairs {
		got, err := s.Fetch(p.key)
		require.NoError(t, err, "key %s", p.key)
		assert.True(t, p.val.Equal(got), "key %s: expected %s, got %s", p.key, p.val, got)
	}
}

func testRealisticUsage(t *testing.T, s store.IStore) {
	expected := make(map[string]value.Value)

	for i := 0; i < 2_000; i++ {
		var key value.Value
		if i%5 == 0 {
			key = value.Seq(value.Text("hot"), value.Int(int64(i%50)))
		} else {
			key = value.Text(fmt.Sprintf("key-%d", i))
		}
		val := value.Seq(value.Int(int64(i)), value.Text(fmt.Sprintf("value-%d", i)))

		s.Store(key, val)
		expected[key.Key()] = val

		if i%7 == 0 {
			got, err := s.Fetch(key)
			require.NoError(t, err)
			require.True(t, val.Equal(got))
		}
	}

	for encoded, val := range expected {
		var key value.Value
		require.NoError(t, key.UnmarshalBinary([]byte(encoded)))

		got, err := s.Fetch(key)
		require.NoError(t, err, "key %s", key)
		assert.True(t, val.Equal(got), "key %s: expected %s, got %s", key, val, got)
	}
}
