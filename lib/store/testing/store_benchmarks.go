package testing

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
)

// RunStoreBenchmarks runs all benchmarks for a store. The layers are not
// safe for concurrent use, so every benchmark runs on a single goroutine.
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Store", func(b *testing.B) {
			benchmarkStore(b, factory(b))
		})

		b.Run("StoreExisting", func(b *testing.B) {
			benchmarkStoreExisting(b, factory(b))
		})

		b.Run("Fetch", func(b *testing.B) {
			benchmarkFetch(b, factory(b))
		})

		b.Run("Fetch(not)", func(b *testing.B) {
			benchmarkFetchMissing(b, factory(b))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory(b))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchKey(i int) value.Value {
	return value.Text(fmt.Sprintf("test-key-%d", i))
}

func benchValue(i int) value.Value {
	return value.Seq(value.Int(int64(i)), value.Text("test-value"))
}

func benchmarkStore(b *testing.B, s store.IStore) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Store(benchKey(i), benchValue(i))
	}
}

func benchmarkStoreExisting(b *testing.B, s store.IStore) {
	const numKeys = 1_000
	for i := 0; i < numKeys; i++ {
		s.Store(benchKey(i), benchValue(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Store(benchKey(i%numKeys), benchValue(i))
	}
}

func benchmarkFetch(b *testing.B, s store.IStore) {
	const numKeys = 1_000
	for i := 0; i < numKeys; i++ {
		s.Store(benchKey(i), benchValue(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Fetch(benchKey(i % numKeys))
	}
}

func benchmarkFetchMissing(b *testing.B, s store.IStore) {
	s.Store(benchKey(-1), benchValue(-1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Fetch(benchKey(i))
	}
}

// benchmarkMixedUsage runs 80% fetches and 20% stores over a small key set
func benchmarkMixedUsage(b *testing.B, s store.IStore) {
	const numKeys = 100
	for i := 0; i < numKeys; i++ {
		s.Store(benchKey(i), benchValue(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%5 == 0 {
			s.Store(benchKey(i%numKeys), benchValue(i))
		} else {
			_, _ = s.Fetch(benchKey(i % numKeys))
		}
	}
}
