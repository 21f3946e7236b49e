// Package testing provides a standardised conformance suite for the layers
// that satisfy the store.IStore interface (cache, database and broker).
//
// With every failure rate at zero and a bucket width that gives each key
// its own bucket, all layers must behave like an exact key-value store.
//
// Example usage:
//
//	func Test(t *testing.T) {
//		storetesting.RunStoreTests(t, "Cache", func(t testing.TB) store.IStore {
//			return cache.New(rng, cache.Settings{}, nil)
//		})
//	}
package testing
