// Package store defines the contract shared by the layers of the crusher
// stack and the error type they report.
//
// Key Components:
//
//   - IStore Interface: Store and Fetch over value.Value keys and values.
//     It is satisfied by the lossy cache (lib/cache), the exact database
//     (lib/db) and the broker façade (lib/broker). The shared conformance
//     suite in lib/store/testing runs against all of them.
//
//   - Error System: A structured error with a RetCode and a message.
//     Absence of data is the only error a read reports (RetCNotFound);
//     corruption is never an error. Configuration commands fail with
//     RetCConfigError. RetCSnapshotMissing marks a missing snapshot, which
//     the database recovers from locally.
//
// Errors can be matched with errors.Is against the sentinels:
//
//	if _, err := b.Fetch(key); errors.Is(err, store.ErrNotFound) {
//		// key is absent
//	}
package store
