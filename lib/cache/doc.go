// Package cache implements the noisy cache: a bounded, direct-mapped and
// deliberately lossy lookup layer.
//
// The bucket of a key is the trailing BucketWidth bytes of the key's
// canonical binary form. Each bucket holds a single (key, value) pair, and
// distinct keys that share a bucket overwrite each other.
//
// Failure modes:
//
//   - False hit: a lookup accepts the entry in the bucket although it was
//     stored under a different key.
//   - Random hit: a lookup returns the value of an entry chosen uniformly at
//     random, regardless of the key.
//   - Key half-write: storing into an occupied bucket keeps the old key.
//   - Value half-write: storing into an occupied bucket keeps the old value.
//
// Failure tallies are recorded in a go-metrics registry under "cache.*".
package cache
