// Package db implements the exact backing store of the crusher.
//
// The DataBase keeps every key-value pair in memory and never loses or
// alters data on its own. Persistence happens on demand:
//
//   - Save writes <base>-db.dat, a binary snapshot, and <base>-db.txt, a
//     human readable dump that starts with the configuration history.
//   - Load reads <base>-db.dat back. A missing snapshot yields an empty
//     database; a malformed one is an error.
//
// Snapshot file format:
//
//  1. Magic number "CRUSHDB\x00"
//  2. Format version (one byte, currently 1)
//  3. A zstd stream containing the number of entries (uint64, little endian)
//     followed by each key and value as a uint32 length and the value's
//     canonical binary form.
//
// Entries are written in ascending order of the key's text form, so two
// saves of the same contents produce identical files.
package db
