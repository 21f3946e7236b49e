package db

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("db")

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// HistoryEntry is a configuration command together with the number of
// operations that had been executed when it arrived.
type HistoryEntry struct {
	Ops     uint64
	Command string
}

// entry keeps the decoded key next to its value so snapshots and dumps
// do not have to decode map keys.
type entry struct {
	key value.Value
	val value.Value
}

// --------------------------------------------------------------------------
// DataBase
// --------------------------------------------------------------------------

// DataBase is an exact in-memory key-value store that is persisted to a
// snapshot on demand. It never corrupts data; keys stay until removed.
//
// Keys are compared by their canonical binary form.
type DataBase struct {
	filename string
	data     *xsync.MapOf[string, entry]
}

// New creates a database persisted to filename and loads its snapshot.
// A missing snapshot yields an empty database.
func New(filename string) (*DataBase, error) {
	d := &DataBase{
		filename: filename,
		data:     xsync.NewMapOf[string, entry](),
	}
	if err := d.Load(); err != nil {
		return nil, err
	}
	return d, nil
}

// Name returns the file name the database persists to by default.
func (d *DataBase) Name() string {
	return d.filename
}

// Store inserts or overwrites a key-value pair.
func (d *DataBase) Store(key, val value.Value) {
	d.data.Store(key.Key(), entry{key: key, val: val})
}

// Fetch returns the value for key or a RetCNotFound error.
func (d *DataBase) Fetch(key value.Value) (value.Value, error) {
	e, ok := d.data.Load(key.Key())
	if !ok {
		return value.None, store.NotFound(key)
	}
	return e.val, nil
}

// Remove deletes key and returns its value, or a RetCNotFound error if
// the key is not in the database.
func (d *DataBase) Remove(key value.Value) (value.Value, error) {
	e, ok := d.data.LoadAndDelete(key.Key())
	if !ok {
		return value.None, store.NotFound(key)
	}
	return e.val, nil
}

// Len returns the number of stored keys.
func (d *DataBase) Len() int {
	return d.data.Size()
}

// Range calls fn for every pair in ascending order of the key's text form
// until fn returns false.
func (d *DataBase) Range(fn func(key, val value.Value) bool) {
	for _, e := range d.sorted() {
		if !fn(e.key, e.val) {
			return
		}
	}
}

// sorted returns a snapshot of all entries ordered by key text.
func (d *DataBase) sorted() []entry {
	entries := make([]entry, 0, d.data.Size())
	d.data.Range(func(_ string, e entry) bool {
		entries = append(entries, e)
		return true
	})
	slices.SortFunc(entries, func(a, b entry) int {
		return strings.Compare(a.key.String(), b.key.String())
	})
	return entries
}

// basename resolves the optional file name argument of Save and Load and
// strips its extension.
func (d *DataBase) basename(filename []string) string {
	name := d.filename
	if len(filename) > 0 && filename[0] != "" {
		name = filename[0]
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
