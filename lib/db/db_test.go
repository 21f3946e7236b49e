package db

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/crusher/lib/store"
	storetesting "github.com/ValentinKolb/crusher/lib/store/testing"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t testing.TB) *DataBase {
	d, err := New(filepath.Join(t.TempDir(), "test_crusher"))
	require.NoError(t, err)
	return d
}

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "DataBase", func(t testing.TB) store.IStore {
		return newDB(t)
	})
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "DataBase", func(t testing.TB) store.IStore {
		return newDB(t)
	})
}

func TestNewWithoutSnapshot(t *testing.T) {
	d := newDB(t)
	assert.Equal(t, 0, d.Len())
}

func TestRemove(t *testing.T) {
	d := newDB(t)
	d.Store(value.Text("k"), value.Int(7))

	got, err := d.Remove(value.Text("k"))
	require.NoError(t, err)
	assert.True(t, value.Int(7).Equal(got))
	assert.Equal(t, 0, d.Len())

	_, err = d.Remove(value.Text("k"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = d.Fetch(value.Text("k"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRangeOrder(t *testing.T) {
	d := newDB(t)
	d.Store(value.Text("b"), value.Int(2))
	d.Store(value.Text("a"), value.Int(1))
	d.Store(value.Text("c"), value.Int(3))

	var keys []string
	d.Range(func(key, _ value.Value) bool {
		keys = append(keys, key.Str())
		return len(keys) < 2
	})
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "test_crusher")

	d, err := New(name)
	require.NoError(t, err)

	pairs := map[string]value.Value{
		`"h"`:                  value.Text("v"),
		`(1, 2.5, "x")`:        value.MustParse(`[-3, ("nested",)]`),
		`-42`:                  value.Real(1e-9),
		`("goodbye", "world")`: value.Int(13),
	}
	for k, v := range pairs {
		d.Store(value.MustParse(k), v)
	}

	require.NoError(t, d.Save(nil))
	assert.FileExists(t, name+dataSuffix)
	assert.FileExists(t, name+textSuffix)

	loaded, err := New(name)
	require.NoError(t, err)
	assert.Equal(t, len(pairs), loaded.Len())

	for k, v := range pairs {
		got, err := loaded.Fetch(value.MustParse(k))
		require.NoError(t, err, "key %s", k)
		assert.True(t, v.Equal(got), "key %s: expected %s, got %s", k, v, got)
	}
}

func TestSaveStripsExtension(t *testing.T) {
	dir := t.TempDir()
	d := newDB(t)
	d.Store(value.Int(1), value.Int(2))

	require.NoError(t, d.Save(nil, filepath.Join(dir, "other.dat")))
	assert.FileExists(t, filepath.Join(dir, "other-db.dat"))

	fresh := newDB(t)
	require.NoError(t, fresh.Load(filepath.Join(dir, "other")))
	assert.Equal(t, 1, fresh.Len())
}

func TestSaveIsDeterministic(t *testing.T) {
	d := newDB(t)
	for i := 0; i < 50; i++ {
		d.Store(value.Int(int64(i)), value.Text("v"))
	}

	var first, second bytes.Buffer
	require.NoError(t, d.SaveSnapshot(&first))
	require.NoError(t, d.SaveSnapshot(&second))
	assert.Equal(t, first.Bytes(), second.Bytes())
	assert.True(t, bytes.HasPrefix(first.Bytes(), []byte(magicNum)))
}

func TestTextDump(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "dump")
	d, err := New(name)
	require.NoError(t, err)

	d.Store(value.Text("b"), value.Seq(value.Int(1), value.Real(2)))
	d.Store(value.Text("a"), value.Text("x"))

	history := []HistoryEntry{
		{Ops: 0, Command: "defaults"},
		{Ops: 12, Command: "(0, 16, 0.0, 0.0, 0.0, 0.0)"},
	}
	require.NoError(t, d.Save(history))

	raw, err := os.ReadFile(name + textSuffix)
	require.NoError(t, err)

	expected := strings.Join([]string{
		"Crusher ver 0.92",
		"CONF\tdefaults\t0",
		"CONF\t(0, 16, 0.0, 0.0, 0.0, 0.0)\t12",
		"\"a\"\t\"x\"",
		"\"b\"\t(1, 2.0)",
	}, "\n") + "\n"
	assert.Equal(t, expected, string(raw))
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "broken")

	require.NoError(t, os.WriteFile(name+dataSuffix, []byte("NOTADB\x00\x01garbage"), 0o644))
	_, err := New(name)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(name+dataSuffix, []byte(magicNum+"\x09"), 0o644))
	_, err = New(name)
	assert.ErrorContains(t, err, "unsupported version")
}

func TestLoadSnapshotKeepsContentsOnError(t *testing.T) {
	d := newDB(t)
	d.Store(value.Int(1), value.Int(1))

	err := d.LoadSnapshot(strings.NewReader(magicNum))
	assert.Error(t, err)
	assert.Equal(t, 1, d.Len())
}

func TestLoadMissingClears(t *testing.T) {
	d := newDB(t)
	d.Store(value.Int(1), value.Int(1))

	require.NoError(t, d.Load(filepath.Join(t.TempDir(), "nothing")))
	assert.Equal(t, 0, d.Len())
}
