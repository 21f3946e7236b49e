package db

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	magicNum   = "CRUSHDB\x00" // snapshot format identifier
	dbVersion  = 1             // snapshot format version
	textHeader = "Crusher ver 0.92"

	dataSuffix = "-db.dat"
	textSuffix = "-db.txt"

	maxItemLen = 1 << 30 // upper bound for a single encoded key or value
)

// --------------------------------------------------------------------------
// Files
// --------------------------------------------------------------------------

// Save writes the snapshot to <base>-db.dat and a human readable dump to
// <base>-db.txt, where base is filename (or the database's own file name)
// without its extension. The dump lists the configuration history before
// the data.
func (d *DataBase) Save(history []HistoryEntry, filename ...string) error {
	base := d.basename(filename)
	entries := d.sorted()

	if err := writeFile(base+dataSuffix, func(w io.Writer) error {
		return writeSnapshot(w, entries)
	}); err != nil {
		return errors.Wrapf(err, "saving snapshot %s", base+dataSuffix)
	}

	if err := writeFile(base+textSuffix, func(w io.Writer) error {
		return writeDump(w, history, entries)
	}); err != nil {
		return errors.Wrapf(err, "saving dump %s", base+textSuffix)
	}

	Logger.Infof("saved %d entries to %s", len(entries), base+dataSuffix)
	return nil
}

// Load replaces the contents of the database with the snapshot at
// <base>-db.dat. A missing snapshot leaves the database empty.
func (d *DataBase) Load(filename ...string) error {
	path := d.basename(filename) + dataSuffix

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		Logger.Infof("no snapshot at %s, starting empty", path)
		d.data.Clear()
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "opening snapshot %s", path)
	}
	defer f.Close()

	if err := d.LoadSnapshot(f); err != nil {
		return errors.Wrapf(err, "loading snapshot %s", path)
	}

	Logger.Infof("loaded %d entries from %s", d.data.Size(), path)
	return nil
}

// SaveSnapshot writes the binary snapshot of the database to w.
func (d *DataBase) SaveSnapshot(w io.Writer) error {
	return writeSnapshot(w, d.sorted())
}

// LoadSnapshot replaces the contents of the database with the snapshot
// read from r. The database is left untouched if the snapshot is invalid.
func (d *DataBase) LoadSnapshot(r io.Reader) error {
	data, err := readSnapshot(r)
	if err != nil {
		return err
	}
	d.data = data
	return nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// --------------------------------------------------------------------------
// Snapshot Format
// --------------------------------------------------------------------------

// writeSnapshot writes the header uncompressed, followed by a zstd stream
// holding the entry count and length prefixed binary keys and values.
func writeSnapshot(w io.Writer, entries []entry) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(dbVersion)); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(bw)
	if err != nil {
		return err
	}

	if err := binary.Write(zw, binary.LittleEndian, uint64(len(entries))); err != nil {
		_ = zw.Close()
		return err
	}

	var buf []byte
	for _, e := range entries {
		for _, v := range [2]value.Value{e.key, e.val} {
			buf = v.AppendBinary(buf[:0])
			if err := binary.Write(zw, binary.LittleEndian, uint32(len(buf))); err != nil {
				_ = zw.Close()
				return err
			}
			if _, err := zw.Write(buf); err != nil {
				_ = zw.Close()
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

func readSnapshot(r io.Reader) (*xsync.MapOf[string, entry], error) {
	br := bufio.NewReader(r)

	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	if string(magicBytes) != magicNum {
		return nil, errors.New("invalid file format: magic number mismatch")
	}

	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "reading version")
	}
	if version != dbVersion {
		return nil, errors.Newf("unsupported version: %d (expected %d)", version, dbVersion)
	}

	zr, err := zstd.NewReader(br)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var count uint64
	if err := binary.Read(zr, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrap(err, "reading entry count")
	}

	data := xsync.NewMapOf[string, entry]()
	for i := uint64(0); i < count; i++ {
		key, err := readValue(zr)
		if err != nil {
			return nil, errors.Wrapf(err, "reading key of entry %d", i)
		}
		val, err := readValue(zr)
		if err != nil {
			return nil, errors.Wrapf(err, "reading value of entry %d", i)
		}
		data.Store(key.Key(), entry{key: key, val: val})
	}

	return data, nil
}

func readValue(r io.Reader) (value.Value, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return value.None, err
	}
	if n > maxItemLen {
		return value.None, errors.Newf("item length %d exceeds limit", n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return value.None, err
	}

	var v value.Value
	if err := v.UnmarshalBinary(buf); err != nil {
		return value.None, err
	}
	return v, nil
}

// --------------------------------------------------------------------------
// Text Dump
// --------------------------------------------------------------------------

func writeDump(w io.Writer, history []HistoryEntry, entries []entry) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, textHeader); err != nil {
		return err
	}
	for _, h := range history {
		if _, err := fmt.Fprintf(bw, "CONF\t%s\t%d\n", h.Command, h.Ops); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", e.key, e.val); err != nil {
			return err
		}
	}

	return bw.Flush()
}
