package value

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// Tags of the canonical binary form
const (
	tagText     byte = 0x01
	tagInteger  byte = 0x02
	tagReal     byte = 0x03
	tagSequence byte = 0x04
	tagOpaque   byte = 0x05
)

// maxDepth bounds the nesting of decoded sequences.
const maxDepth = 64

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// AppendBinary appends the canonical binary form of v to dst.
// Equal values always produce identical bytes.
func (v Value) AppendBinary(dst []byte) []byte {
	switch v.kind {
	case KindCharacter, KindText:
		s := v.Str()
		dst = append(dst, tagText)
		dst = binary.AppendUvarint(dst, uint64(len(s)))
		dst = append(dst, s...)
	case KindInteger:
		dst = append(dst, tagInteger)
		dst = binary.AppendVarint(dst, v.i)
	case KindReal:
		dst = append(dst, tagReal)
		dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(v.f))
	case KindSequence:
		dst = append(dst, tagSequence)
		dst = binary.AppendUvarint(dst, uint64(len(v.seq)))
		for _, item := range v.seq {
			dst = item.AppendBinary(dst)
		}
	default:
		tok := v.token()
		dst = append(dst, tagOpaque)
		dst = binary.AppendUvarint(dst, uint64(len(tok)))
		dst = append(dst, tok...)
	}
	return dst
}

// MarshalBinary implements encoding.BinaryMarshaler. It never fails.
func (v Value) MarshalBinary() ([]byte, error) {
	return v.AppendBinary(nil), nil
}

// Key returns the canonical binary form as a string, suitable as a map key.
func (v Value) Key() string {
	return string(v.AppendBinary(nil))
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (v *Value) UnmarshalBinary(data []byte) error {
	decoded, rest, err := Decode(data)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.Newf("value: %d trailing bytes after value", len(rest))
	}
	*v = decoded
	return nil
}

// Decode reads one value from the front of data and returns the remaining bytes.
func Decode(data []byte) (Value, []byte, error) {
	return decode(data, 0)
}

func decode(data []byte, depth int) (Value, []byte, error) {
	if depth > maxDepth {
		return None, nil, errors.New("value: nesting too deep")
	}
	if len(data) == 0 {
		return None, nil, errors.New("value: unexpected end of input")
	}
	tag, data := data[0], data[1:]

	switch tag {
	case tagText, tagOpaque:
		n, read := binary.Uvarint(data)
		if read <= 0 || uint64(len(data)-read) < n {
			return None, nil, errors.New("value: truncated string")
		}
		s := string(data[read : read+int(n)])
		rest := data[read+int(n):]
		if tag == tagText {
			return Text(s), rest, nil
		}
		return Opaque(s), rest, nil

	case tagInteger:
		i, read := binary.Varint(data)
		if read <= 0 {
			return None, nil, errors.New("value: truncated integer")
		}
		return Int(i), data[read:], nil

	case tagReal:
		if len(data) < 8 {
			return None, nil, errors.New("value: truncated real")
		}
		return Real(math.Float64frombits(binary.BigEndian.Uint64(data))), data[8:], nil

	case tagSequence:
		n, read := binary.Uvarint(data)
		if read <= 0 || n > uint64(len(data)) {
			return None, nil, errors.New("value: truncated sequence")
		}
		data = data[read:]
		items := make([]Value, 0, n)
		for i := uint64(0); i < n; i++ {
			var (
				item Value
				err  error
			)
			item, data, err = decode(data, depth+1)
			if err != nil {
				return None, nil, err
			}
			items = append(items, item)
		}
		return Value{kind: KindSequence, seq: items}, data, nil

	default:
		return None, nil, errors.Newf("value: unknown tag 0x%02x", tag)
	}
}
