package value

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// --------------------------------------------------------------------------
// Kinds
// --------------------------------------------------------------------------

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindOpaque    Kind = iota // Anything without a corruption rule (None, True, False, ...)
	KindCharacter             // A single code point
	KindInteger               // A signed 64 bit integer
	KindReal                  // A float64 that is not treated as an integer
	KindText                  // A string of code points
	KindSequence              // An ordered list of values (rendered as a tuple)
)

func (k Kind) String() string {
	switch k {
	case KindOpaque:
		return "Opaque"
	case KindCharacter:
		return "Character"
	case KindInteger:
		return "Integer"
	case KindReal:
		return "Real"
	case KindText:
		return "Text"
	case KindSequence:
		return "Sequence"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Value Type
// --------------------------------------------------------------------------

// Value is an immutable tagged value. Keys and values of every store in
// this module are Values. The zero Value is the opaque token None.
type Value struct {
	kind Kind
	i    int64   // Integer, Character (as rune)
	f    float64 // Real
	s    string  // Text, Opaque token
	seq  []Value // Sequence
}

// None is the opaque null value.
var None = Value{}

// Char creates a Character value.
func Char(r rune) Value { return Value{kind: KindCharacter, i: int64(r)} }

// Int creates an Integer value.
func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

// Real creates a Real value.
func Real(f float64) Value { return Value{kind: KindReal, f: f} }

// Text creates a Text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Opaque creates a value that is passed through every corruption rule unchanged.
func Opaque(token string) Value { return Value{kind: KindOpaque, s: token} }

// Seq creates a Sequence from the given items. The slice is copied.
func Seq(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, seq: cp}
}

// TextFromRunes builds a Text value from code points. Runes that are not
// valid Unicode scalar values are stored as U+FFFD.
func TextFromRunes(runes []rune) Value {
	var sb strings.Builder
	for _, r := range runes {
		sb.WriteRune(r)
	}
	return Text(sb.String())
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

func (v Value) Kind() Kind { return v.kind }

// Rune returns the code point of a Character.
func (v Value) Rune() (rune, bool) {
	return rune(v.i), v.kind == KindCharacter
}

// Int returns the integer of an Integer value.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// Float returns the numeric value of an Integer or Real as float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindReal:
		return v.f, true
	default:
		return 0, false
	}
}

// Str returns the string of a Text value, the single code point of a
// Character as a string, or the token of an Opaque value.
func (v Value) Str() string {
	if v.kind == KindCharacter {
		return string(rune(v.i))
	}
	return v.s
}

// Items returns the elements of a Sequence. The returned slice must not be modified.
func (v Value) Items() []Value {
	return v.seq
}

// Len returns the number of elements of a Sequence or the number of code
// points of a Text. Other kinds report 0.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindText:
		return utf8.RuneCountInString(v.s)
	case KindCharacter:
		return 1
	default:
		return 0
	}
}

// IsNumber reports whether v is an Integer or a Real.
func (v Value) IsNumber() bool {
	return v.kind == KindInteger || v.kind == KindReal
}

// IsNegative reports whether v is a number below zero.
func (v Value) IsNegative() bool {
	switch v.kind {
	case KindInteger:
		return v.i < 0
	case KindReal:
		return v.f < 0
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Comparison
// --------------------------------------------------------------------------

// Equal reports whether two values are structurally equal. A Character and
// a Text holding exactly that code point are equal. Integers and Reals are
// never equal to each other.
func (v Value) Equal(o Value) bool {
	if v.isTextLike() && o.isTextLike() {
		return v.Str() == o.Str()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == o.i
	case KindReal:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindOpaque:
		return v.token() == o.token()
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) isTextLike() bool {
	return v.kind == KindText || v.kind == KindCharacter
}

func (v Value) token() string {
	if v.s == "" {
		return "None"
	}
	return v.s
}

// --------------------------------------------------------------------------
// Canonical Text Form
// --------------------------------------------------------------------------

// String returns the canonical text form of the value. The form can be read
// back with Parse.
func (v Value) String() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

// Size returns the size proxy used by the failure model: the number of code
// points of the canonical text form. A top-level Text or Character counts
// its bare runes, while text nested in a Sequence counts with its quotes.
func (v Value) Size() int {
	if v.isTextLike() {
		return utf8.RuneCountInString(v.Str())
	}
	return utf8.RuneCountInString(v.String())
}

func (v Value) writeTo(sb *strings.Builder) {
	switch v.kind {
	case KindCharacter, KindText:
		sb.WriteString(strconv.Quote(v.Str()))
	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindReal:
		sb.WriteString(formatReal(v.f))
	case KindSequence:
		sb.WriteByte('(')
		for i, item := range v.seq {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.writeTo(sb)
		}
		if len(v.seq) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	default:
		sb.WriteString(v.token())
	}
}

// formatReal renders a float so that it is never mistaken for an integer.
func formatReal(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
