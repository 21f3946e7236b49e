package value

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// Parse reads a single literal. The syntax follows the usual scripting
// language conventions:
//
//	42  -7  0x1F  3.25  -1e-3  inf  nan
//	"text"  'text'  "esc\t\"aped\""
//	(1, "a")  (1,)  ()  [1, 2]      tuples and lists both become Sequences
//	None  True  False               opaque tokens
//
// A parenthesized single element without a trailing comma is the element
// itself, not a one-element Sequence.
func Parse(s string) (Value, error) {
	p := &parser{src: s}
	v, err := p.parseValue(0)
	if err != nil {
		return None, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return None, p.errorf("unexpected %q after literal", p.src[p.pos:])
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// --------------------------------------------------------------------------
// Parser
// --------------------------------------------------------------------------

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(errors.Newf(format, args...), "literal offset %d", p.pos)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseValue(depth int) (Value, error) {
	if depth > maxDepth {
		return None, p.errorf("nesting too deep")
	}
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return None, p.errorf("unexpected end of literal")
	case c == '(':
		return p.parseSequence(depth, ')')
	case c == '[':
		return p.parseSequence(depth, ']')
	case c == '"' || c == '\'':
		return p.parseString(c)
	case c == '-' || c == '+':
		// a signed number literal is parsed whole so the smallest int64 fits
		if n := p.pos + 1; n < len(p.src) && (p.src[n] >= '0' && p.src[n] <= '9' || p.src[n] == '.') {
			return p.parseNumber()
		}
		p.pos++
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return None, err
		}
		if !v.IsNumber() {
			return None, p.errorf("unary %c applied to %s", c, v.Kind())
		}
		if c == '+' {
			return v, nil
		}
		if i, ok := v.Int(); ok {
			return Int(-i), nil
		}
		f, _ := v.Float()
		return Real(-f), nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case c == '_' || unicode.IsLetter(rune(c)):
		return p.parseIdent()
	default:
		return None, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) parseSequence(depth int, closing byte) (Value, error) {
	p.pos++ // opening bracket
	var (
		items    []Value
		trailing bool
	)
	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			break
		}
		item, err := p.parseValue(depth + 1)
		if err != nil {
			return None, err
		}
		items = append(items, item)
		trailing = false

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			trailing = true
		case closing:
		default:
			return None, p.errorf("expected ',' or %q", closing)
		}
	}

	// (x) is a parenthesized expression, (x,) is a tuple
	if closing == ')' && len(items) == 1 && !trailing {
		return items[0], nil
	}
	return Value{kind: KindSequence, seq: items}, nil
}

func (p *parser) parseString(quote byte) (Value, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return None, p.errorf("unterminated string")
		}
		if p.src[p.pos] == quote {
			p.pos++
			return Text(sb.String()), nil
		}
		// \xHH denotes a code point, not a raw byte
		r, _, tail, err := strconv.UnquoteChar(p.src[p.pos:], quote)
		if err != nil {
			return None, p.errorf("invalid escape in string")
		}
		sb.WriteRune(r)
		p.pos = len(p.src) - len(tail)
	}
}

func (p *parser) parseNumber() (Value, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	digits := p.pos
	isReal := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c >= '0' && c <= '9', c == '_':
		case c == 'x' || c == 'X' || c == 'o' || c == 'O' || c == 'b' || c == 'B':
		case c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F':
			if (c == 'e' || c == 'E') && !strings.HasPrefix(strings.ToLower(p.src[digits:]), "0x") {
				isReal = true
				if n := p.pos + 1; n < len(p.src) && (p.src[n] == '-' || p.src[n] == '+') {
					p.pos++
				}
			}
		case c == '.':
			isReal = true
		default:
			goto done
		}
		p.pos++
	}
done:
	lit := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if isReal {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return None, p.errorf("invalid real %q", lit)
		}
		return Real(f), nil
	}
	i, err := strconv.ParseInt(lit, 0, 64)
	if err != nil {
		return None, p.errorf("invalid integer %q", lit)
	}
	return Int(i), nil
}

func (p *parser) parseIdent() (Value, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			break
		}
		p.pos++
	}
	switch ident := p.src[start:p.pos]; ident {
	case "None", "True", "False":
		return Opaque(ident), nil
	case "inf":
		return Real(math.Inf(1)), nil
	case "nan":
		return Real(math.NaN()), nil
	default:
		return None, p.errorf("unknown identifier %q", ident)
	}
}
