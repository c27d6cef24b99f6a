package bencode

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Decoder errors.
var (
	ErrMalformedInput = errors.New("malformed bencode")
	ErrMaxDepth       = fmt.Errorf("%w: nesting too deep", ErrMalformedInput)
)

// Token identifies syntactic markers in the bencode stream.
type Token byte

const (
	TokenDict      Token = 'd'
	TokenInteger   Token = 'i'
	TokenList      Token = 'l'
	TokenEnding    Token = 'e'
	TokenSeparator Token = ':'
)

// binaryKey names the dictionary key whose byte string value holds
// concatenated piece hashes rather than text.
const binaryKey = "pieces"

const defaultMaxDepth = 512

// Decode parses a single complete bencoded value from data. Trailing
// bytes after the value are rejected.
func Decode(data []byte) (Value, error) {
	d := NewDecoder(data)

	v, err := d.Decode()
	if err != nil {
		return Value{}, err
	}

	if d.pos != len(d.data) {
		return Value{}, d.errorf("trailing data after top-level value")
	}

	return v, nil
}

// Decoder reads bencoded values from an in-memory buffer, tracking the
// read offset so dictionary spans can be reported.
type Decoder struct {
	data     []byte
	pos      int
	maxDepth int
}

// NewDecoder creates a new decoder over data. The decoder keeps a
// reference to data; raw byte string values alias it.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data, maxDepth: defaultMaxDepth}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.pos
}

// Decode decodes the next value.
func (d *Decoder) Decode() (Value, error) {
	return d.decodeValue(0, false)
}

func (d *Decoder) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrMalformedInput, fmt.Sprintf(format, args...), d.pos)
}

func (d *Decoder) peek() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, d.errorf("unexpected end of input")
	}
	return d.data[d.pos], nil
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.peek()
	if err != nil {
		return 0, err
	}
	d.pos++
	return b, nil
}

// decodeValue decodes a single value. When binary is set, a byte string
// is returned raw instead of as text.
func (d *Decoder) decodeValue(depth int, binary bool) (Value, error) {
	if depth > d.maxDepth {
		return Value{}, ErrMaxDepth
	}

	b, err := d.peek()
	if err != nil {
		return Value{}, err
	}

	switch {
	case b == byte(TokenInteger):
		n, err := d.decodeInt()
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case b == byte(TokenList):
		return d.decodeList(depth)
	case b == byte(TokenDict):
		return d.decodeDict(depth)
	case isDigit(b):
		raw, err := d.decodeBytes()
		if err != nil {
			return Value{}, err
		}
		if binary {
			return Bytes(raw), nil
		}
		return String(decodeText(raw)), nil
	default:
		return Value{}, d.errorf("unexpected type tag %q", b)
	}
}

// decodeInt decodes i<digits>e. A single leading minus sign is allowed.
func (d *Decoder) decodeInt() (int64, error) {
	// 'i'
	if _, err := d.readByte(); err != nil {
		return 0, err
	}

	negative := false
	if b, err := d.peek(); err == nil && b == '-' {
		negative = true
		d.pos++
	}

	n, err := d.readDigits(TokenEnding)
	if err != nil {
		return 0, err
	}

	if negative {
		return -n, nil
	}
	return n, nil
}

// readDigits reads a non-empty run of decimal digits terminated by end
// and consumes the terminator.
func (d *Decoder) readDigits(end Token) (int64, error) {
	var n int64
	count := 0

	for {
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		if b == byte(end) {
			break
		}
		if !isDigit(b) {
			d.pos--
			return 0, d.errorf("expected digit or %q, got %q", byte(end), b)
		}

		digit := int64(b - '0')
		if n > (math.MaxInt64-digit)/10 {
			return 0, d.errorf("number overflows int64")
		}
		n = n*10 + digit
		count++
	}

	if count == 0 {
		d.pos--
		return 0, d.errorf("missing digits before %q", byte(end))
	}

	return n, nil
}

// decodeBytes decodes <len>:<bytes>. The result aliases the input.
func (d *Decoder) decodeBytes() ([]byte, error) {
	length, err := d.readDigits(TokenSeparator)
	if err != nil {
		return nil, err
	}

	if length > int64(len(d.data)-d.pos) {
		return nil, d.errorf("string length %d exceeds remaining %d bytes", length, len(d.data)-d.pos)
	}

	start := d.pos
	d.pos += int(length)

	return d.data[start:d.pos:d.pos], nil
}

func (d *Decoder) decodeList(depth int) (Value, error) {
	// 'l'
	if _, err := d.readByte(); err != nil {
		return Value{}, err
	}

	list := []Value{}
	for {
		b, err := d.peek()
		if err != nil {
			return Value{}, err
		}

		if b == byte(TokenEnding) {
			d.pos++
			break
		}

		v, err := d.decodeValue(depth+1, false)
		if err != nil {
			return Value{}, err
		}

		list = append(list, v)
	}

	return List(list...), nil
}

func (d *Decoder) decodeDict(depth int) (Value, error) {
	start := d.pos

	// 'd'
	if _, err := d.readByte(); err != nil {
		return Value{}, err
	}

	entries := []Entry{}
	seen := make(map[string]struct{})

	for {
		b, err := d.peek()
		if err != nil {
			return Value{}, err
		}

		if b == byte(TokenEnding) {
			d.pos++
			break
		}

		if !isDigit(b) {
			return Value{}, d.errorf("dictionary key must be a byte string, got %q", b)
		}

		keyOffset := d.pos
		raw, err := d.decodeBytes()
		if err != nil {
			return Value{}, fmt.Errorf("decoding dict key: %w", err)
		}
		key := decodeText(raw)

		if _, dup := seen[string(raw)]; dup {
			d.pos = keyOffset
			return Value{}, d.errorf("duplicate dictionary key %q", key)
		}
		seen[string(raw)] = struct{}{}

		val, err := d.decodeValue(depth+1, key == binaryKey)
		if err != nil {
			return Value{}, fmt.Errorf("decoding dict value for key %q: %w", key, err)
		}

		entries = append(entries, Entry{Key: key, Value: val})
	}

	v := Value{kind: KindDict, entries: entries, spanStart: start, spanEnd: d.pos}
	return v, nil
}

// decodeText interprets raw as UTF-8, replacing invalid sequences with
// U+FFFD.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	out, _ := unicode.UTF8.NewDecoder().Bytes(raw)
	return string(out)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
