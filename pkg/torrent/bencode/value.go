package bencode

import (
	"bytes"
	"fmt"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindString
	KindBytes
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	default:
		return "invalid"
	}
}

// Entry is a single key/value pair of a dictionary.
type Entry struct {
	Key   string
	Value Value
}

// Value is a decoded bencode value. Exactly one payload is meaningful,
// selected by Kind. Dictionaries additionally carry the byte span of
// their own encoding in the source buffer.
type Value struct {
	kind    Kind
	num     int64
	text    string
	raw     []byte
	list    []Value
	entries []Entry

	spanStart int
	spanEnd   int
}

// Int returns an integer value.
func Int(n int64) Value {
	return Value{kind: KindInt, num: n}
}

// String returns a text value.
func String(s string) Value {
	return Value{kind: KindString, text: s}
}

// Bytes returns a raw byte string value.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, raw: b}
}

// List returns a list value holding vs in order.
func List(vs ...Value) Value {
	return Value{kind: KindList, list: vs}
}

// Dict returns a dictionary holding entries in the given order. It
// panics on duplicate keys.
func Dict(entries ...Entry) Value {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Key]; dup {
			panic(fmt.Sprintf("bencode: duplicate dictionary key %q", e.Key))
		}
		seen[e.Key] = struct{}{}
	}
	return Value{kind: KindDict, entries: entries}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer payload.
func (v Value) Int() (int64, bool) {
	return v.num, v.kind == KindInt
}

// Text returns the payload of a string value. Raw byte strings are
// returned as-is, without UTF-8 validation.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.text, true
	case KindBytes:
		return string(v.raw), true
	}
	return "", false
}

// Raw returns the payload of a byte string value.
func (v Value) Raw() ([]byte, bool) {
	switch v.kind {
	case KindBytes:
		return v.raw, true
	case KindString:
		return []byte(v.text), true
	}
	return nil, false
}

// List returns the elements of a list value.
func (v Value) List() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// Entries returns the entries of a dictionary value in source order.
func (v Value) Entries() ([]Entry, bool) {
	return v.entries, v.kind == KindDict
}

// Get looks up key in a dictionary value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindDict {
		return Value{}, false
	}
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Span returns the [start, end) offsets of a decoded dictionary within
// the buffer it was decoded from. Values not produced by the decoder
// report (0, 0).
func (v Value) Span() (start, end int) {
	return v.spanStart, v.spanEnd
}

// Equal reports whether a and b hold the same tree. Spans are ignored,
// and string and raw byte payloads compare by content.
func Equal(a, b Value) bool {
	if isByteString(a.kind) && isByteString(b.kind) {
		ar, _ := a.Raw()
		br, _ := b.Raw()
		return bytes.Equal(ar, br)
	}
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindInt:
		return a.num == b.num
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for i := range a.entries {
			if a.entries[i].Key != b.entries[i].Key || !Equal(a.entries[i].Value, b.entries[i].Value) {
				return false
			}
		}
		return true
	}
	return true
}

func isByteString(k Kind) bool {
	return k == KindString || k == KindBytes
}
