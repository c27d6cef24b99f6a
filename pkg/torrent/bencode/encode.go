package bencode

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ErrEncoding is returned for values that have no bencode representation.
var ErrEncoding = errors.New("bencode: unsupported value")

// Marshal returns the bencode encoding of v. Go maps and structs become
// dictionaries with sorted keys; a Value is written as stored.
func Marshal(v any) ([]byte, error) {
	tree, err := ValueOf(v)
	if err != nil {
		return nil, err
	}
	return tree.MarshalBencode()
}

// ValueOf converts a Go value into a Value tree. Integers, strings, byte
// slices and arrays, slices, string-keyed maps and structs are
// supported. Nil pointers and interfaces become empty byte strings.
//
// Struct fields use the "bencode" tag for their key, "-" to skip and
// ",omitempty" to drop zero values. Untagged fields are keyed by their
// name with the first letter lowercased.
func ValueOf(v any) (Value, error) {
	return valueOf(reflect.ValueOf(v))
}

func valueOf(v reflect.Value) (Value, error) {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return Bytes(nil), nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return Bytes(nil), nil
	}

	if tree, ok := v.Interface().(Value); ok {
		return tree, nil
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(v.Uint())), nil
	case reflect.String:
		return String(v.String()), nil
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return Bytes(b), nil
		}
		items := make([]Value, v.Len())
		for i := range items {
			item, err := valueOf(v.Index(i))
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return List(items...), nil
	case reflect.Map:
		return mapValue(v)
	case reflect.Struct:
		return structValue(v)
	default:
		return Value{}, fmt.Errorf("%w: type %v", ErrEncoding, v.Type())
	}
}

func mapValue(v reflect.Value) (Value, error) {
	if v.Type().Key().Kind() != reflect.String {
		return Value{}, fmt.Errorf("%w: map key must be string, got %v", ErrEncoding, v.Type().Key())
	}

	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		val, err := valueOf(v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())))
		if err != nil {
			return Value{}, fmt.Errorf("key %q: %w", k, err)
		}
		entries = append(entries, Entry{Key: k, Value: val})
	}
	return Value{kind: KindDict, entries: entries}, nil
}

func structValue(v reflect.Value) (Value, error) {
	t := v.Type()
	entries := make([]Entry, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(f.Tag.Get("bencode"), ",")
		if name == "-" {
			continue
		}
		fv := v.Field(i)
		if opts == "omitempty" && fv.IsZero() {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name[:1]) + f.Name[1:]
		}

		val, err := valueOf(fv)
		if err != nil {
			return Value{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Key: name, Value: val})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return Value{kind: KindDict, entries: entries}, nil
}

// MarshalBencode encodes the tree rooted at v. Dictionary entries are
// written in their stored order so a decoded tree re-encodes to the
// bytes it came from.
func (v Value) MarshalBencode() ([]byte, error) {
	return v.appendTo(nil)
}

func (v Value) appendTo(buf []byte) ([]byte, error) {
	var err error
	switch v.kind {
	case KindInt:
		buf = append(buf, byte(TokenInteger))
		buf = strconv.AppendInt(buf, v.num, 10)
		return append(buf, byte(TokenEnding)), nil
	case KindString:
		return appendString(buf, v.text), nil
	case KindBytes:
		buf = strconv.AppendInt(buf, int64(len(v.raw)), 10)
		buf = append(buf, byte(TokenSeparator))
		return append(buf, v.raw...), nil
	case KindList:
		buf = append(buf, byte(TokenList))
		for _, item := range v.list {
			if buf, err = item.appendTo(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, byte(TokenEnding)), nil
	case KindDict:
		buf = append(buf, byte(TokenDict))
		for _, e := range v.entries {
			buf = appendString(buf, e.Key)
			if buf, err = e.Value.appendTo(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, byte(TokenEnding)), nil
	default:
		return nil, fmt.Errorf("%w: %s value", ErrEncoding, v.kind)
	}
}

func appendString(buf []byte, s string) []byte {
	buf = strconv.AppendInt(buf, int64(len(s)), 10)
	buf = append(buf, byte(TokenSeparator))
	return append(buf, s...)
}
