package bencode_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/NamanBalaji/tdiff/pkg/torrent/bencode"
)

func TestMarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    []byte
		wantErr error
	}{
		{"empty-string", "", []byte("0:"), nil},
		{"ascii-string", "spam", []byte("4:spam"), nil},
		{"binary-string", string([]byte{0xff, 0x00, 0x61}), []byte("3:\xff\x00a"), nil},

		{"empty-bytes", []byte{}, []byte("0:"), nil},
		{"bytes-data", []byte("hello"), []byte("5:hello"), nil},
		{"byte-array", [3]byte{'a', 'b', 'c'}, []byte("3:abc"), nil},

		{"int-zero", int(0), []byte("i0e"), nil},
		{"int-negative", int(-7), []byte("i-7e"), nil},
		{"uint64", uint64(9876543210), []byte("i9876543210e"), nil},

		{"empty-list", []any{}, []byte("le"), nil},
		{"list-mixed", []any{"spam", int(1), []byte("foo")}, []byte("l4:spami1e3:fooe"), nil},

		{"empty-dict", map[string]any{}, []byte("de"), nil},
		{"dict-sorted", map[string]any{"z": []any{1, "a"}, "a": map[string]any{"x": []byte{'y'}}},
			[]byte("d1:ad1:x1:ye1:zli1e1:aee"), nil},

		{"tree-keeps-order", bencode.Dict(
			bencode.Entry{Key: "z", Value: bencode.Int(1)},
			bencode.Entry{Key: "a", Value: bencode.List(bencode.String("x"), bencode.Bytes([]byte{0}))},
		), []byte("d1:zi1e1:al1:x1:\x00ee"), nil},

		{"bool-type", true, nil, bencode.ErrEncoding},
		{"float-type", 3.14, nil, bencode.ErrEncoding},
		{"int-keyed-map", map[int]string{1: "a"}, nil, bencode.ErrEncoding},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := bencode.Marshal(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Marshal(%#v) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if tc.wantErr == nil && !bytes.Equal(out, tc.want) {
				t.Errorf("Marshal(%#v)\nGot:  %q\nWant: %q", tc.input, out, tc.want)
			}
		})
	}
}

func TestMarshalStructTags(t *testing.T) {
	type file struct {
		Length int      `bencode:"length"`
		Path   []string `bencode:"path"`
		MD5    string   `bencode:"md5sum,omitempty"`
	}

	out, err := bencode.Marshal(file{Length: 3, Path: []string{"a", "b.txt"}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := "d6:lengthi3e4:pathl1:a5:b.txtee"
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestValueOfBuildsSortedTree(t *testing.T) {
	type file struct {
		Path   []string `bencode:"path"`
		Length int64    `bencode:"length"`
		Skip   string   `bencode:"-"`
	}

	tree, err := bencode.ValueOf(map[string]any{
		"info":     map[string]any{"files": []file{{Path: []string{"a"}, Length: 7}}},
		"announce": "http://tracker/announce",
	})
	if err != nil {
		t.Fatalf("ValueOf failed: %v", err)
	}

	entries, ok := tree.Entries()
	if !ok || len(entries) != 2 || entries[0].Key != "announce" || entries[1].Key != "info" {
		t.Fatalf("entries = %+v, want announce,info", entries)
	}

	info, _ := tree.Get("info")
	files, _ := info.Get("files")
	list, _ := files.List()
	if len(list) != 1 {
		t.Fatalf("got %d files, want 1", len(list))
	}
	fileEntries, _ := list[0].Entries()
	if len(fileEntries) != 2 || fileEntries[0].Key != "length" || fileEntries[1].Key != "path" {
		t.Errorf("file entries = %+v, want length,path", fileEntries)
	}
}

func TestRoundTripTree(t *testing.T) {
	trees := []struct {
		name string
		tree bencode.Value
	}{
		{"int", bencode.Int(-42)},
		{"string", bencode.String("hello world")},
		{"empty-list", bencode.List()},
		{"nested", bencode.List(bencode.Int(1), bencode.List(bencode.String("a")), bencode.Dict())},
		{
			"torrent-like",
			bencode.Dict(
				bencode.Entry{Key: "announce", Value: bencode.String("http://tracker/announce")},
				bencode.Entry{Key: "info", Value: bencode.Dict(
					bencode.Entry{Key: "name", Value: bencode.String("show")},
					bencode.Entry{Key: "piece length", Value: bencode.Int(16384)},
					bencode.Entry{Key: "pieces", Value: bencode.Bytes(bytes.Repeat([]byte{0xfe}, 20))},
					bencode.Entry{Key: "length", Value: bencode.Int(100)},
				)},
			),
		},
	}

	for _, tc := range trees {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := bencode.Marshal(tc.tree)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			decoded, err := bencode.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if !bencode.Equal(decoded, tc.tree) {
				t.Fatalf("round trip mismatch for %q", encoded)
			}

			if decoded.Kind() == bencode.KindDict {
				start, end := decoded.Span()
				if start != 0 || end != len(encoded) {
					t.Errorf("top-level span = [%d,%d), want [0,%d)", start, end, len(encoded))
				}
			}

			again, err := bencode.Marshal(decoded)
			if err != nil {
				t.Fatalf("re-Marshal failed: %v", err)
			}
			if !bytes.Equal(again, encoded) {
				t.Errorf("re-encoded %q, want %q", again, encoded)
			}
		})
	}
}
