package reconcile_test

import (
	"math"
	"strings"
	"testing"

	"github.com/NamanBalaji/tdiff/internal/descriptor"
	"github.com/NamanBalaji/tdiff/internal/reconcile"
)

func file(path string, size int64, fp uint32, index int) *descriptor.File {
	dir, base := "", path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		dir, base = path[:i], path[i+1:]
	}

	name, ext := descriptor.SplitExt(base)
	return &descriptor.File{
		FullPath:    path,
		FileName:    base,
		DirPath:     dir,
		Size:        size,
		Fingerprint: fp,
		Name:        name,
		ExtName:     ext,
		NameTokens:  descriptor.Tokenize(name),
		Index:       index,
	}
}

func withKey(f *descriptor.File, key string) *descriptor.File {
	f.KeyName = key
	return f
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b *descriptor.File
		want float64
	}{
		{"different size", file("a.mkv", 1, 1, 0), file("a.mkv", 2, 1, 0), 0},
		{"fingerprint", file("a.mkv", 1, 7, 0), file("b.avi", 1, 7, 0), 0.99},
		{"full path", file("a.mkv", 1, 1, 0), file("a.mkv", 1, 2, 1), 0.87},
		{"ext differs", file("a.mkv", 1, 1, 0), file("a.avi", 1, 2, 2), 0.15},
		{"name equal", file("x/a.mkv", 1, 1, 0), file("y/a.mkv", 1, 2, 3), 0.73},
		{"missing key", withKey(file("a.mkv", 1, 1, 0), "E01"), file("b.mkv", 1, 2, 4), 0.31},
		{"key equal", withKey(file("a.mkv", 1, 1, 0), "E01"), withKey(file("b.mkv", 1, 2, 5), "E01"), 0.6},
		{"key contains", withKey(file("a.mkv", 1, 1, 0), "S01E01"), withKey(file("b.mkv", 1, 2, 0), "E01"), 0.59},
		{"key differs", withKey(file("a.mkv", 1, 1, 10), "E01"), withKey(file("b.mkv", 1, 2, 0), "E02"), 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconcile.Compare(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Compare = %v, want %v", got, tt.want)
			}
			if back := reconcile.Compare(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
				t.Errorf("Compare not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestCompareSingleFileBonus(t *testing.T) {
	a := file("a.mkv", 5, 1, descriptor.SingleFileIndex)
	b := file("a.mkv", 5, 2, 3)

	// distance 4 gives the smallest bonus of -0.01.
	if got := reconcile.Compare(a, b); math.Abs(got-0.79) > 1e-9 {
		t.Errorf("Compare = %v, want 0.79", got)
	}
}
