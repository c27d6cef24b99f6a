package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/NamanBalaji/tdiff/internal/errors"
)

// OSFileSystem reads manifests from and writes exports to the local disk.
type OSFileSystem struct {
	maxManifestSize int64
}

// NewOSFileSystem creates a filesystem that refuses manifests larger
// than maxManifestSize bytes. A non-positive limit disables the check.
func NewOSFileSystem(maxManifestSize int64) *OSFileSystem {
	return &OSFileSystem{maxManifestSize: maxManifestSize}
}

// ReadManifest reads a whole manifest file into memory.
func (fs *OSFileSystem) ReadManifest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", errors.ErrNotAFile, path)
	}

	if fs.maxManifestSize <= 0 {
		return io.ReadAll(f)
	}

	if info.Size() > fs.maxManifestSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", errors.ErrTooLarge, path, info.Size(), fs.maxManifestSize)
	}

	// The file may grow between Stat and Read.
	data, err := io.ReadAll(io.LimitReader(f, fs.maxManifestSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > fs.maxManifestSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", errors.ErrTooLarge, path, fs.maxManifestSize)
	}

	return data, nil
}

// CreateFile creates a new file
func (fs *OSFileSystem) CreateFile(path string) (io.WriteCloser, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return os.Create(path)
}

// EnsureDirectory ensures a directory exists
func (fs *OSFileSystem) EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

// FileExists checks if a file exists
func (fs *OSFileSystem) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
