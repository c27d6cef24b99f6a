package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/NamanBalaji/tdiff/pkg/torrent/bencode"
	"github.com/NamanBalaji/tdiff/pkg/torrent/metainfo"
)

var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

type ErrorCategory string

const (
	CategoryMalformed ErrorCategory = "MALFORMED" // Not valid bencode
	CategoryInvalid   ErrorCategory = "INVALID"   // Valid bencode, not a usable torrent
	CategoryIO        ErrorCategory = "IO"        // Reading the manifest failed
	CategoryContext   ErrorCategory = "CONTEXT"   // Context cancellation
	CategoryUnknown   ErrorCategory = "UNKNOWN"   // Unclassified errors
)

// ManifestError records why one manifest of a comparison was dropped.
// Sibling manifests are unaffected.
type ManifestError struct {
	Err       error         // Original error
	Category  ErrorCategory // General category
	Source    string        // Name of the manifest
	Index     int           // Input position, -1 if not part of a comparison
	Timestamp time.Time     // When the error occurred
	Details   map[string]interface{}
}

// Error implements the error interface
func (e *ManifestError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Source, e.Err)
	}
	return fmt.Sprintf("[%s] #%d %s: %v", e.Category, e.Index, e.Source, e.Err)
}

// Unwrap provides the underlying cause for error unwrapping (compatible with errors.As)
func (e *ManifestError) Unwrap() error {
	return e.Err
}

func newManifestError(err error, category ErrorCategory, source string, index int) *ManifestError {
	return &ManifestError{
		Err:       err,
		Category:  category,
		Source:    source,
		Index:     index,
		Timestamp: time.Now(),
	}
}

// NewMalformedError creates an error for a buffer that is not valid bencode
func NewMalformedError(err error, source string, index int) *ManifestError {
	return newManifestError(err, CategoryMalformed, source, index)
}

// NewInvalidError creates an error for bencode that is not a valid torrent
func NewInvalidError(err error, source string, index int) *ManifestError {
	return newManifestError(err, CategoryInvalid, source, index)
}

// NewIOError creates an I/O related error
func NewIOError(err error, source string, index int) *ManifestError {
	return newManifestError(err, CategoryIO, source, index)
}

// NewContextError creates a context cancellation error
func NewContextError(err error, source string, index int) *ManifestError {
	return newManifestError(err, CategoryContext, source, index)
}

// Classify wraps err in a ManifestError with the category matching its
// cause. An existing ManifestError is returned unchanged.
func Classify(err error, source string, index int) *ManifestError {
	if err == nil {
		return nil
	}

	var me *ManifestError
	if As(err, &me) {
		return me
	}

	switch {
	case Is(err, bencode.ErrMalformedInput):
		return NewMalformedError(err, source, index)
	case Is(err, metainfo.ErrInvalidManifest):
		return NewInvalidError(err, source, index)
	case Is(err, context.Canceled), Is(err, context.DeadlineExceeded):
		return NewContextError(err, source, index)
	case isIO(err):
		return NewIOError(err, source, index)
	default:
		return newManifestError(err, CategoryUnknown, source, index)
	}
}

func isIO(err error) bool {
	var pathErr *fs.PathError
	return As(err, &pathErr) || Is(err, fs.ErrNotExist) || Is(err, fs.ErrPermission) ||
		Is(err, ErrTooLarge) || Is(err, ErrNotAFile)
}

// Common sentinel errors
var (
	ErrTooLarge   = New("manifest too large")
	ErrNoSources  = New("no manifests to compare")
	ErrAllFailed  = New("no manifest could be parsed")
	ErrNotAFile   = New("not a regular file")
	ErrBadHashAlg = New("unsupported identity hash")
)

// IsMalformed reports whether err comes from a bencode grammar violation
func IsMalformed(err error) bool {
	var me *ManifestError
	if As(err, &me) {
		return me.Category == CategoryMalformed
	}
	return Is(err, bencode.ErrMalformedInput)
}

// IsInvalid reports whether err comes from a manifest structure violation
func IsInvalid(err error) bool {
	var me *ManifestError
	if As(err, &me) {
		return me.Category == CategoryInvalid
	}
	return Is(err, metainfo.ErrInvalidManifest)
}

// CategoryOf returns the category of err, or CategoryUnknown.
func CategoryOf(err error) ErrorCategory {
	var me *ManifestError
	if As(err, &me) {
		return me.Category
	}
	return CategoryUnknown
}

// WithDetails adds additional context to a ManifestError
func WithDetails(err error, details map[string]interface{}) error {
	var me *ManifestError
	if !As(err, &me) {
		return err
	}

	if me.Details == nil {
		me.Details = make(map[string]interface{})
	}

	for k, v := range details {
		me.Details[k] = v
	}

	return me
}
