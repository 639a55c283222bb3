package domain

import "fmt"

// RawDocument represents opaque document bytes before normalisation.
type RawDocument struct {
	// Name identifies the document (file name or URL).
	Name string

	// Type is the decoded format.
	Type FileType

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-supplied key-value pairs.
	Metadata map[string]any
}

// Size returns the content length in bytes.
func (r *RawDocument) Size() int64 {
	if r == nil {
		return 0
	}
	return int64(len(r.Content))
}

// Validate rejects documents the loader must not decode. A maxSize of zero
// or less disables the size check.
func (r *RawDocument) Validate(maxSize int64) error {
	if r == nil {
		return fmt.Errorf("%w: no document", ErrInvalidInput)
	}
	if maxSize > 0 && r.Size() > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, r.Size(), maxSize)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, r.Type)
	}
	return nil
}
