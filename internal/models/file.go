// Package models defines the data shared by the upload core, the gateway and
// the attempt ledger.
package models

import (
	"bytes"
	"io"
)

// File is one candidate photo in a selection. Open may be called more than
// once; every call returns a fresh reader positioned at the start.
type File struct {
	// Name is the display name supplied by the user agent.
	Name string
	// Size is the byte size declared for the file.
	Size int64
	// ContentType is the declared MIME type, e.g. "image/jpeg".
	ContentType string
	// Open returns the file content.
	Open func() (io.ReadCloser, error)
}

// NewBytesFile builds a File backed by an in-memory buffer.
func NewBytesFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Selection is the ordered set of files picked in one selection event.
// A new selection replaces the previous one; it is never edited in place.
type Selection []File

// Names returns the display names in selection order.
func (s Selection) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}
