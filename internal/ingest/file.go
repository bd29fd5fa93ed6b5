// ABOUTME: File sources the coordinator can upload
// ABOUTME: Disk-backed and in-memory implementations of the File interface

package ingest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// File is a document waiting to be uploaded.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// PathFile is a file on disk.
type PathFile string

// Name returns the base name of the path.
func (p PathFile) Name() string {
	return filepath.Base(string(p))
}

// Open opens the file for reading.
func (p PathFile) Open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

// bytesFile is an in-memory document.
type bytesFile struct {
	name string
	data []byte
}

// BytesFile wraps in-memory content as a File.
func BytesFile(name string, data []byte) File {
	return bytesFile{name: name, data: data}
}

func (b bytesFile) Name() string { return b.name }

func (b bytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}
