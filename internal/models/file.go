package models

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// UploadFile is an opaque handle to the locally selected file.
type UploadFile struct {
	Path string
	Name string
	Size int64
}

// NewUploadFile stats path and returns a handle describing it.
func NewUploadFile(path string) (*UploadFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &UploadFile{Path: path, Name: filepath.Base(path), Size: info.Size()}, nil
}

// Open opens the underlying file for reading.
func (f *UploadFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// Artifact is the transient CSV payload returned by the export endpoint.
//
// It exists only between retrieval and the save action; Release drops the payload.
type Artifact struct {
	Name        string
	ContentType string
	data        []byte
}

// NewArtifact wraps data under the given file name.
func NewArtifact(name, contentType string, data []byte) *Artifact {
	return &Artifact{Name: name, ContentType: contentType, data: data}
}

// Bytes returns the payload, or nil once released.
func (a *Artifact) Bytes() []byte { return a.data }

// Size returns the payload length.
func (a *Artifact) Size() int { return len(a.data) }

// Released reports whether Release has been called.
func (a *Artifact) Released() bool { return a.data == nil }

// Release drops the reference to the payload.
func (a *Artifact) Release() { a.data = nil }
