package requirements

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Source loads the raw requirements document from wherever it is kept.
type Source interface {
	Load(ctx context.Context) (Document, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (Document, error)

// Load calls f(ctx).
func (f SourceFunc) Load(ctx context.Context) (Document, error) {
	return f(ctx)
}

// MemorySource keeps the document in memory. It's useful for tests and for
// embedding a static matrix in the binary.
type MemorySource struct {
	mu  sync.RWMutex
	doc Document
}

// NewMemorySource returns a source holding a copy of doc.
func NewMemorySource(doc Document) *MemorySource {
	return &MemorySource{doc: doc.Clone()}
}

// Load returns a copy of the current document.
func (s *MemorySource) Load(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), nil
}

// Set replaces the document.
func (s *MemorySource) Set(doc Document) {
	s.mu.Lock()
	s.doc = doc.Clone()
	s.mu.Unlock()
}

// FileSource reads the document from a JSON or YAML file on every Load.
// The format is chosen by extension; anything but ".json" is read as YAML.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file the source reads.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Join(ErrSourceUnavailable, err)
	}
	defer f.Close()

	if filepath.Ext(s.path) == ".json" {
		return DecodeJSON(f)
	}
	return DecodeYAML(f)
}
