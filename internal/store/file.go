package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/memeboard/memeboard/internal/models"
)

// ErrUnavailable indicates the document file is missing, unreadable or
// malformed. Callers must not assume a partial write happened.
var ErrUnavailable = errors.New("document store unavailable")

// FileStore persists the whole document as one JSON file. Save is atomic with
// respect to readers: the document is written to a sibling temp file and
// renamed over the canonical path, so a reader never observes a half-written
// file.
//
// Update serializes load-mutate-save cycles within this process. Concurrent
// writers in separate processes can still lose updates to each other; that is
// an accepted limitation of the flat-file design.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Init creates an empty document file when none exists yet.
func (s *FileStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %v", ErrUnavailable, s.path, err)
	}
	return s.write(models.NewDocument())
}

// Load reads and decodes the full document. Reads never block behind the
// writer mutex; the atomic rename in write guarantees a consistent file.
func (s *FileStore) Load() (*models.Document, error) {
	return s.load()
}

// Save writes the document atomically over the canonical path.
func (s *FileStore) Save(doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(doc)
}

// Update runs one load-mutate-save cycle under the store mutex. When fn
// returns an error the document is not written.
func (s *FileStore) Update(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.write(doc)
}

func (s *FileStore) load() (*models.Document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
	}
	var doc models.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, s.path, err)
	}
	if doc.Users == nil {
		doc.Users = map[string]models.User{}
	}
	if doc.Memes == nil {
		doc.Memes = []models.Meme{}
	}
	return &doc, nil
}

func (s *FileStore) write(doc *models.Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrUnavailable, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", ErrUnavailable, s.path, err)
	}
	return nil
}
