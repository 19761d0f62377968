// ABOUTME: JSON file implementation of Backend with atomic replace and an optional mirror
// ABOUTME: The whole document is rewritten on every save; the mirror is best-effort

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const fileMode = 0o600

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithMirror sets a secondary path that receives a copy of every saved document.
// It is read back when the primary file is missing.
func WithMirror(path string) FileOption {
	return func(s *FileStore) {
		s.mirrorPath = path
	}
}

// WithSchemaValidation makes Load reject documents that do not match the document schema.
func WithSchemaValidation() FileOption {
	return func(s *FileStore) {
		s.validate = true
	}
}

// WithLogger sets the logger used for mirror warnings.
func WithLogger(logger *slog.Logger) FileOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// FileStore keeps the document as a single JSON file.
type FileStore struct {
	// mu orders lazy creation of the primary file against saves.
	mu sync.Mutex

	path       string
	mirrorPath string
	validate   bool
	logger     *slog.Logger
}

// NewFileStore creates a store backed by the JSON file at path.
// The parent directory is created if needed; the file itself is created lazily on first Load.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", ErrStorageUnavailable, err)
	}

	s.logger.Info("file store initialized", "path", path, "mirror", s.mirrorPath)
	return s, nil
}

// Path returns the primary file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document from disk. A missing file is seeded from the mirror when
// one exists, otherwise it is created with empty collections.
func (s *FileStore) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.ensureExists(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, s.path, err)
	}

	if s.validate {
		if err := ValidateDocument(data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, s.path, err)
		}
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrStorageUnavailable, s.path, err)
	}
	return doc, nil
}

// Save replaces the file with doc. The primary write goes through a temp file and
// rename, so a reader sees either the old or the new document. Mirror failures are
// logged and otherwise ignored.
func (s *FileStore) Save(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("%w: encoding document: %v", ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	err = writeFileAtomic(s.path, data)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorageUnavailable, s.path, err)
	}

	if s.mirrorPath != "" {
		if err := s.writeMirror(data); err != nil {
			s.logger.Warn("mirror write failed", "mirror", s.mirrorPath, "error", err)
		}
	}
	return nil
}

// Close is a no-op; the file is not held open between calls.
func (s *FileStore) Close() error {
	return nil
}

// ensureExists creates the primary file if it is missing. The check and the
// write happen under mu so a concurrent Save is never overwritten.
func (s *FileStore) ensureExists() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %v", ErrStorageUnavailable, s.path, err)
	}

	data, seeded := s.readMirror()
	if !seeded {
		data, err = encodeDocument(NewDocument())
		if err != nil {
			return fmt.Errorf("%w: encoding document: %v", ErrStorageUnavailable, err)
		}
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrStorageUnavailable, s.path, err)
	}

	if seeded {
		s.logger.Info("restored data file from mirror", "path", s.path, "mirror", s.mirrorPath)
	}
	return nil
}

// readMirror returns the mirror contents if a parseable mirror exists.
func (s *FileStore) readMirror() ([]byte, bool) {
	if s.mirrorPath == "" {
		return nil, false
	}
	data, err := os.ReadFile(s.mirrorPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("mirror unreadable", "mirror", s.mirrorPath, "error", err)
		}
		return nil, false
	}
	if _, err := decodeDocument(data); err != nil {
		s.logger.Warn("mirror is not a valid document", "mirror", s.mirrorPath, "error", err)
		return nil, false
	}
	return data, true
}

func (s *FileStore) writeMirror(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.mirrorPath), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(s.mirrorPath, data)
}

// writeFileAtomic writes data to a temp file next to path, syncs it and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// encodeDocument serializes with 2-space indentation and a trailing newline.
func encodeDocument(doc *Document) ([]byte, error) {
	if doc == nil {
		doc = NewDocument()
	}
	doc.normalize()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	doc.normalize()
	return &doc, nil
}
