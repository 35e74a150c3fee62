package snapshotstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// Store persists Documents to a directory on disk as one JSON file per
// handle, following the encode-then-write shape of the event-sourcing
// snapshot manager this package is grounded on, minus compression and
// retention policy: every Save writes a new file, and older documents stay
// on disk until Delete removes them (§4.6).
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore constructs a Store rooted at dir. dir is created if missing.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshotstore: create dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) path(handle string) string {
	return filepath.Join(s.dir, handle+".json")
}

// Save serializes doc and writes it under a freshly generated ksuid handle,
// returning that handle so the caller can record "latest" (§4.6, §6).
func (s *Store) Save(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	handle := ksuid.New().String()
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("snapshotstore: marshal document: %w", err)
	}

	if err := os.WriteFile(s.path(handle), data, 0o644); err != nil {
		return "", fmt.Errorf("snapshotstore: write document: %w", err)
	}

	s.logger.Info("snapshot saved",
		zap.String("handle", handle),
		zap.Int("symbols", len(doc.Symbols)),
		zap.Int("bytes", len(data)),
	)
	return handle, nil
}

// Load reads and deserializes the document stored under handle.
func (s *Store) Load(ctx context.Context, handle string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	data, err := os.ReadFile(s.path(handle))
	if err != nil {
		return Document{}, fmt.Errorf("snapshotstore: read document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("snapshotstore: unmarshal document: %w", err)
	}
	if doc.Version != Version {
		return Document{}, fmt.Errorf("snapshotstore: unsupported document version %d", doc.Version)
	}

	s.logger.Info("snapshot loaded", zap.String("handle", handle), zap.Int("symbols", len(doc.Symbols)))
	return doc, nil
}

// Delete removes the document stored under handle. Missing handles are not
// an error.
func (s *Store) Delete(handle string) error {
	if err := os.Remove(s.path(handle)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("snapshotstore: delete document: %w", err)
	}
	return nil
}
