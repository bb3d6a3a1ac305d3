package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"catalogmirror/scraper/internal/domain"

	log "github.com/sirupsen/logrus"
)

// SnapshotStore persists the catalog snapshot between runs.
type SnapshotStore interface {
	Save(snapshot domain.Snapshot) error
	Load() domain.Snapshot
}

type fileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore stores the snapshot as a single JSON document at path.
func NewFileSnapshotStore(path string) SnapshotStore {
	return &fileSnapshotStore{path: path}
}

// Save replaces the stored document atomically; a reader sees either the old or the new snapshot.
func (s *fileSnapshotStore) Save(snapshot domain.Snapshot) error {
	snapshot.Normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	log.Debugf("💾 Snapshot written to %s", s.path)
	return nil
}

// Load returns the stored snapshot, or an empty one when the file is missing or unreadable.
func (s *fileSnapshotStore) Load() domain.Snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("⚠️ Failed to read snapshot %s: %v", s.path, err)
		}
		return domain.EmptySnapshot()
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.Warnf("⚠️ Snapshot %s is corrupt, serving empty catalog: %v", s.path, err)
		return domain.EmptySnapshot()
	}

	snapshot.Normalize()
	return snapshot
}
