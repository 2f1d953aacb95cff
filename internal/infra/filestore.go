// Package infra implements infrastructure concerns (persistence, browser
// driver, process inspection, filesystem paths).
package infra

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
)

// FileStore implements domain.StatePort using a pretty-printed JSON file
// holding a top-level mapping from string key to record. Indentation is
// cosmetic; a missing file means an empty mapping and a malformed file
// degrades to an empty mapping with a logged warning.
type FileStore[T any] struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a file-backed store at path.
func NewFileStore[T any](path string, logger *zap.Logger) *FileStore[T] {
	return &FileStore[T]{path: path, logger: logger}
}

// Path returns the backing file path (for status output and tests).
func (s *FileStore[T]) Path() string {
	return s.path
}

// Load reads the full mapping from disk.
func (s *FileStore[T]) Load() map[string]T {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("store file not found, starting empty",
				zap.String("path", s.path))
		} else {
			s.logger.Warn("store file unreadable, starting empty",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return map[string]T{}
	}

	var m map[string]T
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("store file malformed, starting empty",
			zap.String("path", s.path),
			zap.Error(err))
		return map[string]T{}
	}
	if m == nil {
		m = map[string]T{}
	}
	return m
}

// Save writes the full mapping atomically (write temp + rename).
// A write interrupted before the rename leaves the previous file intact.
func (s *FileStore[T]) Save(m map[string]T) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode store %s: %w", s.path, err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write store %s: %w", s.path, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return fmt.Errorf("failed to replace store %s: %w", s.path, err)
	}
	return nil
}

// Ensure FileStore implements domain.StatePort.
var _ domain.StatePort[domain.Profile] = (*FileStore[domain.Profile])(nil)
