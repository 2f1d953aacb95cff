package profile

import (
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
)

// History tracks per-profile last-open timestamps and open counts.
// Entries are written only when a launch succeeds.
type History struct {
	entries map[string]domain.HistoryEntry
	port    domain.StatePort[domain.HistoryEntry]
	logger  *zap.Logger
}

// NewHistory creates a history tracker backed by port.
func NewHistory(port domain.StatePort[domain.HistoryEntry], logger *zap.Logger) *History {
	return &History{
		entries: port.Load(),
		port:    port,
		logger:  logger,
	}
}

// RecordOpen increments the open count and refreshes the timestamp for a
// profile, then persists. Called exactly once per successful launch.
func (h *History) RecordOpen(name string) error {
	entry := h.entries[name]
	entry.OpenCount++
	entry.LastOpened = time.Now()
	h.entries[name] = entry

	if err := h.port.Save(h.entries); err != nil {
		return err
	}
	h.logger.Debug("recorded profile open",
		zap.String("profile", name),
		zap.Int("open_count", entry.OpenCount))
	return nil
}

// Get returns the entry for one profile. The zero entry is returned for
// profiles that were never opened.
func (h *History) Get(name string) (domain.HistoryEntry, bool) {
	entry, ok := h.entries[name]
	return entry, ok
}

// All returns the full history mapping.
func (h *History) All() map[string]domain.HistoryEntry {
	return h.entries
}

// Has reports whether a profile has ever been opened.
func (h *History) Has(name string) bool {
	_, ok := h.entries[name]
	return ok
}

// Remove deletes the entry for a profile, persisting if one existed.
// Used by the registry's remove cascade.
func (h *History) Remove(name string) error {
	if _, ok := h.entries[name]; !ok {
		return nil
	}
	delete(h.entries, name)
	return h.port.Save(h.entries)
}
