// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Profile is a named Edge browser-profile configuration.
// The profile name is the map key in the registry and on disk.
type Profile struct {
	Path              string    `json:"path"`
	PreferredLanguage string    `json:"preferred_language,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// HistoryEntry records when and how often a profile was opened.
// Written only on successful launches.
type HistoryEntry struct {
	LastOpened time.Time `json:"last_opened"`
	OpenCount  int       `json:"open_count"`
}

// BatchConfig is a named, reusable launch batch: which profiles to open
// and how aggressively to throttle the launches.
type BatchConfig struct {
	Profiles     []string `json:"profiles"`
	BatchSize    int      `json:"batch_size"`
	ProfileDelay Duration `json:"profile_delay"`
	BatchDelay   Duration `json:"batch_delay"`
}

// Defaults for batch throttling, matching the historical tool behavior.
const (
	DefaultBatchSize    = 5
	DefaultProfileDelay = Duration(2 * time.Second)
	DefaultBatchDelay   = Duration(30 * time.Second)
)

// WithDefaults fills zero-valued throttling parameters.
func (c BatchConfig) WithDefaults() BatchConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.ProfileDelay <= 0 {
		c.ProfileDelay = DefaultProfileDelay
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = DefaultBatchDelay
	}
	return c
}

// LaunchFailure pairs a profile name with the launch error message.
type LaunchFailure struct {
	Profile string `json:"profile"`
	Error   string `json:"error"`
}

// BatchResult classifies the outcome of a batched launch run.
// Transient, never persisted.
type BatchResult struct {
	Successful []string
	Failed     []LaunchFailure
	Skipped    []string
}

// LaunchSpec is everything a driver needs to start a browser session.
type LaunchSpec struct {
	// UserDataDir is the Edge user-data root shared by all profiles.
	UserDataDir string
	// ProfileDir selects the profile directory under UserDataDir
	// (e.g. "Profile 3").
	ProfileDir string
	// Locale is the preferred UI language, empty if unset.
	Locale string
	// Args are extra browser flags (stability flags etc.), passed verbatim.
	Args []string
}

// Duration wraps time.Duration with human-readable JSON encoding.
// Marshals as a duration string ("30s"). Unmarshals from a duration string
// or from a bare number, which is treated as seconds for compatibility with
// files written by the Python predecessor.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value * float64(time.Second)))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration value: %v", v)
	}
}
