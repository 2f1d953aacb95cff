// Package profile owns the persistent profile, history and batch-config
// state. Each store holds its mapping in memory and writes through an
// injected persistence port.
package profile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
)

// autoPathPrefix is the Edge naming convention for profile directories.
const autoPathPrefix = "Profile "

// Registry owns the set of named profile configurations.
type Registry struct {
	profiles map[string]domain.Profile
	port     domain.StatePort[domain.Profile]
	history  *History
	logger   *zap.Logger
}

// NewRegistry creates a profile registry backed by port. Removing a profile
// cascades into history.
func NewRegistry(port domain.StatePort[domain.Profile], history *History, logger *zap.Logger) *Registry {
	return &Registry{
		profiles: port.Load(),
		port:     port,
		history:  history,
		logger:   logger,
	}
}

// Add registers a new profile. If path is empty the next sequential
// "Profile {n}" directory name is derived from existing paths. Returns
// domain.ErrAlreadyExists if the name is taken.
func (r *Registry) Add(name, path, language string) (domain.Profile, error) {
	if _, ok := r.profiles[name]; ok {
		return domain.Profile{}, fmt.Errorf("profile %q: %w", name, domain.ErrAlreadyExists)
	}

	if path == "" {
		path = r.nextAutoPath()
		r.logger.Info("using auto-generated profile path",
			zap.String("profile", name),
			zap.String("path", path))
	}

	p := domain.Profile{
		Path:              path,
		PreferredLanguage: language,
		CreatedAt:         time.Now(),
	}
	r.profiles[name] = p

	if err := r.port.Save(r.profiles); err != nil {
		return domain.Profile{}, err
	}
	r.logger.Info("added profile", zap.String("profile", name), zap.String("path", path))
	return p, nil
}

// nextAutoPath scans existing paths of the form "Profile {n}" and returns
// "Profile {max+1}" ("Profile 1" when none match). Gaps are ignored.
func (r *Registry) nextAutoPath() string {
	next := 1
	for _, p := range r.profiles {
		rest, ok := strings.CutPrefix(p.Path, autoPathPrefix)
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		if n+1 > next {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%d", autoPathPrefix, next)
}

// Remove deletes a profile and any history entry for it, profile first.
// Returns domain.ErrNotFound if the name is unknown.
func (r *Registry) Remove(name string) error {
	if _, ok := r.profiles[name]; !ok {
		return fmt.Errorf("profile %q: %w", name, domain.ErrNotFound)
	}

	delete(r.profiles, name)
	if err := r.port.Save(r.profiles); err != nil {
		return err
	}

	if err := r.history.Remove(name); err != nil {
		return err
	}

	r.logger.Info("removed profile", zap.String("profile", name))
	return nil
}

// List returns the full profile mapping.
func (r *Registry) List() map[string]domain.Profile {
	return r.profiles
}

// Get returns one profile by name.
func (r *Registry) Get(name string) (domain.Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

// SetLanguage overwrites a profile's preferred language and persists.
// Returns domain.ErrNotFound if the name is unknown.
func (r *Registry) SetLanguage(name, code string) error {
	p, ok := r.profiles[name]
	if !ok {
		return fmt.Errorf("profile %q: %w", name, domain.ErrNotFound)
	}

	p.PreferredLanguage = code
	r.profiles[name] = p

	if err := r.port.Save(r.profiles); err != nil {
		return err
	}
	r.logger.Info("set preferred language",
		zap.String("profile", name),
		zap.String("language", code))
	return nil
}

// Unopened returns names of profiles with no history entry, sorted.
func (r *Registry) Unopened() []string {
	var names []string
	for name := range r.profiles {
		if !r.history.Has(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
