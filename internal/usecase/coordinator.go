// Package usecase contains application business logic: session coordination
// and batch scheduling.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
	"github.com/eliteGoblin/edgectl/internal/profile"
)

// stabilityArgs are passed on every launch to keep Edge from crashing under
// repeated automated starts: sandboxing off, shm usage off, suppressed
// logging, and an OS-assigned debugging port so instances never collide.
var stabilityArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-logging",
	"--remote-debugging-port=0",
}

// Coordinator owns the set of currently active sessions, at most one per
// profile name. Construct one per run and pass it explicitly; there is no
// process-wide session state.
type Coordinator struct {
	registry    *profile.Registry
	history     *profile.History
	driver      domain.SessionDriver
	sleeper     domain.Sleeper
	userDataDir string
	sessions    map[string]domain.SessionHandle
	logger      *zap.Logger
}

// NewCoordinator creates a session coordinator. userDataDir is the Edge
// user-data root shared by all launched profiles.
func NewCoordinator(
	registry *profile.Registry,
	history *profile.History,
	driver domain.SessionDriver,
	sleeper domain.Sleeper,
	userDataDir string,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		registry:    registry,
		history:     history,
		driver:      driver,
		sleeper:     sleeper,
		userDataDir: userDataDir,
		sessions:    make(map[string]domain.SessionHandle),
		logger:      logger,
	}
}

// Open launches a session for a registered profile and tracks the handle.
// Returns domain.ErrNotFound for unknown names and a *domain.LaunchError on
// driver failure. History is updated only on success.
func (c *Coordinator) Open(ctx context.Context, name string) (domain.SessionHandle, error) {
	p, ok := c.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("profile %q: %w", name, domain.ErrNotFound)
	}

	spec := domain.LaunchSpec{
		UserDataDir: c.userDataDir,
		ProfileDir:  p.Path,
		Locale:      p.PreferredLanguage,
		Args:        stabilityArgs,
	}

	handle, err := c.driver.Launch(ctx, spec)
	if err != nil {
		c.logger.Error("failed to open profile",
			zap.String("profile", name),
			zap.Error(err))
		return nil, &domain.LaunchError{Profile: name, Err: err}
	}

	if old, tracked := c.sessions[name]; tracked {
		// Known quirk: the previous handle is replaced without being
		// closed, so that browser window is no longer reachable from here.
		c.logger.Warn("profile already open, replacing tracked session",
			zap.String("profile", name),
			zap.String("orphaned_session", old.ID()))
	}
	c.sessions[name] = handle

	if err := c.history.RecordOpen(name); err != nil {
		// The session is live and tracked; a bookkeeping write failure
		// must not turn a successful launch into a failed one.
		c.logger.Warn("failed to persist history",
			zap.String("profile", name),
			zap.Error(err))
	}

	c.logger.Info("opened profile", zap.String("profile", name))
	return handle, nil
}

// Switch closes fromName's session if it has one (close errors are logged,
// never aborting the switch) and then opens toName. toName is opened even
// when fromName had no session or failed to close.
func (c *Coordinator) Switch(ctx context.Context, fromName, toName string) (domain.SessionHandle, error) {
	if handle, ok := c.sessions[fromName]; ok {
		if err := c.driver.Close(ctx, handle); err != nil {
			closeErr := &domain.CloseError{Profile: fromName, Err: err}
			c.logger.Warn("error closing profile during switch", zap.Error(closeErr))
		} else {
			delete(c.sessions, fromName)
			c.logger.Info("closed profile", zap.String("profile", fromName))
		}
	}

	return c.Open(ctx, toName)
}

// CloseAll closes every active session best-effort and returns the number
// actually closed. A failed close leaves that session tracked and is logged
// as a warning.
func (c *Coordinator) CloseAll(ctx context.Context) int {
	count := 0
	for _, name := range c.Active() {
		handle := c.sessions[name]
		if err := c.driver.Close(ctx, handle); err != nil {
			closeErr := &domain.CloseError{Profile: name, Err: err}
			c.logger.Warn("error closing profile", zap.Error(closeErr))
			continue
		}
		delete(c.sessions, name)
		count++
		c.logger.Info("closed profile", zap.String("profile", name))
	}
	return count
}

// OpenMany opens profiles in order with a fixed delay between attempts.
// Unregistered names are skipped when skipMissing is set; otherwise the
// whole operation aborts with domain.ErrNotFound and no partial result.
// Launch failures are logged and the remaining names still open. Returns
// the mapping of names that opened successfully.
func (c *Coordinator) OpenMany(ctx context.Context, names []string, delayBetween time.Duration, skipMissing bool) (map[string]domain.SessionHandle, error) {
	opened := make(map[string]domain.SessionHandle)

	for i, name := range names {
		if _, ok := c.registry.Get(name); !ok {
			if skipMissing {
				c.logger.Warn("skipping non-existent profile", zap.String("profile", name))
				continue
			}
			return nil, fmt.Errorf("profile %q: %w", name, domain.ErrNotFound)
		}

		handle, err := c.Open(ctx, name)
		if err == nil {
			opened[name] = handle
		}

		// Delay after every attempt except the final item, to keep
		// launches from piling up.
		if i < len(names)-1 {
			if err := c.sleeper.Sleep(ctx, delayBetween); err != nil {
				return opened, err
			}
		}
	}

	return opened, nil
}

// Active returns names of currently tracked sessions, sorted.
func (c *Coordinator) Active() []string {
	names := make([]string, 0, len(c.sessions))
	for name := range c.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
