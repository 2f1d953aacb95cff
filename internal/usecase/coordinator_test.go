package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
	"github.com/eliteGoblin/edgectl/internal/profile"
)

// memoryPort implements domain.StatePort in memory for testing
type memoryPort[T any] struct {
	data map[string]T
}

func (p *memoryPort[T]) Load() map[string]T {
	if p.data == nil {
		return map[string]T{}
	}
	return p.data
}

func (p *memoryPort[T]) Save(m map[string]T) error {
	p.data = m
	return nil
}

// mockHandle implements domain.SessionHandle for testing
type mockHandle struct {
	id string
}

func (h *mockHandle) ID() string { return h.id }

// mockDriver implements domain.SessionDriver for testing.
// Launches and closes are keyed by profile dir.
type mockDriver struct {
	launchErrs map[string]error
	closeErrs  map[string]error
	launched   []domain.LaunchSpec
	closed     []string
}

func (d *mockDriver) Launch(ctx context.Context, spec domain.LaunchSpec) (domain.SessionHandle, error) {
	if err := d.launchErrs[spec.ProfileDir]; err != nil {
		return nil, err
	}
	d.launched = append(d.launched, spec)
	return &mockHandle{id: spec.ProfileDir}, nil
}

func (d *mockDriver) Close(ctx context.Context, handle domain.SessionHandle) error {
	if err := d.closeErrs[handle.ID()]; err != nil {
		return err
	}
	d.closed = append(d.closed, handle.ID())
	return nil
}

// recordingSleeper implements domain.Sleeper, recording every wait.
type recordingSleeper struct {
	sleeps []time.Duration
	err    error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.sleeps = append(s.sleeps, d)
	return nil
}

type fixture struct {
	registry    *profile.Registry
	history     *profile.History
	driver      *mockDriver
	sleeper     *recordingSleeper
	coordinator *Coordinator
}

// newFixture registers the given profiles, each with path equal to its name.
func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	logger := zap.NewNop()
	history := profile.NewHistory(&memoryPort[domain.HistoryEntry]{}, logger)
	registry := profile.NewRegistry(&memoryPort[domain.Profile]{}, history, logger)
	for _, name := range names {
		_, err := registry.Add(name, name, "")
		require.NoError(t, err)
	}

	driver := &mockDriver{launchErrs: map[string]error{}, closeErrs: map[string]error{}}
	sleeper := &recordingSleeper{}
	coordinator := NewCoordinator(registry, history, driver, sleeper, "/tmp/edge-user-data", logger)
	return &fixture{
		registry:    registry,
		history:     history,
		driver:      driver,
		sleeper:     sleeper,
		coordinator: coordinator,
	}
}

func TestOpenUnknownProfile(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.Open(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.driver.launched)
}

func TestOpenBuildsLaunchSpec(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.Add("Work", "Profile 3", "en-US")
	require.NoError(t, err)

	handle, err := f.coordinator.Open(context.Background(), "Work")
	require.NoError(t, err)
	assert.Equal(t, "Profile 3", handle.ID())

	require.Len(t, f.driver.launched, 1)
	spec := f.driver.launched[0]
	assert.Equal(t, "/tmp/edge-user-data", spec.UserDataDir)
	assert.Equal(t, "Profile 3", spec.ProfileDir)
	assert.Equal(t, "en-US", spec.Locale)
	assert.Contains(t, spec.Args, "--no-sandbox")
	assert.Contains(t, spec.Args, "--remote-debugging-port=0")

	entry, ok := f.history.Get("Work")
	require.True(t, ok)
	assert.Equal(t, 1, entry.OpenCount)
	assert.Equal(t, []string{"Work"}, f.coordinator.Active())
}

func TestOpenLaunchFailure(t *testing.T) {
	f := newFixture(t, "Work")
	f.driver.launchErrs["Work"] = errors.New("driver exploded")

	_, err := f.coordinator.Open(context.Background(), "Work")

	var launchErr *domain.LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, "Work", launchErr.Profile)
	assert.ErrorContains(t, err, "driver exploded")
	assert.False(t, f.history.Has("Work"), "no history update on failure")
	assert.Empty(t, f.coordinator.Active())
}

func TestReopenReplacesTrackedSessionWithoutClosing(t *testing.T) {
	f := newFixture(t, "Work")

	_, err := f.coordinator.Open(context.Background(), "Work")
	require.NoError(t, err)
	_, err = f.coordinator.Open(context.Background(), "Work")
	require.NoError(t, err)

	assert.Equal(t, []string{"Work"}, f.coordinator.Active())
	assert.Empty(t, f.driver.closed, "prior handle is replaced, not closed")

	entry, _ := f.history.Get("Work")
	assert.Equal(t, 2, entry.OpenCount)
}

func TestSwitchClosesSourceThenOpensTarget(t *testing.T) {
	f := newFixture(t, "A", "B")

	_, err := f.coordinator.Open(context.Background(), "A")
	require.NoError(t, err)

	_, err = f.coordinator.Switch(context.Background(), "A", "B")
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, f.driver.closed)
	assert.Equal(t, []string{"B"}, f.coordinator.Active())
}

func TestSwitchWithoutActiveSource(t *testing.T) {
	f := newFixture(t, "A", "B")

	_, err := f.coordinator.Switch(context.Background(), "A", "B")
	require.NoError(t, err)

	assert.Empty(t, f.driver.closed, "nothing to close")
	assert.Equal(t, []string{"B"}, f.coordinator.Active())
}

func TestSwitchSwallowsCloseFailure(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.driver.closeErrs["A"] = errors.New("close failed")

	_, err := f.coordinator.Open(context.Background(), "A")
	require.NoError(t, err)

	_, err = f.coordinator.Switch(context.Background(), "A", "B")
	require.NoError(t, err, "close failure never aborts the switch")
	assert.ElementsMatch(t, []string{"A", "B"}, f.coordinator.Active(),
		"failed close leaves the source tracked")
}

func TestCloseAllBestEffort(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	for _, name := range []string{"a", "b", "c"} {
		_, err := f.coordinator.Open(context.Background(), name)
		require.NoError(t, err)
	}
	f.driver.closeErrs["b"] = errors.New("stuck")

	count := f.coordinator.CloseAll(context.Background())

	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"a", "c"}, f.driver.closed)
	assert.Equal(t, []string{"b"}, f.coordinator.Active(), "failed close stays tracked")
}

func TestOpenManySkipsMissing(t *testing.T) {
	f := newFixture(t, "a", "b")

	opened, err := f.coordinator.OpenMany(context.Background(), []string{"a", "ghost", "b"}, time.Second, true)
	require.NoError(t, err)

	assert.Len(t, opened, 2)
	assert.Contains(t, opened, "a")
	assert.Contains(t, opened, "b")
}

func TestOpenManyAbortsOnMissing(t *testing.T) {
	f := newFixture(t, "a", "b")

	opened, err := f.coordinator.OpenMany(context.Background(), []string{"a", "ghost", "b"}, time.Second, false)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, opened, "hard abort returns no partial result")
	assert.Len(t, f.driver.launched, 1, "b never attempted")
}

func TestOpenManyContinuesPastLaunchFailures(t *testing.T) {
	f := newFixture(t, "a", "bad", "c")
	f.driver.launchErrs["bad"] = errors.New("boom")

	opened, err := f.coordinator.OpenMany(context.Background(), []string{"a", "bad", "c"}, time.Second, true)
	require.NoError(t, err)

	assert.Len(t, opened, 2)
	assert.NotContains(t, opened, "bad")
	// Delay follows every attempt except the final item, failures included.
	assert.Equal(t, []time.Duration{time.Second, time.Second}, f.sleeper.sleeps)
}

func TestOpenManyNoDelayForSkips(t *testing.T) {
	f := newFixture(t, "a")

	_, err := f.coordinator.OpenMany(context.Background(), []string{"ghost1", "ghost2", "a"}, time.Second, true)
	require.NoError(t, err)

	assert.Empty(t, f.sleeper.sleeps, "skips incur no delay; 'a' is the final item")
}
