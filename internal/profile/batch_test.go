package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
)

func TestBatchAddAppliesDefaults(t *testing.T) {
	store := NewBatchStore(&memoryPort[domain.BatchConfig]{}, zap.NewNop())

	require.NoError(t, store.Add("daily", domain.BatchConfig{Profiles: []string{"a", "b"}}))

	cfg, ok := store.Get("daily")
	require.True(t, ok)
	assert.Equal(t, domain.DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, 2*time.Second, time.Duration(cfg.ProfileDelay))
	assert.Equal(t, 30*time.Second, time.Duration(cfg.BatchDelay))
}

func TestBatchAddOverwrites(t *testing.T) {
	store := NewBatchStore(&memoryPort[domain.BatchConfig]{}, zap.NewNop())

	require.NoError(t, store.Add("daily", domain.BatchConfig{Profiles: []string{"a"}, BatchSize: 2}))
	require.NoError(t, store.Add("daily", domain.BatchConfig{Profiles: []string{"b", "c"}, BatchSize: 3}))

	cfg, ok := store.Get("daily")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, cfg.Profiles)
	assert.Equal(t, 3, cfg.BatchSize)
	assert.Len(t, store.Names(), 1)
}

func TestBatchRemove(t *testing.T) {
	port := &memoryPort[domain.BatchConfig]{}
	store := NewBatchStore(port, zap.NewNop())

	require.NoError(t, store.Add("daily", domain.BatchConfig{Profiles: []string{"a"}}))

	existed, err := store.Remove("daily")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, 2, port.saves)

	existed, err = store.Remove("daily")
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, 2, port.saves, "removing a missing batch must not persist")
}

func TestBatchNamesSorted(t *testing.T) {
	store := NewBatchStore(&memoryPort[domain.BatchConfig]{}, zap.NewNop())

	for _, name := range []string{"weekly", "daily", "adhoc"} {
		require.NoError(t, store.Add(name, domain.BatchConfig{Profiles: []string{"x"}}))
	}
	assert.Equal(t, []string{"adhoc", "daily", "weekly"}, store.Names())
}
