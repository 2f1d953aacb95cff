package profile

import (
	"sort"

	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
)

// BatchStore owns named, reusable batch configurations.
type BatchStore struct {
	configs map[string]domain.BatchConfig
	port    domain.StatePort[domain.BatchConfig]
	logger  *zap.Logger
}

// NewBatchStore creates a batch-config store backed by port.
func NewBatchStore(port domain.StatePort[domain.BatchConfig], logger *zap.Logger) *BatchStore {
	return &BatchStore{
		configs: port.Load(),
		port:    port,
		logger:  logger,
	}
}

// Add upserts a batch configuration, overwriting any existing config of the
// same name. Zero-valued throttling parameters are defaulted.
func (s *BatchStore) Add(name string, cfg domain.BatchConfig) error {
	s.configs[name] = cfg.WithDefaults()
	if err := s.port.Save(s.configs); err != nil {
		return err
	}
	s.logger.Info("saved batch config",
		zap.String("batch", name),
		zap.Int("profiles", len(cfg.Profiles)))
	return nil
}

// Remove deletes a batch configuration, reporting whether it existed.
func (s *BatchStore) Remove(name string) (bool, error) {
	if _, ok := s.configs[name]; !ok {
		return false, nil
	}
	delete(s.configs, name)
	if err := s.port.Save(s.configs); err != nil {
		return true, err
	}
	s.logger.Info("removed batch config", zap.String("batch", name))
	return true, nil
}

// Names returns configured batch names, sorted.
func (s *BatchStore) Names() []string {
	names := make([]string, 0, len(s.configs))
	for name := range s.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns one batch configuration by name.
func (s *BatchStore) Get(name string) (domain.BatchConfig, bool) {
	cfg, ok := s.configs[name]
	return cfg, ok
}
