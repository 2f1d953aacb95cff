package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
	"github.com/eliteGoblin/edgectl/internal/profile"
)

// BatchOptions control how a batched launch run is throttled.
type BatchOptions struct {
	// BatchSize is the maximum number of launches per batch. Values <= 0
	// fall back to domain.DefaultBatchSize.
	BatchSize int
	// ProfileDelay is the wait between launch attempts within a batch.
	ProfileDelay time.Duration
	// BatchDelay is the wait between consecutive batches.
	BatchDelay time.Duration
	// SkipMissing classifies unregistered names as skipped instead of
	// aborting the whole run.
	SkipMissing bool
}

// Scheduler partitions large launch requests into fixed-size batches and
// executes them strictly sequentially with two-tier delays. Batching bounds
// concurrent resource usage when opening dozens of profiles; the delays are
// the only concurrency control, there is no parallel launching.
type Scheduler struct {
	registry *profile.Registry
	batches  *profile.BatchStore
	sessions *Coordinator
	sleeper  domain.Sleeper
	logger   *zap.Logger
}

// NewScheduler creates a batch scheduler driving launches through sessions.
func NewScheduler(
	registry *profile.Registry,
	batches *profile.BatchStore,
	sessions *Coordinator,
	sleeper domain.Sleeper,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		registry: registry,
		batches:  batches,
		sessions: sessions,
		sleeper:  sleeper,
		logger:   logger,
	}
}

// Run opens the named profiles in input order, chunked into batches of at
// most opts.BatchSize. Every launch attempt (success or failure) is followed
// by opts.ProfileDelay unless it was the chunk's last processed name; each
// chunk except the last is followed by opts.BatchDelay. Outcomes are
// classified into successful, failed and skipped.
//
// When opts.SkipMissing is false, the first unregistered name aborts the
// entire run with domain.ErrNotFound and everything accumulated so far is
// discarded. A canceled context returns the partial result together with
// the context error; closing already-opened sessions is the caller's job.
func (s *Scheduler) Run(ctx context.Context, names []string, opts BatchOptions) (*domain.BatchResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = domain.DefaultBatchSize
	}

	result := &domain.BatchResult{
		Successful: []string{},
		Failed:     []domain.LaunchFailure{},
		Skipped:    []string{},
	}
	if len(names) == 0 {
		return result, nil
	}

	chunks := chunkNames(names, opts.BatchSize)
	s.logger.Info("processing profiles in batches",
		zap.Int("profiles", len(names)),
		zap.Int("batches", len(chunks)),
		zap.Int("batch_size", opts.BatchSize))

	for bi, chunk := range chunks {
		s.logger.Info("processing batch",
			zap.Int("batch", bi+1),
			zap.Int("total_batches", len(chunks)),
			zap.Strings("profiles", chunk))

		for ci, name := range chunk {
			if _, ok := s.registry.Get(name); !ok {
				if !opts.SkipMissing {
					return nil, fmt.Errorf("profile %q: %w", name, domain.ErrNotFound)
				}
				s.logger.Warn("skipping non-existent profile", zap.String("profile", name))
				result.Skipped = append(result.Skipped, name)
				continue
			}

			if _, err := s.sessions.Open(ctx, name); err != nil {
				result.Failed = append(result.Failed, domain.LaunchFailure{
					Profile: name,
					Error:   err.Error(),
				})
			} else {
				result.Successful = append(result.Successful, name)
			}

			// Throttle before the next launch in this chunk. The wait is
			// dropped after the chunk's last processed name: skipped names
			// never launch, so they don't count.
			if s.hasPendingLaunch(chunk[ci+1:], opts.SkipMissing) {
				if err := s.sleeper.Sleep(ctx, opts.ProfileDelay); err != nil {
					return result, err
				}
			}
		}

		if bi < len(chunks)-1 {
			s.logger.Info("batch completed, waiting before next",
				zap.Int("batch", bi+1),
				zap.Duration("batch_delay", opts.BatchDelay))
			if err := s.sleeper.Sleep(ctx, opts.BatchDelay); err != nil {
				return result, err
			}
		}
	}

	s.logger.Info("batch processing completed",
		zap.Int("successful", len(result.Successful)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// RunNamed executes a stored batch configuration. Returns
// domain.ErrNotFound if no config with that name exists.
func (s *Scheduler) RunNamed(ctx context.Context, name string) (*domain.BatchResult, error) {
	cfg, ok := s.batches.Get(name)
	if !ok {
		return nil, fmt.Errorf("batch %q: %w", name, domain.ErrNotFound)
	}

	s.logger.Info("running batch config", zap.String("batch", name))
	return s.Run(ctx, cfg.Profiles, BatchOptions{
		BatchSize:    cfg.BatchSize,
		ProfileDelay: time.Duration(cfg.ProfileDelay),
		BatchDelay:   time.Duration(cfg.BatchDelay),
		SkipMissing:  true,
	})
}

// hasPendingLaunch reports whether any of the remaining chunk names will
// actually be attempted. Without SkipMissing every remaining name either
// launches or aborts the run, so any remainder counts.
func (s *Scheduler) hasPendingLaunch(rest []string, skipMissing bool) bool {
	if !skipMissing {
		return len(rest) > 0
	}
	for _, name := range rest {
		if _, ok := s.registry.Get(name); ok {
			return true
		}
	}
	return false
}

// chunkNames splits names into consecutive chunks of at most size,
// preserving order. The last chunk may be shorter.
func chunkNames(names []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(names); start += size {
		end := start + size
		if end > len(names) {
			end = len(names)
		}
		chunks = append(chunks, names[start:end])
	}
	return chunks
}
