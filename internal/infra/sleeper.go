package infra

import (
	"context"
	"time"

	"github.com/eliteGoblin/edgectl/internal/domain"
)

// TimerSleeper implements domain.Sleeper with a real timer.
type TimerSleeper struct{}

// NewSleeper creates a timer-backed sleeper.
func NewSleeper() domain.Sleeper {
	return &TimerSleeper{}
}

// Sleep blocks for d or until ctx is canceled.
func (s *TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure TimerSleeper implements domain.Sleeper.
var _ domain.Sleeper = (*TimerSleeper)(nil)
