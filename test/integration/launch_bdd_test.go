//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
	"github.com/eliteGoblin/edgectl/internal/infra"
	"github.com/eliteGoblin/edgectl/internal/profile"
	"github.com/eliteGoblin/edgectl/internal/usecase"
)

// fakeHandle implements domain.SessionHandle.
type fakeHandle struct {
	id string
}

func (h *fakeHandle) ID() string { return h.id }

// fakeDriver implements domain.SessionDriver without touching a browser.
type fakeDriver struct {
	launchErrs map[string]error
	launched   []string
}

func (d *fakeDriver) Launch(ctx context.Context, spec domain.LaunchSpec) (domain.SessionHandle, error) {
	if err := d.launchErrs[spec.ProfileDir]; err != nil {
		return nil, err
	}
	d.launched = append(d.launched, spec.ProfileDir)
	return &fakeHandle{id: spec.ProfileDir}, nil
}

func (d *fakeDriver) Close(ctx context.Context, handle domain.SessionHandle) error {
	return nil
}

// instantSleeper implements domain.Sleeper, recording waits without blocking.
type instantSleeper struct {
	sleeps []time.Duration
}

func (s *instantSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	return nil
}

var _ = Describe("Batched profile launching", func() {
	var (
		tmpDir      string
		logger      *zap.Logger
		registry    *profile.Registry
		history     *profile.History
		batches     *profile.BatchStore
		driver      *fakeDriver
		sleeper     *instantSleeper
		coordinator *usecase.Coordinator
		scheduler   *usecase.Scheduler
	)

	// buildStack wires file-backed stores from tmpDir so reload scenarios
	// can rebuild the whole stack against the same files.
	buildStack := func() {
		history = profile.NewHistory(
			infra.NewFileStore[domain.HistoryEntry](filepath.Join(tmpDir, "profile_history.json"), logger), logger)
		registry = profile.NewRegistry(
			infra.NewFileStore[domain.Profile](filepath.Join(tmpDir, "edge_profiles.json"), logger), history, logger)
		batches = profile.NewBatchStore(
			infra.NewFileStore[domain.BatchConfig](filepath.Join(tmpDir, "batch_config.json"), logger), logger)

		coordinator = usecase.NewCoordinator(registry, history, driver, sleeper, filepath.Join(tmpDir, "User Data"), logger)
		scheduler = usecase.NewScheduler(registry, batches, coordinator, sleeper, logger)
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "edgectl-integration-*")
		Expect(err).NotTo(HaveOccurred())

		logger = zap.NewNop()
		driver = &fakeDriver{launchErrs: map[string]error{}}
		sleeper = &instantSleeper{}
		buildStack()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("running a stored batch", func() {
		It("classifies outcomes and records history", func() {
			for _, name := range []string{"work", "personal", "testing"} {
				_, err := registry.Add(name, "", "")
				Expect(err).NotTo(HaveOccurred())
			}
			driver.launchErrs["Profile 3"] = errors.New("profile locked")

			err := batches.Add("daily", domain.BatchConfig{
				Profiles:  []string{"work", "ghost", "personal", "testing"},
				BatchSize: 2,
			})
			Expect(err).NotTo(HaveOccurred())

			result, err := scheduler.RunNamed(context.Background(), "daily")
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Successful).To(Equal([]string{"work", "personal"}))
			Expect(result.Skipped).To(Equal([]string{"ghost"}))
			Expect(result.Failed).To(HaveLen(1))
			Expect(result.Failed[0].Profile).To(Equal("testing"))
			Expect(result.Failed[0].Error).To(ContainSubstring("profile locked"))

			entry, ok := history.Get("work")
			Expect(ok).To(BeTrue())
			Expect(entry.OpenCount).To(Equal(1))
			Expect(history.Has("testing")).To(BeFalse())
		})

		It("fails for an unknown batch name", func() {
			_, err := scheduler.RunNamed(context.Background(), "nope")
			Expect(err).To(MatchError(domain.ErrNotFound))
		})
	})

	Describe("persistence across restarts", func() {
		It("reloads profiles, history and batches from disk", func() {
			_, err := registry.Add("work", "Profile 1", "en-US")
			Expect(err).NotTo(HaveOccurred())
			_, err = coordinator.Open(context.Background(), "work")
			Expect(err).NotTo(HaveOccurred())
			Expect(batches.Add("daily", domain.BatchConfig{Profiles: []string{"work"}})).To(Succeed())

			// Simulate a fresh process against the same data dir.
			buildStack()

			p, ok := registry.Get("work")
			Expect(ok).To(BeTrue())
			Expect(p.Path).To(Equal("Profile 1"))
			Expect(p.PreferredLanguage).To(Equal("en-US"))

			entry, ok := history.Get("work")
			Expect(ok).To(BeTrue())
			Expect(entry.OpenCount).To(Equal(1))

			Expect(batches.Names()).To(Equal([]string{"daily"}))
		})

		It("starts empty when a store file is corrupt", func() {
			path := filepath.Join(tmpDir, "edge_profiles.json")
			Expect(os.WriteFile(path, []byte("{broken"), 0600)).To(Succeed())

			buildStack()

			Expect(registry.List()).To(BeEmpty())
			_, err := registry.Add("work", "", "")
			Expect(err).NotTo(HaveOccurred(), "store recovers by rewriting the file")
		})
	})

	Describe("strict multi-open", func() {
		It("aborts on the first unknown profile without opening the rest", func() {
			_, err := registry.Add("a", "", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = registry.Add("b", "", "")
			Expect(err).NotTo(HaveOccurred())

			opened, err := coordinator.OpenMany(context.Background(), []string{"a", "ghost", "b"}, time.Second, false)
			Expect(err).To(MatchError(domain.ErrNotFound))
			Expect(opened).To(BeNil())
			Expect(driver.launched).To(HaveLen(1))
		})
	})
})
