package infra

import (
	"context"
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/eliteGoblin/edgectl/internal/domain"
)

// PlaywrightDriver implements domain.SessionDriver by launching persistent
// Edge contexts through playwright-go. Each launch binds one browser window
// to a profile directory under the shared user-data root.
type PlaywrightDriver struct {
	pw      *playwright.Playwright
	channel string
	logger  *zap.Logger
}

// edgeSession is the handle issued by PlaywrightDriver.
type edgeSession struct {
	profileDir string
	browser    playwright.BrowserContext
}

func (s *edgeSession) ID() string { return s.profileDir }

// NewPlaywrightDriver installs the playwright runtime if needed and starts
// it. Driver output is discarded to keep CLI output clean.
func NewPlaywrightDriver(logger *zap.Logger) (*PlaywrightDriver, error) {
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	return &PlaywrightDriver{
		pw:      pw,
		channel: "msedge",
		logger:  logger,
	}, nil
}

// Launch starts an Edge window bound to the profile in spec.
func (d *PlaywrightDriver) Launch(ctx context.Context, spec domain.LaunchSpec) (domain.SessionHandle, error) {
	args := append([]string{fmt.Sprintf("--profile-directory=%s", spec.ProfileDir)}, spec.Args...)
	if spec.Locale != "" {
		args = append(args, fmt.Sprintf("--lang=%s", spec.Locale))
	}

	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Channel:  playwright.String(d.channel),
		Headless: playwright.Bool(false),
		Args:     args,
	}
	if spec.Locale != "" {
		opts.Locale = playwright.String(spec.Locale)
	}

	browser, err := d.pw.Chromium.LaunchPersistentContext(spec.UserDataDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch edge: %w", err)
	}

	d.logger.Info("launched edge session",
		zap.String("profile_dir", spec.ProfileDir),
		zap.String("user_data_dir", spec.UserDataDir))

	return &edgeSession{profileDir: spec.ProfileDir, browser: browser}, nil
}

// Close shuts down a session previously issued by this driver.
func (d *PlaywrightDriver) Close(ctx context.Context, handle domain.SessionHandle) error {
	session, ok := handle.(*edgeSession)
	if !ok {
		return fmt.Errorf("foreign session handle %q", handle.ID())
	}
	if err := session.browser.Close(); err != nil {
		return fmt.Errorf("failed to close edge: %w", err)
	}
	return nil
}

// Stop tears down the playwright runtime. Call once on shutdown.
func (d *PlaywrightDriver) Stop() error {
	return d.pw.Stop()
}

// Ensure PlaywrightDriver implements domain.SessionDriver.
var _ domain.SessionDriver = (*PlaywrightDriver)(nil)
