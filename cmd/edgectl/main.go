// Package main is the CLI entry point for edgectl.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/edgectl/internal/domain"
	"github.com/eliteGoblin/edgectl/internal/infra"
	"github.com/eliteGoblin/edgectl/internal/profile"
	"github.com/eliteGoblin/edgectl/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.3.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

// Store file names, inherited from the predecessor tool.
const (
	profilesFile = "edge_profiles.json"
	historyFile  = "profile_history.json"
	batchesFile  = "batch_config.json"
	logFile      = "edge_profile_manager.log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "edgectl",
	Short: "Microsoft Edge profile automation tool",
	Long: `edgectl manages named Microsoft Edge browser profiles, remembers
which profiles have been opened, and drives sequenced or batched profile
launches with resource-limiting delays.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new Edge profile",
	Long: `Adds a profile to the registry. If --path is not given, the next
sequential "Profile N" directory name is derived from existing profiles.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an Edge profile",
	Long:  `Removes a profile and any access history recorded for it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE:  runList,
}

var openCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Open Edge with a specific profile",
	Long:  `Opens Edge with the given profile and blocks until Ctrl+C, then closes it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

var openMultipleCmd = &cobra.Command{
	Use:   "open-multiple <name>...",
	Short: "Open multiple Edge profiles",
	Long: `Opens the given profiles in order with a delay between launches.
Unknown profiles are skipped unless --no-skip is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOpenMultiple,
}

var switchCmd = &cobra.Command{
	Use:   "switch <from> <to>",
	Short: "Switch from one profile to another",
	Args:  cobra.ExactArgs(2),
	RunE:  runSwitch,
}

var setLanguageCmd = &cobra.Command{
	Use:   "set-language <name> <language>",
	Short: "Set preferred language for a profile",
	Long:  `Sets the preferred UI language (e.g. en-US, es, fr) used on launch.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSetLanguage,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show profile access history",
	RunE:  runHistory,
}

var closeAllCmd = &cobra.Command{
	Use:   "close-all",
	Short: "Close all Edge sessions opened by this run",
	RunE:  runCloseAll,
}

var openBatchCmd = &cobra.Command{
	Use:   "open-batch <name>...",
	Short: "Open profiles in throttled batches",
	Long: `Opens the given profiles in fixed-size batches with delays between
launches and between batches, to bound system resource usage. Reports
successful, failed and skipped profiles separately.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOpenBatch,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Manage reusable batch configurations",
}

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured batches",
	RunE:  runBatchList,
}

var batchAddCmd = &cobra.Command{
	Use:   "add <name> <profile>...",
	Short: "Add or update a batch configuration",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBatchAdd,
}

var batchRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a batch configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchRemove,
}

var batchRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a configured batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchRun,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store locations and running Edge processes",
	RunE:  runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	dataDir     string
	userDataDir string

	addPath     string
	addLanguage string

	multiDelay time.Duration
	noSkip     bool

	historyName string

	batchSize    int
	profileDelay time.Duration
	batchDelay   time.Duration

	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", ".",
		"Directory holding the profile, history and batch store files")
	rootCmd.PersistentFlags().StringVar(&userDataDir, "user-data-dir", infra.DefaultUserDataDir(),
		"Edge user-data root containing the profile directories")

	addCmd.Flags().StringVarP(&addPath, "path", "p", "",
		"Profile directory name (e.g. 'Profile 1'); auto-generated if omitted")
	addCmd.Flags().StringVarP(&addLanguage, "language", "l", "",
		"Preferred language (e.g. en-US, es, fr)")

	openMultipleCmd.Flags().DurationVarP(&multiDelay, "delay", "d", 2*time.Second,
		"Delay between opening profiles")
	openMultipleCmd.Flags().BoolVar(&noSkip, "no-skip", false,
		"Fail when a profile doesn't exist instead of skipping it")

	historyCmd.Flags().StringVarP(&historyName, "name", "n", "",
		"Profile name (all profiles if omitted)")

	openBatchCmd.Flags().IntVar(&batchSize, "batch-size", domain.DefaultBatchSize,
		"Number of profiles to open in each batch")
	openBatchCmd.Flags().DurationVar(&profileDelay, "profile-delay", time.Duration(domain.DefaultProfileDelay),
		"Delay between opening profiles within a batch")
	openBatchCmd.Flags().DurationVar(&batchDelay, "batch-delay", time.Duration(domain.DefaultBatchDelay),
		"Delay between batches")
	openBatchCmd.Flags().BoolVar(&noSkip, "no-skip", false,
		"Fail when a profile doesn't exist instead of skipping it")

	batchAddCmd.Flags().IntVar(&batchSize, "batch-size", domain.DefaultBatchSize,
		"Number of profiles to open in each batch")
	batchAddCmd.Flags().DurationVar(&profileDelay, "profile-delay", time.Duration(domain.DefaultProfileDelay),
		"Delay between opening profiles within a batch")
	batchAddCmd.Flags().DurationVar(&batchDelay, "batch-delay", time.Duration(domain.DefaultBatchDelay),
		"Delay between batches")

	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	batchCmd.AddCommand(batchListCmd)
	batchCmd.AddCommand(batchAddCmd)
	batchCmd.AddCommand(batchRemoveCmd)
	batchCmd.AddCommand(batchRunCmd)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(openMultipleCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(setLanguageCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(closeAllCmd)
	rootCmd.AddCommand(openBatchCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// app bundles the persistent stores shared by every command.
type app struct {
	logger   *zap.Logger
	registry *profile.Registry
	history  *profile.History
	batches  *profile.BatchStore
}

func newApp() *app {
	logger := createLogger()

	history := profile.NewHistory(
		infra.NewFileStore[domain.HistoryEntry](filepath.Join(dataDir, historyFile), logger), logger)
	registry := profile.NewRegistry(
		infra.NewFileStore[domain.Profile](filepath.Join(dataDir, profilesFile), logger), history, logger)
	batches := profile.NewBatchStore(
		infra.NewFileStore[domain.BatchConfig](filepath.Join(dataDir, batchesFile), logger), logger)

	return &app{
		logger:   logger,
		registry: registry,
		history:  history,
		batches:  batches,
	}
}

// newSessionStack builds the browser driver plus the coordinator and
// scheduler on top of it. The returned cleanup stops the driver runtime.
func (a *app) newSessionStack() (*usecase.Coordinator, *usecase.Scheduler, func(), error) {
	driver, err := infra.NewPlaywrightDriver(a.logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize browser driver: %w", err)
	}

	sleeper := infra.NewSleeper()
	coordinator := usecase.NewCoordinator(a.registry, a.history, driver, sleeper, userDataDir, a.logger)
	scheduler := usecase.NewScheduler(a.registry, a.batches, coordinator, sleeper, a.logger)

	cleanup := func() { _ = driver.Stop() }
	return coordinator, scheduler, cleanup, nil
}

func createLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{filepath.Join(dataDir, logFile)}
	config.ErrorOutputPaths = []string{filepath.Join(dataDir, logFile)}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

// interruptContext returns a context canceled by SIGINT/SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// waitThenCloseAll blocks until interrupt, then closes every session.
func waitThenCloseAll(ctx context.Context, coordinator *usecase.Coordinator) {
	fmt.Println("Press Ctrl+C to close all browsers and exit")
	<-ctx.Done()
	fmt.Println("\nClosing all browsers...")
	count := coordinator.CloseAll(context.Background())
	fmt.Printf("Closed %d Edge browser instances\n", count)
}

func runAdd(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	name := args[0]
	p, err := a.registry.Add(name, addPath, addLanguage)
	if err != nil {
		return fmt.Errorf("failed to add profile %q: %w", name, err)
	}
	fmt.Printf("Profile '%s' added successfully with path '%s'\n", name, p.Path)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	name := args[0]
	if err := a.registry.Remove(name); err != nil {
		return fmt.Errorf("failed to remove profile %q: %w", name, err)
	}
	fmt.Printf("Profile '%s' removed successfully\n", name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	profiles := a.registry.List()
	if len(profiles) == 0 {
		fmt.Println("No profiles found. Add profiles using the 'add' command.")
		return nil
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available profiles:")
	for _, name := range names {
		p := profiles[name]
		language := p.PreferredLanguage
		if language == "" {
			language = "Not set"
		}
		fmt.Printf("- %s: Path=%s, Language=%s\n", name, p.Path, language)
	}

	if unopened := a.registry.Unopened(); len(unopened) > 0 {
		fmt.Println("\nNever opened:")
		for _, name := range unopened {
			fmt.Printf("- %s\n", name)
		}
	}
	return nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	coordinator, _, cleanup, err := a.newSessionStack()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := interruptContext()
	defer stop()

	name := args[0]
	if _, err := coordinator.Open(ctx, name); err != nil {
		return fmt.Errorf("failed to open profile %q: %w", name, err)
	}
	fmt.Printf("Opened Edge with profile '%s'\n", name)

	waitThenCloseAll(ctx, coordinator)
	return nil
}

func runOpenMultiple(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	coordinator, _, cleanup, err := a.newSessionStack()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := interruptContext()
	defer stop()

	fmt.Printf("Opening %d profiles with %s delay between them...\n", len(args), multiDelay)
	opened, err := coordinator.OpenMany(ctx, args, multiDelay, !noSkip)
	if err != nil {
		return fmt.Errorf("failed to open profiles: %w", err)
	}
	fmt.Printf("Successfully opened %d out of %d profiles\n", len(opened), len(args))

	if len(opened) > 0 {
		waitThenCloseAll(ctx, coordinator)
	}
	return nil
}

func runSwitch(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	coordinator, _, cleanup, err := a.newSessionStack()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := interruptContext()
	defer stop()

	from, to := args[0], args[1]
	if _, err := coordinator.Switch(ctx, from, to); err != nil {
		return fmt.Errorf("failed to switch to profile %q: %w", to, err)
	}
	fmt.Printf("Switched from '%s' to '%s'\n", from, to)

	waitThenCloseAll(ctx, coordinator)
	return nil
}

func runSetLanguage(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	name, language := args[0], args[1]
	if err := a.registry.SetLanguage(name, language); err != nil {
		return fmt.Errorf("failed to set language for profile %q: %w", name, err)
	}
	fmt.Printf("Set preferred language for '%s' to '%s'\n", name, language)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	if historyName != "" {
		entry, ok := a.history.Get(historyName)
		if !ok {
			fmt.Printf("No history found for profile '%s'\n", historyName)
			return nil
		}
		fmt.Printf("History for profile '%s':\n", historyName)
		fmt.Printf("- Last opened: %s\n", entry.LastOpened.Format(time.RFC3339))
		fmt.Printf("- Open count: %d\n", entry.OpenCount)
		return nil
	}

	all := a.history.All()
	if len(all) == 0 {
		fmt.Println("No profile access history found")
		return nil
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Profile access history:")
	for _, name := range names {
		entry := all[name]
		fmt.Printf("- %s:\n", name)
		fmt.Printf("  - Last opened: %s\n", entry.LastOpened.Format(time.RFC3339))
		fmt.Printf("  - Open count: %d\n", entry.OpenCount)
	}
	return nil
}

func runCloseAll(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	coordinator, _, cleanup, err := a.newSessionStack()
	if err != nil {
		return err
	}
	defer cleanup()

	count := coordinator.CloseAll(context.Background())
	fmt.Printf("Closed %d Edge browser instances\n", count)
	return nil
}

func runOpenBatch(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	_, scheduler, cleanup, err := a.newSessionStack()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := interruptContext()
	defer stop()

	fmt.Printf("Opening %d profiles in batches...\n", len(args))
	fmt.Printf("Batch size: %d\n", batchSize)
	fmt.Printf("Delay between profiles: %s\n", profileDelay)
	fmt.Printf("Delay between batches: %s\n", batchDelay)

	result, err := scheduler.Run(ctx, args, usecase.BatchOptions{
		BatchSize:    batchSize,
		ProfileDelay: profileDelay,
		BatchDelay:   batchDelay,
		SkipMissing:  !noSkip,
	})
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	printBatchResult(result)
	return nil
}

func runBatchList(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	names := a.batches.Names()
	if len(names) == 0 {
		fmt.Println("No batches configured")
		return nil
	}

	fmt.Println("Configured batches:")
	for _, name := range names {
		cfg, _ := a.batches.Get(name)
		fmt.Printf("\n%s:\n", name)
		fmt.Printf("  Profiles: %v\n", cfg.Profiles)
		fmt.Printf("  Batch size: %d\n", cfg.BatchSize)
		fmt.Printf("  Profile delay: %s\n", cfg.ProfileDelay)
		fmt.Printf("  Batch delay: %s\n", cfg.BatchDelay)
	}
	return nil
}

func runBatchAdd(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	name := args[0]
	cfg := domain.BatchConfig{
		Profiles:     args[1:],
		BatchSize:    batchSize,
		ProfileDelay: domain.Duration(profileDelay),
		BatchDelay:   domain.Duration(batchDelay),
	}
	if err := a.batches.Add(name, cfg); err != nil {
		return fmt.Errorf("failed to save batch %q: %w", name, err)
	}
	fmt.Printf("Batch '%s' configured successfully\n", name)
	return nil
}

func runBatchRemove(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	name := args[0]
	existed, err := a.batches.Remove(name)
	if err != nil {
		return fmt.Errorf("failed to remove batch %q: %w", name, err)
	}
	if !existed {
		fmt.Printf("Batch '%s' not found\n", name)
		return nil
	}
	fmt.Printf("Batch '%s' removed successfully\n", name)
	return nil
}

func runBatchRun(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	_, scheduler, cleanup, err := a.newSessionStack()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := interruptContext()
	defer stop()

	name := args[0]
	fmt.Printf("Running batch '%s'...\n", name)
	result, err := scheduler.RunNamed(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to run batch %q: %w", name, err)
	}

	printBatchResult(result)
	return nil
}

func printBatchResult(result *domain.BatchResult) {
	fmt.Println("\nBatch processing completed:")
	fmt.Printf("Successfully opened: %d profiles\n", len(result.Successful))
	fmt.Printf("Failed to open: %d profiles\n", len(result.Failed))
	fmt.Printf("Skipped: %d profiles\n", len(result.Skipped))

	if len(result.Failed) > 0 {
		fmt.Println("\nFailed profiles:")
		for _, failure := range result.Failed {
			fmt.Printf("- %s: %s\n", failure.Profile, failure.Error)
		}
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer func() { _ = a.logger.Sync() }()

	fmt.Println("\n=== edgectl Status ===")
	fmt.Printf("Data dir: %s\n", dataDir)
	fmt.Printf("User data dir: %s\n", userDataDir)
	fmt.Printf("Profiles: %d\n", len(a.registry.List()))
	fmt.Printf("Batches: %d\n", len(a.batches.Names()))

	if unopened := a.registry.Unopened(); len(unopened) > 0 {
		fmt.Printf("Never opened: %v\n", unopened)
	}

	inspector := infra.NewEdgeInspector()
	pids, err := inspector.RunningPIDs()
	if err != nil {
		fmt.Printf("Running Edge processes: unknown (%v)\n", err)
	} else {
		fmt.Printf("Running Edge processes: %d\n", len(pids))
	}

	fmt.Println("======================")
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("edgectl %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
