package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hylla/takt/internal/adapters/storage/file"
	"github.com/hylla/takt/internal/adapters/storage/sqlite"
	"github.com/hylla/takt/internal/app"
	"github.com/hylla/takt/internal/config"
	"github.com/hylla/takt/internal/domain"
	"github.com/hylla/takt/internal/platform"
	"github.com/hylla/takt/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// taskIDGenerator supplies task ids when record callers omit one.
var taskIDGenerator app.IDGenerator = uuid.NewString

// copyToClipboard copies text to the system clipboard.
var copyToClipboard = clipboard.WriteAll

// velocityStore bundles the persistence contracts both storage backends satisfy.
type velocityStore interface {
	app.StateStore
	app.ProfileStore
	Close() error
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("takt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		dbPath     string
		dataDir    string
		appName    string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TAKT_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("TAKT_APP_NAME")); envApp != "" {
		appName = envApp
	} else {
		appName = "takt"
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&dbPath, "db", "", "path to sqlite database")
	fs.StringVar(&dataDir, "data-dir", "", "path to file-backend data directory")
	fs.StringVar(&appName, "app", appName, "application name for config/data path resolution")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "takt %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
		return nil
	case "", "record", "spec", "report", "export", "import":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	dbOverridden := strings.TrimSpace(dbPath) != ""
	dataDirOverridden := strings.TrimSpace(dataDir) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TAKT_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TAKT_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}
	if !dataDirOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TAKT_DATA_DIR")); envPath != "" {
			dataDir = envPath
			dataDirOverridden = true
		} else {
			dataDir = paths.DataDir
		}
	}

	defaultCfg := config.Default(dbPath, dataDir)
	cfg, err := config.Load(configPath, defaultCfg)
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Storage.Path = dbPath
	}
	if dataDirOverridden {
		cfg.Storage.DataDir = dataDir
	}

	logger, err := newRuntimeLogger(stderr, appName, devMode, cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "" {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the dashboard is active.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			// Keep TUI shutdown quiet on the terminal when console logging is intentionally muted.
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", appName, "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", dbPath)
	logger.Info("configuration loaded", "config_path", configPath, "backend", cfg.Storage.Backend, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	store, storeTarget, err := openStore(cfg.Storage)
	if err != nil {
		logger.Error("storage open failed", "backend", cfg.Storage.Backend, "target", storeTarget, "err", err)
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("storage close failed", "backend", cfg.Storage.Backend, "target", storeTarget, "err", closeErr)
		}
	}()
	logger.Info("storage ready", "backend", cfg.Storage.Backend, "target", storeTarget)

	agg := app.NewAggregator(store, nil)
	if err := agg.Initialize(ctx); err != nil {
		logger.Error("aggregate load failed", "err", err)
		return fmt.Errorf("initialize velocity aggregate: %w", err)
	}
	profiles := app.NewProfileService(store, nil)
	logger.Debug("application services initialized", "backend", cfg.Storage.Backend)

	switch command {
	case "":
		logger.Info("command flow start", "command", "tui")
	case "record":
		logger.Info("command flow start", "command", "record")
		if err := runRecord(ctx, agg, fs.Args()[1:], stdout); err != nil {
			logger.Error("command flow failed", "command", "record", "err", err)
			return fmt.Errorf("run record command: %w", err)
		}
		logger.Info("command flow complete", "command", "record")
		return nil
	case "spec":
		logger.Info("command flow start", "command", "spec")
		if err := runSpec(ctx, agg, fs.Args()[1:], stdout); err != nil {
			logger.Error("command flow failed", "command", "spec", "err", err)
			return fmt.Errorf("run spec command: %w", err)
		}
		logger.Info("command flow complete", "command", "spec")
		return nil
	case "report":
		logger.Info("command flow start", "command", "report")
		if err := runReport(ctx, agg, profiles, cfg.Report, fs.Args()[1:], stdout); err != nil {
			logger.Error("command flow failed", "command", "report", "err", err)
			return fmt.Errorf("run report command: %w", err)
		}
		logger.Info("command flow complete", "command", "report")
		return nil
	case "export":
		logger.Info("command flow start", "command", "export")
		if err := runExport(ctx, agg, profiles, fs.Args()[1:], stdout); err != nil {
			logger.Error("command flow failed", "command", "export", "err", err)
			return fmt.Errorf("run export command: %w", err)
		}
		logger.Info("command flow complete", "command", "export")
		return nil
	case "import":
		logger.Info("command flow start", "command", "import")
		if err := runImport(ctx, agg, profiles, fs.Args()[1:]); err != nil {
			logger.Error("command flow failed", "command", "import", "err", err)
			return fmt.Errorf("run import command: %w", err)
		}
		logger.Info("command flow complete", "command", "import")
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	m := tui.NewModel(
		agg,
		tui.WithWindowWeeks(cfg.Report.Weeks),
	)
	logger.Info("starting tui program loop")
	_, err = programFactory(m).Run()
	if err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// runRecord runs the requested command flow.
func runRecord(ctx context.Context, agg *app.Aggregator, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("takt record", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		specID   string
		taskID   string
		required bool
		atRaw    string
	)
	fs.StringVar(&specID, "spec", "", "workstream id the task belongs to")
	fs.StringVar(&taskID, "task", "", "task id (generated when empty)")
	fs.BoolVar(&required, "required", false, "mark the task as required")
	fs.StringVar(&atRaw, "at", "", "completion time, RFC 3339 or YYYY-MM-DD (empty = now)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse record flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected record arguments: %v", fs.Args())
	}
	if strings.TrimSpace(specID) == "" {
		return fmt.Errorf("--spec is required")
	}

	completedAt, err := parseEventTime(atRaw)
	if err != nil {
		return err
	}
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	if strings.TrimSpace(taskID) == "" {
		taskID = taskIDGenerator()
	}

	if err := agg.RecordTaskCompletion(ctx, app.RecordTaskInput{
		SpecID:      specID,
		TaskID:      taskID,
		Required:    required,
		CompletedAt: completedAt,
	}); err != nil {
		return fmt.Errorf("record task completion: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "recorded task %s for workstream %s in %s\n", taskID, strings.TrimSpace(specID), domain.WeekKeyOf(completedAt))
	return nil
}

// runSpec runs the requested command flow.
func runSpec(ctx context.Context, agg *app.Aggregator, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("takt spec", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		specID   string
		total    int
		done     int
		complete bool
		atRaw    string
	)
	fs.StringVar(&specID, "spec", "", "workstream id")
	fs.IntVar(&total, "total", 0, "total task count for the workstream")
	fs.IntVar(&done, "done", 0, "completed task count for the workstream")
	fs.BoolVar(&complete, "complete", false, "assert workstream completion instead of a progress update")
	fs.StringVar(&atRaw, "at", "", "completion time, RFC 3339 or YYYY-MM-DD (empty = now, -complete only)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse spec flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected spec arguments: %v", fs.Args())
	}
	if strings.TrimSpace(specID) == "" {
		return fmt.Errorf("--spec is required")
	}

	if complete {
		completedAt, err := parseEventTime(atRaw)
		if err != nil {
			return err
		}
		if completedAt.IsZero() {
			completedAt = time.Now().UTC()
		}
		if err := agg.RecordSpecCompletion(ctx, app.RecordSpecCompletionInput{
			SpecID:         specID,
			TotalTasks:     total,
			CompletedTasks: done,
			CompletedAt:    completedAt,
		}); err != nil {
			return fmt.Errorf("record workstream completion: %w", err)
		}
	} else {
		if strings.TrimSpace(atRaw) != "" {
			return fmt.Errorf("--at requires --complete")
		}
		if err := agg.UpdateSpecProgress(ctx, app.UpdateSpecProgressInput{
			SpecID:         specID,
			TotalTasks:     total,
			CompletedTasks: done,
		}); err != nil {
			return fmt.Errorf("update workstream progress: %w", err)
		}
	}

	activity, err := agg.SpecActivityFor(strings.TrimSpace(specID))
	if err != nil {
		return fmt.Errorf("read workstream activity: %w", err)
	}
	if activity.CompletionDate != nil {
		_, _ = fmt.Fprintf(stdout, "workstream %s: %d/%d tasks, completed %s\n",
			strings.TrimSpace(specID), activity.CompletedTasks, activity.TotalTasks,
			activity.CompletionDate.UTC().Format(time.DateOnly))
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "workstream %s: %d/%d tasks\n",
		strings.TrimSpace(specID), activity.CompletedTasks, activity.TotalTasks)
	return nil
}

// runReport runs the requested command flow.
func runReport(ctx context.Context, agg *app.Aggregator, profiles *app.ProfileService, defaults config.ReportConfig, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("takt report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		weeks     int
		profileID string
		copyFlag  bool
	)
	fs.IntVar(&weeks, "weeks", defaults.Weeks, "trailing window length in weeks")
	fs.StringVar(&profileID, "profile", defaults.Profile, "report profile id for the prompt preamble")
	fs.BoolVar(&copyFlag, "copy", false, "copy the report markdown to the clipboard")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse report flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected report arguments: %v", fs.Args())
	}
	if weeks < 1 {
		return fmt.Errorf("--weeks must be >= 1")
	}

	metrics, err := agg.Metrics()
	if err != nil {
		return fmt.Errorf("read velocity metrics: %w", err)
	}
	taskSeries, err := agg.TasksPerWeek(weeks)
	if err != nil {
		return fmt.Errorf("read tasks per week: %w", err)
	}
	specSeries, err := agg.SpecsPerWeek(weeks)
	if err != nil {
		return fmt.Errorf("read specs per week: %w", err)
	}
	activities, err := agg.SpecActivities()
	if err != nil {
		return fmt.Errorf("read workstream activity: %w", err)
	}

	if profileID = strings.TrimSpace(profileID); profileID != "" {
		profile, err := profiles.GetProfile(ctx, profileID)
		if err != nil {
			return fmt.Errorf("load report profile %q: %w", profileID, err)
		}
		_, _ = fmt.Fprintln(stdout, profile.Template)
		_, _ = fmt.Fprintln(stdout)
	}

	markdown := tui.BuildWeeklyReport(tui.ReportData{
		Now:        time.Now().UTC(),
		Metrics:    metrics,
		TaskSeries: taskSeries,
		SpecSeries: specSeries,
		Activities: activities,
	})
	if _, err := io.WriteString(stdout, markdown); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if copyFlag {
		if err := copyToClipboard(markdown); err != nil {
			return fmt.Errorf("copy report to clipboard: %w", err)
		}
	}
	return nil
}

// runExport runs the requested command flow.
func runExport(ctx context.Context, agg *app.Aggregator, profiles *app.ProfileService, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("takt export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		outPath         string
		includeProfiles bool
	)
	fs.StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	fs.BoolVar(&includeProfiles, "profiles", true, "include report profiles")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse export flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected export arguments: %v", fs.Args())
	}

	profileSource := profiles
	if !includeProfiles {
		profileSource = nil
	}
	snap, err := agg.ExportSnapshot(ctx, profileSource)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport runs the requested command flow.
func runImport(ctx context.Context, agg *app.Aggregator, profiles *app.ProfileService, args []string) error {
	fs := flag.NewFlagSet("takt import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var inPath string
	fs.StringVar(&inPath, "in", "", "input snapshot JSON file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse import flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected import arguments: %v", fs.Args())
	}
	if inPath == "" {
		return fmt.Errorf("--in is required")
	}

	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := agg.ImportSnapshot(ctx, profiles, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

// openStore opens the storage backend the config selects.
func openStore(cfg config.StorageConfig) (velocityStore, string, error) {
	switch cfg.Backend {
	case config.StorageBackendFile:
		store, err := file.Open(cfg.DataDir)
		if err != nil {
			return nil, cfg.DataDir, fmt.Errorf("open file store: %w", err)
		}
		return store, cfg.DataDir, nil
	case config.StorageBackendSQLite:
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, cfg.Path, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, cfg.Path, nil
	default:
		return nil, "", fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}
}

// firstArg handles first arg.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseEventTime parses one CLI event timestamp in RFC 3339 or date-only form.
func parseEventTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid event time %q (want RFC 3339 or YYYY-MM-DD)", value)
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	levelText := strings.TrimSpace(cfg.Level)
	if levelText == "" {
		levelText = "info"
	}
	level, err := charmLog.ParseLevel(levelText)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath, err := devLogFilePath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil {
		return false
	}
	if sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Error(msg, keyvals...)
	}
}

// devLogFilePath resolves a workspace-local dev log file path for the current run day.
func devLogFilePath(configDir, appName string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(configDir)
	if baseDir == "" {
		baseDir = ".takt/log"
	}
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		baseDir = filepath.Join(workspaceRootFrom(cwd), baseDir)
	}
	fileStem := sanitizeLogFileStem(appName)
	fileName := fmt.Sprintf("%s-%s.log", fileStem, now.Format("20060102"))
	return filepath.Join(filepath.Clean(baseDir), fileName), nil
}

// workspaceRootFrom resolves the nearest ancestor workspace marker for stable local log placement.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	if start == "" {
		return "."
	}
	dir := start
	for {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// hasWorkspaceMarker reports whether a directory looks like a project workspace root.
func hasWorkspaceMarker(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	return false
}

// sanitizeLogFileStem normalizes app names into safe file-name segments.
func sanitizeLogFileStem(appName string) string {
	stem := strings.TrimSpace(appName)
	if stem == "" {
		return "takt"
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem = strings.Trim(replacer.Replace(stem), "-")
	if stem == "" {
		return "takt"
	}
	return stem
}
