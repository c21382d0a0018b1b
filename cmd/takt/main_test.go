package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/hylla/takt/internal/app"
	"github.com/hylla/takt/internal/config"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("TAKT_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram represents fake program data used by this package.
type fakeProgram struct {
	runErr error
}

// Run runs the requested command flow.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// useFakeProgram swaps the TUI program factory for the test's lifetime.
func useFakeProgram(t *testing.T) {
	t.Helper()
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(_ tea.Model) program { return fakeProgram{} }
}

// useFixedTaskIDs swaps the task id generator for the test's lifetime.
func useFixedTaskIDs(t *testing.T, id string) {
	t.Helper()
	origGen := taskIDGenerator
	t.Cleanup(func() { taskIDGenerator = origGen })
	taskIDGenerator = func() string { return id }
}

// exportSnapshot runs the export command against one database and decodes the result.
func exportSnapshot(t *testing.T, dbPath, cfgPath string) app.Snapshot {
	t.Helper()
	outPath := filepath.Join(t.TempDir(), "snapshot.json")
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "export", "--out", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return snap
}

// TestRunVersion verifies behavior for the covered scenario.
func TestRunVersion(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--version"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), "takt") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

// TestRunStartsProgram verifies behavior for the covered scenario.
func TestRunStartsProgram(t *testing.T) {
	useFakeProgram(t)

	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "config.toml")
	err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite database created, stat error %v", err)
	}
}

// TestRunInvalidFlag verifies behavior for the covered scenario.
func TestRunInvalidFlag(t *testing.T) {
	err := run(context.Background(), []string{"--unknown-flag"}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected flag parse error")
	}
}

// TestRunUnknownCommand verifies behavior for the covered scenario.
func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"unknown-command"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

// TestRunRecordCommandPersistsTask verifies behavior for the covered scenario.
func TestRunRecordCommandPersistsTask(t *testing.T) {
	useFixedTaskIDs(t, "task-0001")

	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	var out strings.Builder
	err := run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"record", "--spec", "auth-rework", "--required", "--at", "2026-02-04",
	}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(record) error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "recorded task task-0001 for workstream auth-rework in 2026-W06") {
		t.Fatalf("unexpected record output %q", got)
	}

	snap := exportSnapshot(t, dbPath, cfgPath)
	if len(snap.Weeks) != 1 {
		t.Fatalf("expected one week bucket, got %d", len(snap.Weeks))
	}
	week := snap.Weeks[0]
	if week.Year != 2026 || week.Week != 6 {
		t.Fatalf("unexpected week key %d-W%d", week.Year, week.Week)
	}
	if week.Total != 1 || week.Required != 1 || week.Optional != 0 {
		t.Fatalf("unexpected week counts %+v", week)
	}
	if week.Days.Wednesday != 1 {
		t.Fatalf("expected Wednesday bucket increment, got %+v", week.Days)
	}
	if len(snap.Specs) != 1 || snap.Specs[0].SpecID != "auth-rework" {
		t.Fatalf("unexpected snapshot specs %+v", snap.Specs)
	}
}

// TestRunRecordValidation verifies behavior for the covered scenario.
func TestRunRecordValidation(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "record"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "--spec is required") {
		t.Fatalf("expected missing spec error, got %v", err)
	}

	err = run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"record", "--spec", "auth-rework", "--at", "02/04/2026",
	}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "invalid event time") {
		t.Fatalf("expected event time parse error, got %v", err)
	}
}

// TestRunSpecCommandLifecycle verifies behavior for the covered scenario.
func TestRunSpecCommandLifecycle(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	var out strings.Builder
	err := run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"spec", "--spec", "billing", "--total", "3", "--done", "3", "--complete", "--at", "2026-02-04",
	}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(spec complete) error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "workstream billing: 3/3 tasks, completed 2026-02-04") {
		t.Fatalf("unexpected completion output %q", got)
	}

	out.Reset()
	err = run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"spec", "--spec", "billing", "--total", "3", "--done", "1",
	}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(spec progress) error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "workstream billing: 1/3 tasks") {
		t.Fatalf("unexpected progress output %q", got)
	}
	if strings.Contains(got, "completed") {
		t.Fatalf("expected completion cleared by regression, got %q", got)
	}

	snap := exportSnapshot(t, dbPath, cfgPath)
	if len(snap.Specs) != 1 || snap.Specs[0].SpecID != "billing" {
		t.Fatalf("unexpected snapshot specs %+v", snap.Specs)
	}
	if snap.Specs[0].CompletionDate != nil {
		t.Fatalf("expected completion date cleared, got %v", snap.Specs[0].CompletionDate)
	}
}

// TestRunSpecValidation verifies behavior for the covered scenario.
func TestRunSpecValidation(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "spec"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "--spec is required") {
		t.Fatalf("expected missing spec error, got %v", err)
	}

	err = run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"spec", "--spec", "billing", "--total", "3", "--done", "1", "--at", "2026-02-04",
	}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "--at requires --complete") {
		t.Fatalf("expected progress timestamp rejection, got %v", err)
	}
}

// TestRunReportCommandPrintsMarkdown verifies behavior for the covered scenario.
func TestRunReportCommandPrintsMarkdown(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	if err := run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"record", "--spec", "auth-rework", "--at", "2026-02-04",
	}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(record) error = %v", err)
	}

	var out strings.Builder
	if err := run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"report", "--weeks", "4",
	}, &out, io.Discard); err != nil {
		t.Fatalf("run(report) error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "# Velocity report:") {
		t.Fatalf("expected report header, got %q", got)
	}
	if !strings.Contains(got, "## Tasks by day") {
		t.Fatalf("expected day table section, got %q", got)
	}
	if !strings.Contains(got, "| Week | Tasks | Workstreams closed |") {
		t.Fatalf("expected recent weeks table, got %q", got)
	}
	if !strings.Contains(got, "| auth-rework |") {
		t.Fatalf("expected workstream row, got %q", got)
	}

	err := run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"report", "--weeks", "0",
	}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "--weeks must be >= 1") {
		t.Fatalf("expected weeks validation error, got %v", err)
	}
}

// TestRunReportCopyFlag verifies behavior for the covered scenario.
func TestRunReportCopyFlag(t *testing.T) {
	origCopy := copyToClipboard
	t.Cleanup(func() { copyToClipboard = origCopy })
	var copied string
	copyToClipboard = func(text string) error {
		copied = text
		return nil
	}

	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	if err := run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"report", "--copy",
	}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(report copy) error = %v", err)
	}
	if !strings.Contains(copied, "# Velocity report:") {
		t.Fatalf("expected report markdown on clipboard, got %q", copied)
	}
}

// TestRunReportProfilePreamble verifies behavior for the covered scenario.
func TestRunReportProfilePreamble(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	now := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)
	snap := app.Snapshot{
		Version: app.SnapshotVersion,
		Profiles: []app.SnapshotProfile{
			{
				ID:        "weekly-exec",
				Name:      "Weekly exec summary",
				Template:  "Summarize the week below for leadership.",
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}
	content, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}
	inPath := filepath.Join(tmp, "in.json")
	if err := os.WriteFile(inPath, content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "import", "--in", inPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	var out strings.Builder
	if err := run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"report", "--profile", "weekly-exec",
	}, &out, io.Discard); err != nil {
		t.Fatalf("run(report profile) error = %v", err)
	}
	got := out.String()
	if !strings.HasPrefix(got, "Summarize the week below for leadership.") {
		t.Fatalf("expected profile template preamble, got %q", got)
	}
	if !strings.Contains(got, "# Velocity report:") {
		t.Fatalf("expected report body after preamble, got %q", got)
	}

	err = run(context.Background(), []string{
		"--db", dbPath, "--config", cfgPath,
		"report", "--profile", "missing-profile",
	}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "load report profile") {
		t.Fatalf("expected missing profile error, got %v", err)
	}
}

// TestRunExportImportRoundTrip verifies behavior for the covered scenario.
func TestRunExportImportRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	now := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	last := now.Add(26 * time.Hour)
	snap := app.Snapshot{
		Version: app.SnapshotVersion,
		Weeks: []app.SnapshotWeek{
			{
				Year:     2026,
				Week:     6,
				Total:    2,
				Required: 1,
				Optional: 1,
				Days:     app.SnapshotDayCounts{Monday: 1, Tuesday: 1},
			},
		},
		Specs: []app.SnapshotSpec{
			{
				SpecID:         "imported-stream",
				FirstTaskDate:  &now,
				LastTaskDate:   &last,
				TotalTasks:     5,
				CompletedTasks: 2,
			},
		},
		Profiles: []app.SnapshotProfile{
			{
				ID:        "weekly-exec",
				Name:      "Weekly exec summary",
				Template:  "Summarize the week below for leadership.",
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}
	content, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}
	inPath := filepath.Join(tmp, "in.json")
	if err := os.WriteFile(inPath, content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "import", "--in", inPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	outSnap := exportSnapshot(t, dbPath, cfgPath)
	if outSnap.Version != app.SnapshotVersion {
		t.Fatalf("unexpected snapshot version %q", outSnap.Version)
	}
	if len(outSnap.Weeks) != 1 || outSnap.Weeks[0].Week != 6 || outSnap.Weeks[0].Total != 2 {
		t.Fatalf("expected imported week in export, got %+v", outSnap.Weeks)
	}
	if len(outSnap.Specs) != 1 || outSnap.Specs[0].SpecID != "imported-stream" {
		t.Fatalf("expected imported workstream in export, got %+v", outSnap.Specs)
	}
	if len(outSnap.Profiles) != 1 || outSnap.Profiles[0].ID != "weekly-exec" {
		t.Fatalf("expected imported profile in export, got %+v", outSnap.Profiles)
	}
}

// TestRunExportToStdoutAndImportErrors verifies behavior for the covered scenario.
func TestRunExportToStdoutAndImportErrors(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "export", "--out", "-"}, &out, io.Discard); err != nil {
		t.Fatalf("run(export stdout) error = %v", err)
	}
	if !strings.Contains(out.String(), "\"version\"") {
		t.Fatalf("expected snapshot json on stdout, got %q", out.String())
	}

	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "import"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected import error for missing --in")
	}

	badIn := filepath.Join(tmp, "bad.json")
	if err := os.WriteFile(badIn, []byte("{"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "import", "--in", badIn}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected import decode error")
	}
}

// TestRunExportWithoutProfiles verifies behavior for the covered scenario.
func TestRunExportWithoutProfiles(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "missing.toml")

	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "export", "--out", "-", "--profiles=false"}, &out, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal([]byte(out.String()), &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap.Profiles != nil {
		t.Fatalf("expected omitted profile section, got %+v", snap.Profiles)
	}
}

// TestRunConfigAndDBEnvOverrides verifies behavior for the covered scenario.
func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "env.db")
	cfgPath := filepath.Join(tmp, "env.toml")
	cfgContent := "[storage]\npath = \"/tmp/ignore-me.db\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("TAKT_CONFIG", cfgPath)
	t.Setenv("TAKT_DB_PATH", dbPath)

	err := run(context.Background(), []string{"export", "--out", filepath.Join(tmp, "out.json")}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run(export with env paths) error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected db created at env path, stat error %v", err)
	}
}

// TestRunFileBackendFromConfig verifies behavior for the covered scenario.
func TestRunFileBackendFromConfig(t *testing.T) {
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "state")
	cfgPath := filepath.Join(tmp, "takt.toml")
	cfgContent := "[storage]\nbackend = \"file\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	err := run(context.Background(), []string{
		"--config", cfgPath, "--data-dir", dataDir,
		"record", "--spec", "auth-rework", "--at", "2026-02-04",
	}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run(record file backend) error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "velocity.json")); err != nil {
		t.Fatalf("expected velocity document in data dir, stat error %v", err)
	}
}

// TestRunPathsCommand verifies behavior for the covered scenario.
func TestRunPathsCommand(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--app", "taktx", "--dev", "paths"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "app: taktx") {
		t.Fatalf("expected app name in paths output, got %q", output)
	}
	if !strings.Contains(output, "dev_mode: true") {
		t.Fatalf("expected dev mode in paths output, got %q", output)
	}
}

// TestParseBoolEnv verifies behavior for the covered scenario.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TAKT_BOOL_TEST", "true")
	got, ok := parseBoolEnv("TAKT_BOOL_TEST")
	if !ok || !got {
		t.Fatalf("expected true bool env parse, got value=%t ok=%t", got, ok)
	}

	t.Setenv("TAKT_BOOL_TEST", "not-bool")
	_, ok = parseBoolEnv("TAKT_BOOL_TEST")
	if ok {
		t.Fatal("expected invalid bool env to return ok=false")
	}
}

// TestParseEventTime verifies behavior for the covered scenario.
func TestParseEventTime(t *testing.T) {
	got, err := parseEventTime("2026-02-04T15:30:00Z")
	if err != nil {
		t.Fatalf("parseEventTime(rfc3339) error = %v", err)
	}
	if want := time.Date(2026, 2, 4, 15, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("parseEventTime(rfc3339) = %v, want %v", got, want)
	}

	got, err = parseEventTime("2026-02-04")
	if err != nil {
		t.Fatalf("parseEventTime(date) error = %v", err)
	}
	if want := time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("parseEventTime(date) = %v, want %v", got, want)
	}

	got, err = parseEventTime("  ")
	if err != nil || !got.IsZero() {
		t.Fatalf("parseEventTime(blank) = %v, %v, want zero time", got, err)
	}

	if _, err := parseEventTime("02/04/2026"); err == nil {
		t.Fatal("expected parse error for slash date")
	}
}

// TestRunDevModeCreatesWorkspaceLogFile verifies behavior for the covered scenario.
func TestRunDevModeCreatesWorkspaceLogFile(t *testing.T) {
	useFakeProgram(t)

	workspace := t.TempDir()
	t.Chdir(workspace)

	dbPath := filepath.Join(workspace, "takt.db")
	cfgPath := filepath.Join(workspace, "config.toml")
	if err := run(context.Background(), []string{"--dev", "--db", dbPath, "--config", cfgPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	logDir := filepath.Join(workspace, ".takt", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	foundLog := false
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			foundLog = true
			break
		}
	}
	if !foundLog {
		t.Fatalf("expected at least one .log file in %s, got %v", logDir, entries)
	}
}

// TestRunTUIModeWritesRuntimeLogsToFileOnly verifies TUI runtime logs stay out of stderr and persist to the dev log file.
func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	useFakeProgram(t)

	workspace := t.TempDir()
	t.Chdir(workspace)

	dbPath := filepath.Join(workspace, "takt.db")
	cfgPath := filepath.Join(workspace, "config.toml")
	var stderr bytes.Buffer
	if err := run(context.Background(), []string{"--dev", "--db", dbPath, "--config", cfgPath}, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in TUI mode, got %q", got)
	}

	logDir := filepath.Join(workspace, ".takt", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	var logPath string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		logPath = filepath.Join(logDir, entry.Name())
		break
	}
	if logPath == "" {
		t.Fatalf("expected a .log file in %s", logDir)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	logOutput := string(content)
	if !strings.Contains(logOutput, "starting tui program loop") {
		t.Fatalf("expected runtime log file to include TUI lifecycle entries, got %q", logOutput)
	}
}

// TestWorkspaceRootFromUsesNearestMarker verifies workspace-root resolution behavior.
func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "cmd", "takt")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	got := workspaceRootFrom(nested)
	if filepath.Clean(got) != filepath.Clean(root) {
		t.Fatalf("expected workspace root %q, got %q", root, got)
	}
}

// TestDevLogFilePathResolvesAgainstWorkspaceRoot verifies relative log dirs anchor at workspace root.
func TestDevLogFilePathResolvesAgainstWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "cmd", "takt")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	t.Chdir(nested)
	got, err := devLogFilePath(".takt/log", "takt", time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	wantPrefix := filepath.Join(root, ".takt", "log")
	normalize := func(p string) string {
		return strings.TrimPrefix(filepath.Clean(p), "/private")
	}
	if !strings.HasPrefix(normalize(got), normalize(wantPrefix)) {
		t.Fatalf("expected log path under %q, got %q", wantPrefix, got)
	}
	if !strings.HasSuffix(got, "takt-20260222.log") {
		t.Fatalf("expected dated log file name, got %q", got)
	}
}

// TestRunRejectsInvalidLoggingLevelFromConfig verifies behavior for the covered scenario.
func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "takt.db")
	cfgPath := filepath.Join(tmp, "takt.toml")
	cfgContent := "[logging]\nlevel = \"verbose\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected invalid logging level error")
	}
	if !strings.Contains(err.Error(), "invalid logging.level") {
		t.Fatalf("expected logging level validation error, got %v", err)
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies console output can be suppressed while other sinks remain active.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.LoggingConfig{Level: "info"}

	logger, err := newRuntimeLogger(&console, "takt", false, cfg, func() time.Time {
		return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}

	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.SetConsoleEnabled(true)
	logger.Info("after")

	out := console.String()
	if !strings.Contains(out, "before") {
		t.Fatalf("expected console log to include 'before', got %q", out)
	}
	if strings.Contains(out, "during") {
		t.Fatalf("expected muted console log to omit 'during', got %q", out)
	}
	if !strings.Contains(out, "after") {
		t.Fatalf("expected console log to include 'after', got %q", out)
	}
}
