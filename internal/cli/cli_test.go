package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/schedrecovery/internal/control"
	"github.com/vietddude/schedrecovery/internal/core/config"
	"github.com/vietddude/schedrecovery/internal/core/domain"
)

func writeSQLiteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "logging:\n  level: error\nstorage:\n  backend: sqlite\ndatabase:\n  url: " +
		filepath.Join(dir, "recovery.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func seed(t *testing.T, cfgFile string, fn func(app *control.App)) {
	t.Helper()
	cfg, err := config.Load(cfgFile)
	require.NoError(t, err)
	app, err := control.NewApp(context.Background(), cfg, control.Options{})
	require.NoError(t, err)
	defer app.Close()
	fn(app)
}

func TestKinds(t *testing.T) {
	out, err := run(t, "kinds", "--config", writeSQLiteConfig(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(domain.AllErrorKinds())+1)
	assert.Contains(t, out, "network_error")
	assert.Contains(t, out, "data_corruption")
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := run(t, "kinds", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHistoryCommands(t *testing.T) {
	cfgFile := writeSQLiteConfig(t)

	var opID string
	seed(t, cfgFile, func(app *control.App) {
		var err error
		opID, err = app.History.Record(context.Background(), "u1", domain.OpCreateEvent,
			nil, map[string]any{"summary": "Dentist"}, domain.ChangeContext{Source: domain.SourceLineBot})
		require.NoError(t, err)
	})

	out, err := run(t, "history", "list", "u1", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, opID)
	assert.Contains(t, out, "Created event: Dentist")

	out, err = run(t, "history", "undo", "u1", opID, "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully undone")

	_, err = run(t, "history", "undo", "u1", opID, "--config", cfgFile)
	assert.Error(t, err, "second undo is rejected")

	out, err = run(t, "history", "redo", "u1", opID, "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully redone")

	out, err = run(t, "history", "clear", "u1", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared history of u1")

	out, err = run(t, "history", "list", "u1", "--config", cfgFile)
	require.NoError(t, err)
	assert.NotContains(t, out, opID)
}

func TestHistoryBulkUndo(t *testing.T) {
	cfgFile := writeSQLiteConfig(t)
	seed(t, cfgFile, func(app *control.App) {
		for _, title := range []string{"a", "b"} {
			_, err := app.History.Record(context.Background(), "u1", domain.OpEditTitle,
				nil, map[string]any{"summary": title}, domain.ChangeContext{})
			require.NoError(t, err)
		}
	})

	out, err := run(t, "history", "bulk-undo", "u1", "--since", "1h", "--until=-1m", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Undone 2 operations, 0 failed")
}

func TestRollbackCommands(t *testing.T) {
	cfgFile := writeSQLiteConfig(t)
	seed(t, cfgFile, func(app *control.App) {
		_, err := app.Recovery.CreateRollbackPoint(context.Background(), "s1", "pick_time", map[string]any{}, "before pick")
		require.NoError(t, err)
	})

	out, err := run(t, "rollback", "list", "s1", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "pick_time")
	assert.Contains(t, out, "before pick")

	_, err = run(t, "rollback", "clear", "s1", "--config", cfgFile)
	require.NoError(t, err)

	out, err = run(t, "rollback", "list", "s1", "--config", cfgFile)
	require.NoError(t, err)
	assert.NotContains(t, out, "pick_time")
}

func TestParseInstant(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := parseInstant("2h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-2*time.Hour), got)

	got, err = parseInstant("2025-02-28T09:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC), got)

	_, err = parseInstant("yesterday", now)
	assert.Error(t, err)
}
