package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/isseis/go-mojibake-fixer/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRunID(t *testing.T) {
	uuidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	a, b := GenerateRunID(), GenerateRunID()
	assert.Regexp(t, uuidPattern, a)
	assert.NotEqual(t, a, b)
}

func TestSetupConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, err := Setup(Config{
		Level:         slog.LevelInfo,
		ConsoleWriter: &console,
		Capabilities:  stubCapabilities{},
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, logger.Close()) }()

	assert.Empty(t, logger.LogPath)
	logger.Info("File repaired", "path", "a.ts")
	assert.Contains(t, console.String(), `level=INFO msg="File repaired" path=a.ts`)
	assert.NotContains(t, console.String(), "Logger initialized", "debug line hidden at info level")
}

func TestSetupWritesJSONLogFile(t *testing.T) {
	dir := filepath.Join(testhelpers.SafeTempDir(t), "logs")
	var console bytes.Buffer

	logger, err := Setup(Config{
		Level:         slog.LevelDebug,
		LogDir:        dir,
		RunID:         "run-123",
		ConsoleWriter: &console,
		Capabilities:  stubCapabilities{interactive: true},
	})
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(logger.LogPath))
	assert.Regexp(t, `_\d{8}T\d{6}Z_run-123\.json$`, logger.LogPath)

	logger.Warn("Unrepaired mojibake remains", "line", 4)
	require.NoError(t, logger.Close())

	assert.Contains(t, console.String(), "WARN Unrepaired mojibake remains line=4")

	f, err := os.Open(logger.LogPath)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, entries, 2)

	assert.Equal(t, "Logger initialized", entries[0]["msg"])
	last := entries[1]
	assert.Equal(t, "WARN", last["level"])
	assert.Equal(t, "run-123", last["run_id"])
	assert.EqualValues(t, 1, last["schema_version"])
	assert.EqualValues(t, 4, last["line"])
	assert.NotEmpty(t, last["hostname"])

	info, err := os.Stat(logger.LogPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(logFilePerm), info.Mode().Perm())
}

func TestSetupGeneratesRunIDWhenMissing(t *testing.T) {
	logger, err := Setup(Config{
		LogDir:        testhelpers.SafeTempDir(t),
		ConsoleWriter: &bytes.Buffer{},
		Capabilities:  stubCapabilities{},
	})
	require.NoError(t, err)
	defer logger.Close()

	assert.Regexp(t, `_[0-9a-f-]{36}\.json$`, logger.LogPath)
}

func TestValidateLogDir(t *testing.T) {
	assert.ErrorIs(t, ValidateLogDir(""), ErrEmptyLogDirectory)

	nested := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ValidateLogDir(nested))
	assert.DirExists(t, nested)
	require.NoError(t, ValidateLogDir(nested), "existing directory is accepted")

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	assert.ErrorIs(t, ValidateLogDir(file), ErrNotLogDirectory)
}

func TestSetupRejectsFileAsLogDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := Setup(Config{LogDir: file, ConsoleWriter: &bytes.Buffer{}, Capabilities: stubCapabilities{}})
	assert.ErrorIs(t, err, ErrNotLogDirectory)
}
