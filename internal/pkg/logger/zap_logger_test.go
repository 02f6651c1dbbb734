package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *ZapLogger {
	t.Helper()
	l := NewIsolatedLogger(filepath.Join(t.TempDir(), "app.log"))
	l.Info("test", "first", nil)
	l.Info("test", "second", map[string]interface{}{"key": "value"})
	l.Error("test", "third", nil)
	require.NoError(t, l.Sync())
	return l
}

func TestGetLogsNewestFirst(t *testing.T) {
	l := newTestLogger(t)

	entries, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, "first", entries[2].Message)
}

func TestGetLogsLevelFilterAndPaging(t *testing.T) {
	l := newTestLogger(t)

	entries, err := l.GetLogs("ERROR", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "third", entries[0].Message)

	entries, err = l.GetLogs("", 1, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].Message)

	entries, err = l.GetLogs("", 10, 50)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetLogsNegativeBoundsAreHarmless(t *testing.T) {
	l := newTestLogger(t)

	// Query parameters arrive unvalidated from the admin API.
	entries, err := l.GetLogs("", -1, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = l.GetLogs("", 10, -5)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestGetLogsMissingFile(t *testing.T) {
	l := &ZapLogger{filePath: filepath.Join(t.TempDir(), "absent.log")}

	entries, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
