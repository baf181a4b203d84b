package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBufferedLogger(t *testing.T, cfg *LoggingConfig) (*CentralLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	cl, err := newCentralLogger(cfg, buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cl.Close() })
	return cl, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestModuleLoggerWritesModuleAndFields(t *testing.T) {
	t.Parallel()

	cl, buf := newBufferedLogger(t, &LoggingConfig{Format: "json"})
	log := cl.Module("inventory").Module("bulk")

	log.Info("bulk finished", String("operation", "finish"), Int("affected", 3), Float64("volume", 1.23456))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "inventory.bulk", entries[0]["module"])
	assert.Equal(t, "finish", entries[0]["operation"])
	assert.InDelta(t, 3, entries[0]["affected"], 0)
	assert.InDelta(t, 1.235, entries[0]["volume"], 0.0001)
}

func TestModuleLevelOverrides(t *testing.T) {
	t.Parallel()

	cl, buf := newBufferedLogger(t, &LoggingConfig{
		Format:       "json",
		DefaultLevel: "warn",
		ModuleLevels: map[string]string{"datastore": "trace"},
	})

	cl.Module("api").Info("dropped")
	cl.Module("datastore").Module("sqlite").Trace("kept")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "datastore.sqlite", entries[0]["module"])
}

func TestErrorAlwaysLogged(t *testing.T) {
	t.Parallel()

	cl, buf := newBufferedLogger(t, &LoggingConfig{Format: "json", DefaultLevel: "error"})
	log := cl.Module("notification")

	log.Warn("dropped")
	log.Error("kept", Error(assert.AnError))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, assert.AnError.Error(), entries[0]["error"])
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	t.Parallel()

	cl, buf := newBufferedLogger(t, &LoggingConfig{Format: "json"})
	parent := cl.Module("api")
	child := parent.With(String("user", "alice"))

	child.Info("child")
	parent.Info("parent")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0]["user"])
	assert.NotContains(t, entries[1], "user")
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	cl, buf := newBufferedLogger(t, &LoggingConfig{Format: "json"})
	ctx := WithTraceID(context.Background(), "req-123")

	cl.Module("api").WithContext(ctx).Info("handled")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0]["trace_id"])
}

func TestSensitiveValuesRedacted(t *testing.T) {
	t.Parallel()

	assert.Equal(t, redacted, String("db_password", "hunter2").Value)
	assert.Equal(t, "alice", String("user", "alice").Value)

	msg := RedactSensitiveData("dial postgres://pcr:hunter2@db:5432/pcr password=hunter2")
	assert.NotContains(t, msg, "hunter2")
	assert.Contains(t, msg, "postgres://pcr:[REDACTED]@db")
}

func TestFileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "pcrdb.log")
	cl, _ := newBufferedLogger(t, &LoggingConfig{File: path})

	cl.Module("cmd").Info("started")
	require.NoError(t, cl.Flush())
	assert.FileExists(t, path)
}

func TestInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := newCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestGormAdapterTrace(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	var observed []time.Duration
	adapter := NewGormLoggerAdapter(NewSlogLogger(buf, LogLevelDebug, time.UTC), 10*time.Millisecond).
		OnQuery(func(elapsed time.Duration, _ error) { observed = append(observed, elapsed) })

	fc := func() (string, int64) { return "SELECT 1", 1 }

	adapter.Trace(context.Background(), time.Now(), fc, nil)
	assert.Empty(t, buf.String(), "plain queries log at trace")

	adapter.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "record-not-found is not a query error")

	adapter.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "slow query")

	adapter.Trace(context.Background(), time.Now(), fc, assert.AnError)
	assert.Contains(t, buf.String(), "query error")

	assert.Len(t, observed, 4)
}
