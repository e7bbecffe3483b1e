package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	buf.Reset()
	return line
}

func TestBusinessAndInternalErrorLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "json")

	log.BusinessError("session.login: conflict", errors.New("session active on another device"), "user_id", "alice")
	line := decodeLine(t, &buf)
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "session active on another device", line["err"])
	assert.Equal(t, "alice", line["user_id"])

	log.InternalError("family.delete: failed", errors.New("connection reset"))
	assert.Equal(t, "ERROR", decodeLine(t, &buf)["level"])

	log.InternalError("family.delete: failed", nil)
	assert.Zero(t, buf.Len())
}

func TestCriticalLevelName(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, "json").Critical("app: init failed")
	assert.Equal(t, "CRITICAL", decodeLine(t, &buf)["level"])
}

func TestSensitiveValuesAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "json").With("Authorization", "Bearer abc")

	log.Info("auth.login: attempt", "password", "hunter2", "access_token", "tok", "device_id", "phone")
	line := decodeLine(t, &buf)
	assert.Equal(t, "[redacted]", line["password"])
	assert.Equal(t, "[redacted]", line["access_token"])
	assert.Equal(t, "[redacted]", line["Authorization"])
	assert.Equal(t, "phone", line["device_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("", "development"))
	assert.Equal(t, slog.LevelInfo, parseLevel("", "production"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARNING ", "production"))
	assert.Equal(t, LevelCritical, parseLevel("fatal", "production"))
	assert.Equal(t, "json", parseFormat("yaml"))
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Critical("nothing")
	log.With("k", "v").InternalError("nothing", errors.New("x"))
}
