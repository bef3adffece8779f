package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuffer(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	SetOutput(buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return buf
}

func TestDebug_SilentByDefault(t *testing.T) {
	buf := withBuffer(t)

	Debug("hidden %d", 1)

	assert.Empty(t, buf.String())
}

func TestDebug_VerboseEnabled(t *testing.T) {
	buf := withBuffer(t)
	SetVerbose(true)

	Debug("backend %s failed", "primary")

	assert.Equal(t, "[DEBUG] backend primary failed\n", buf.String())
}

func TestLevels(t *testing.T) {
	buf := withBuffer(t)
	SetVerbose(true)

	Info("i")
	Warn("w")
	Section("Query Orchestration")

	out := buf.String()
	assert.Contains(t, out, "[INFO] i\n")
	assert.Contains(t, out, "[WARN] w\n")
	assert.Contains(t, out, "=== Query Orchestration ===")
}

func TestIsVerbose(t *testing.T) {
	withBuffer(t)

	SetVerbose(true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}
