package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecf/tally/internal/llm"
)

func writeHistory(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadHistory(t *testing.T) {
	path := writeHistory(t, `[
		{"role": "user", "content": "what is a channel?"},
		{"role": "assistant", "content": "A typed conduit."}
	]`)

	msgs, err := loadHistory(path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.ChatMessage{Role: llm.RoleUser, Content: "what is a channel?"}, msgs[0])
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
}

func TestLoadHistory_Errors(t *testing.T) {
	_, err := loadHistory(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = loadHistory(writeHistory(t, `{"role":"user"}`))
	assert.Error(t, err)

	_, err = loadHistory(writeHistory(t, `[{"role":"function","content":"x"}]`))
	assert.Error(t, err)

	_, err = loadHistory(writeHistory(t, `[{"content":"no role"}]`))
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "héé...", truncate("hééllo", 3))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel(""))
}
