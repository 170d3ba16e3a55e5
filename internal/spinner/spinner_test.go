package spinner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinner_NotTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stderr"))
	require.NoError(t, err)
	defer f.Close()

	s := New("Asking gpt-4o-mini...")
	s.out = f

	s.Start()
	assert.False(t, s.active)
	s.Stop()

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	s := New("idle")
	s.Stop()
	s.Stop()
}
