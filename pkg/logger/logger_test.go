package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Leopold1975/articles_catalog/internal/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.log")

	lg, err := New(config.Logger{Level: "info", Output: []string{out}, ErrOutput: []string{"stderr"}})
	require.NoError(t, err)

	lg.Infof("article %s created", "a-1")
	lg.Debugf("hidden %d", 1)
	require.NoError(t, lg.Sync())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(b), "article a-1 created")
	require.NotContains(t, string(b), "hidden")
}

func TestNewBadLevel(t *testing.T) {
	_, err := New(config.Logger{Level: "loud"})
	require.Error(t, err)
}
