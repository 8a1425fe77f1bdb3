package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.env")

	content := "# gopls settings\nGOFLAGS=-mod=mod\nexport GOPROXY=off\nQUOTED=\"a b\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	env, err := LoadEnvFile(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"GOFLAGS": "-mod=mod",
		"GOPROXY": "off",
		"QUOTED":  "a b",
	}, env)

	// The current process environment is untouched.
	_, set := os.LookupEnv("QUOTED")
	require.False(t, set)
}

func TestLoadEnvFile_Missing(t *testing.T) {
	_, err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorContains(t, err, "load env file")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestGetInitializeTimeout(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(InitializeTimeoutEnv, "")

		require.Equal(t, DefaultInitializeTimeout, (&Options{}).GetInitializeTimeout())
		require.Equal(t, DefaultInitializeTimeout, (*Options)(nil).GetInitializeTimeout())
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv(InitializeTimeoutEnv, "5")

		require.Equal(t, 5*time.Second, (&Options{}).GetInitializeTimeout())
	})

	t.Run("invalid env", func(t *testing.T) {
		t.Setenv(InitializeTimeoutEnv, "soon")

		require.Equal(t, DefaultInitializeTimeout, (&Options{}).GetInitializeTimeout())
	})

	t.Run("explicit wins", func(t *testing.T) {
		t.Setenv(InitializeTimeoutEnv, "5")

		timeout := 2 * time.Second
		require.Equal(t, timeout, (&Options{InitializeTimeout: &timeout}).GetInitializeTimeout())
	})
}
