package settings

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	settings, err := Load()
	require.NoError(t, err)
	require.Equal(t, "prod", settings.Environment)
	require.NotEmpty(t, settings.CacheRoot)
	require.False(t, settings.IsDevEnvironment())
}

func TestEnvironmentVariableOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SUPERAI_ENVIRONMENT", "dev")

	settings, err := Load()
	require.NoError(t, err)
	require.Equal(t, "dev", settings.Environment)
	require.True(t, settings.IsDevEnvironment())
}
