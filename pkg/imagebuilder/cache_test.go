package imagebuilder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackChangesFirstBuildIsChanged(t *testing.T) {
	env := newTestEnv(t, withRequirements("torch"))
	env.writeSourceFile(t, "requirements.txt", "torch\n")

	changed, err := env.builder.trackChanges()
	require.NoError(t, err)
	require.True(t, changed)
}

func TestTrackChangesIdempotent(t *testing.T) {
	env := newTestEnv(t, withRequirements("torch"))
	env.writeSourceFile(t, "requirements.txt", "torch\n")

	_, err := env.builder.trackChanges()
	require.NoError(t, err)

	changed, err := env.builder.trackChanges()
	require.NoError(t, err)
	require.False(t, changed)
}

func TestTrackChangesDetectsFileMutation(t *testing.T) {
	env := newTestEnv(t, withRequirements("torch"))
	env.writeSourceFile(t, "requirements.txt", "torch\n")

	_, err := env.builder.trackChanges()
	require.NoError(t, err)

	env.writeSourceFile(t, "requirements.txt", "torch==1.9.0\n")
	changed, err := env.builder.trackChanges()
	require.NoError(t, err)
	require.True(t, changed)
}

func TestTrackChangesDetectsOrchestratorChange(t *testing.T) {
	env := newTestEnv(t, withRequirements("torch"))
	env.writeSourceFile(t, "requirements.txt", "torch\n")

	_, err := env.builder.trackChanges()
	require.NoError(t, err)

	// same cache directory, same file contents, different orchestrator
	env.builder.orchestrator = AWSSageMaker
	changed, err := env.builder.trackChanges()
	require.NoError(t, err)
	require.True(t, changed)
}

func TestTrackChangesTracksDeclaredFilesOnly(t *testing.T) {
	env := newTestEnv(t,
		withCondaEnv("environment.yml"),
		withArtifacts(map[string]string{"run": "setup.sh"}),
	)
	env.writeSourceFile(t, "environment.yml", "name: my-model\n")
	env.writeSourceFile(t, "setup.sh", "#!/bin/sh\n")

	require.Equal(t, []string{"environment.yml", "setup.sh"}, env.builder.trackedFiles())

	_, err := env.builder.trackChanges()
	require.NoError(t, err)

	env.writeSourceFile(t, "setup.sh", "#!/bin/sh\napt-get update\n")
	changed, err := env.builder.trackChanges()
	require.NoError(t, err)
	require.True(t, changed)
}

func TestTrackChangesMissingDeclaredFileFails(t *testing.T) {
	env := newTestEnv(t, withRequirements("torch"))
	// requirements declared but requirements.txt never written

	_, err := env.builder.trackChanges()
	require.Error(t, err)
	require.Contains(t, err.Error(), "requirements.txt")
}

func TestTrackChangesPersistsRecords(t *testing.T) {
	env := newTestEnv(t, withRequirements("torch"))
	env.writeSourceFile(t, "requirements.txt", "torch\n")

	_, err := env.builder.trackChanges()
	require.NoError(t, err)

	cacheDir := filepath.Join(env.cacheRoot, "my-model", "2")
	for _, record := range []string{hashRecordFile, orchestratorRecordFile} {
		_, err := os.Stat(filepath.Join(cacheDir, record))
		require.NoError(t, err, record)
	}
}
