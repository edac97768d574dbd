package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromYAML(t *testing.T) {
	contents := []byte(`
name: sentiment
version: 2
entrypoint_class: sentiment.SentimentModel
orchestrator: AWS_EKS
requirements:
  - torch==1.9.0
  - transformers
conda_env: environment.yml
artifacts:
  run: setup.sh
worker_count: 4
`)
	config, err := FromYAML(contents)
	require.NoError(t, err)
	require.NoError(t, config.ValidateAndComplete())

	require.Equal(t, "sentiment", config.Name)
	require.Equal(t, "2", config.Version)
	require.Equal(t, "sentiment.SentimentModel", config.EntrypointClass)
	require.Equal(t, "AWS_EKS", config.Orchestrator)
	require.Equal(t, []string{"torch==1.9.0", "transformers"}, config.Requirements)
	require.Equal(t, "environment.yml", config.CondaEnv)
	require.Equal(t, "setup.sh", config.Artifacts["run"])
	require.Equal(t, 4, config.WorkerCount)
	require.Equal(t, 32, config.LambdaAICache)
}

func TestVersionAsString(t *testing.T) {
	config, err := FromYAML([]byte("name: m\nversion: \"1.0.3\"\nentrypoint_class: m.M\n"))
	require.NoError(t, err)
	require.NoError(t, config.ValidateAndComplete())
	require.Equal(t, "1.0.3", config.Version)
}

func TestValidateAndCompleteDefaults(t *testing.T) {
	config := &Config{Name: "my-model", EntrypointClass: "my_model.MyModel"}
	require.NoError(t, config.ValidateAndComplete())
	require.Equal(t, "latest", config.Version)
	require.Equal(t, 1, config.WorkerCount)
	require.Equal(t, 32, config.LambdaAICache)
}

func TestValidateRejectsBadInput(t *testing.T) {
	for _, config := range []*Config{
		{},
		{Name: "My Model", EntrypointClass: "m.M"},
		{Name: "m", EntrypointClass: ""},
		{Name: "m", EntrypointClass: "m.M", Version: "not a version"},
	} {
		require.Error(t, config.ValidateAndComplete())
	}
}

func TestGetConfig(t *testing.T) {
	dir := t.TempDir()
	contents := "name: m\nversion: 1\nentrypoint_class: m.M\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "superai.yaml"), []byte(contents), 0o644))

	config, projectDir, err := GetConfig(dir)
	require.NoError(t, err)
	require.Equal(t, dir, projectDir)
	require.Equal(t, "m", config.Name)
	require.Equal(t, "1", config.Version)
}

func TestGetConfigMissingFile(t *testing.T) {
	_, _, err := GetConfig(t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "superai.yaml")
}
