package imagebuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrchestrator(t *testing.T) {
	o, err := ParseOrchestrator("AWS_EKS")
	require.NoError(t, err)
	require.Equal(t, AWSEKS, o)

	o, err = ParseOrchestrator("local_docker")
	require.NoError(t, err)
	require.Equal(t, LocalDocker, o)

	_, err = ParseOrchestrator("AWS_FARGATE")
	require.Error(t, err)
	require.Contains(t, err.Error(), "AWS_FARGATE")
}

func TestOrchestratorModes(t *testing.T) {
	require.True(t, AWSLambda.LambdaMode())
	require.True(t, LocalDockerLambda.LambdaMode())
	require.False(t, AWSEKS.LambdaMode())

	require.True(t, AWSEKS.K8sMode())
	require.True(t, LocalDockerK8s.K8sMode())
	require.False(t, AWSSageMaker.K8sMode())

	require.True(t, AWSSageMaker.ServesContainers())
	require.True(t, AWSSageMakerAsync.ServesContainers())
	require.True(t, LocalDocker.ServesContainers())
	require.False(t, AWSLambda.ServesContainers())

	require.True(t, LocalDockerLambda.LocalDockerFamily())
	require.False(t, AWSEKS.LocalDockerFamily())
}

func TestTrainerBuilderRejectsServingOrchestrators(t *testing.T) {
	env := newTestEnv(t)

	opts := Options{
		Orchestrator:    LocalDocker,
		EntrypointClass: "my_model.MyModel",
		Location:        env.location,
		Name:            "my-model",
		Version:         "1",
		Environs:        env.environs,
	}
	_, err := NewTrainerBuilder(opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "LOCAL_DOCKER")
	require.Contains(t, err.Error(), "AWS_EKS")

	opts.Orchestrator = AWSEKS
	_, err = NewTrainerBuilder(opts)
	require.NoError(t, err)
}

func TestNewBuilderValidation(t *testing.T) {
	env := newTestEnv(t)

	opts := Options{
		Orchestrator:    Orchestrator("SOMETHING_ELSE"),
		EntrypointClass: "my_model.MyModel",
		Location:        env.location,
		Name:            "my-model",
		Version:         "1",
		Environs:        env.environs,
	}
	_, err := NewBuilder(opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "SOMETHING_ELSE")

	opts.Orchestrator = LocalDocker
	opts.Name = ""
	_, err = NewBuilder(opts)
	require.Error(t, err)

	opts.Name = "my-model"
	opts.Environs = nil
	_, err = NewBuilder(opts)
	require.Error(t, err)
}
