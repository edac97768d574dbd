package imagebuilder

import (
	"fmt"
	"strings"
)

// Orchestrator is the deployment target a model image is built for. The set
// is closed; builder variants accept different subsets of it.
type Orchestrator string

const (
	LocalDocker       Orchestrator = "LOCAL_DOCKER"
	LocalDockerLambda Orchestrator = "LOCAL_DOCKER_LAMBDA"
	LocalDockerK8s    Orchestrator = "LOCAL_DOCKER_K8S"
	Minikube          Orchestrator = "MINIKUBE"
	AWSSageMaker      Orchestrator = "AWS_SAGEMAKER"
	AWSSageMakerAsync Orchestrator = "AWS_SAGEMAKER_ASYNC"
	AWSLambda         Orchestrator = "AWS_LAMBDA"
	AWSEKS            Orchestrator = "AWS_EKS"
)

// PredictionOrchestrators is the full set accepted by the prediction builder.
func PredictionOrchestrators() []Orchestrator {
	return []Orchestrator{
		LocalDocker,
		LocalDockerLambda,
		LocalDockerK8s,
		Minikube,
		AWSSageMaker,
		AWSSageMakerAsync,
		AWSLambda,
		AWSEKS,
	}
}

// TrainingOrchestrators is the subset accepted by the trainer builder.
func TrainingOrchestrators() []Orchestrator {
	return []Orchestrator{
		LocalDockerK8s,
		AWSEKS,
	}
}

// ParseOrchestrator converts a user-supplied string into an Orchestrator.
func ParseOrchestrator(s string) (Orchestrator, error) {
	o := Orchestrator(strings.ToUpper(s))
	for _, known := range PredictionOrchestrators() {
		if o == known {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown orchestrator %q, must be one of %s", s, orchestratorNames(PredictionOrchestrators()))
}

// LambdaMode reports whether images for this target run as lambda handlers.
func (o Orchestrator) LambdaMode() bool {
	return o == LocalDockerLambda || o == AWSLambda
}

// K8sMode reports whether images for this target are deployed through
// Kubernetes manifests.
func (o Orchestrator) K8sMode() bool {
	return o == AWSEKS || o == LocalDockerK8s
}

// ServesContainers reports whether the target runs the image as a plain
// serving container, which needs generated handler and entrypoint files.
func (o Orchestrator) ServesContainers() bool {
	return o == LocalDocker || o == AWSSageMaker || o == AWSSageMakerAsync
}

// LocalDockerFamily reports whether the target runs on the local engine.
func (o Orchestrator) LocalDockerFamily() bool {
	return o == LocalDocker || o == LocalDockerLambda || o == LocalDockerK8s
}

// checkOrchestrator validates o against the allowed set of a builder variant.
// It runs once at construction; the value is immutable afterwards.
func checkOrchestrator(o Orchestrator, allowed []Orchestrator) error {
	for _, a := range allowed {
		if o == a {
			return nil
		}
	}
	return fmt.Errorf("invalid orchestrator %q, should be one of %s", o, orchestratorNames(allowed))
}

func orchestratorNames(orchestrators []Orchestrator) string {
	names := make([]string, len(orchestrators))
	for i, o := range orchestrators {
		names[i] = string(o)
	}
	return "[" + strings.Join(names, ", ") + "]"
}
