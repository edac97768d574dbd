package config

import (
	"fmt"
	"regexp"
	"strings"

	version "github.com/hashicorp/go-version"
)

var nameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Config is the model project description loaded from superai.yaml. It carries
// the model identity and the build inputs the image builder tracks.
type Config struct {
	// Name of the model, used for the image name.
	Name string `yaml:"name"`
	// Version of the model, used for the image tag. Plain integers are allowed
	// and normalized to strings.
	Version string `yaml:"version"`
	// EntrypointClass is the dotted path of the model class the generated
	// handler imports, e.g. "my_model.MyModel".
	EntrypointClass string `yaml:"entrypoint_class"`
	// Orchestrator is the default deployment target for this model.
	Orchestrator string `yaml:"orchestrator"`

	// Requirements lists pip requirements. When set, requirements.txt in the
	// model directory is tracked for dependency-layer rebuilds.
	Requirements []string `yaml:"requirements"`
	// CondaEnv is the path of a conda environment descriptor. When set,
	// environment.yml is tracked.
	CondaEnv string `yaml:"conda_env"`
	// Artifacts maps artifact names to locations. A "run" entry declares a
	// setup.sh script that is tracked.
	Artifacts map[string]string `yaml:"artifacts"`

	// WorkerCount is the number of serving workers baked into the entrypoint.
	WorkerCount int `yaml:"worker_count"`
	// LambdaAICache is the model cache size baked into lambda handlers.
	LambdaAICache int `yaml:"lambda_ai_cache"`
}

// UnmarshalYAML accepts both strings and integers for the version field,
// normalizing integers to their string form.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	aux := struct {
		Name            string            `yaml:"name"`
		Version         interface{}       `yaml:"version"`
		EntrypointClass string            `yaml:"entrypoint_class"`
		Orchestrator    string            `yaml:"orchestrator"`
		Requirements    []string          `yaml:"requirements"`
		CondaEnv        string            `yaml:"conda_env"`
		Artifacts       map[string]string `yaml:"artifacts"`
		WorkerCount     int               `yaml:"worker_count"`
		LambdaAICache   int               `yaml:"lambda_ai_cache"`
	}{}
	if err := unmarshal(&aux); err != nil {
		return err
	}

	c.Name = aux.Name
	c.EntrypointClass = aux.EntrypointClass
	c.Orchestrator = aux.Orchestrator
	c.Requirements = aux.Requirements
	c.CondaEnv = aux.CondaEnv
	c.Artifacts = aux.Artifacts
	c.WorkerCount = aux.WorkerCount
	c.LambdaAICache = aux.LambdaAICache

	switch v := aux.Version.(type) {
	case nil:
		c.Version = ""
	case string:
		c.Version = v
	case int:
		c.Version = fmt.Sprintf("%d", v)
	default:
		return fmt.Errorf("unexpected type %T for model version", v)
	}
	return nil
}

// ValidateAndComplete checks required fields and fills defaults.
func (c *Config) ValidateAndComplete() error {
	if c.Name == "" {
		return fmt.Errorf("superai.yaml must set 'name'")
	}
	if !nameRegex.MatchString(c.Name) {
		return fmt.Errorf("model name %q is not a valid image name: must match %s", c.Name, nameRegex)
	}
	if c.Version == "" {
		c.Version = "latest"
	} else if err := validateVersionTag(c.Version); err != nil {
		return err
	}
	if c.EntrypointClass == "" {
		return fmt.Errorf("superai.yaml must set 'entrypoint_class'")
	}
	if c.WorkerCount == 0 {
		c.WorkerCount = 1
	}
	if c.LambdaAICache == 0 {
		c.LambdaAICache = 32
	}
	return nil
}

// validateVersionTag accepts "latest", bare integers and semver-ish versions.
func validateVersionTag(tag string) error {
	if tag == "latest" {
		return nil
	}
	if _, err := version.NewVersion(strings.TrimPrefix(tag, "v")); err != nil {
		return fmt.Errorf("model version %q is not a valid version tag: %w", tag, err)
	}
	return nil
}
