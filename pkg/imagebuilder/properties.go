package imagebuilder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// KubernetesConfig is the autoscaling and resource manifest synthesized for
// Kubernetes-style orchestrators. It is both returned to the caller under the
// "kubernetes_config" key and persisted next to the model source, where the
// deployment step consumes it.
type KubernetesConfig struct {
	MaxReplicaCount             int     `json:"maxReplicaCount"`
	MinReplicaCount             int     `json:"minReplicaCount"`
	CooldownPeriod              int     `json:"cooldownPeriod"`
	TargetAverageUtilization    float64 `json:"targetAverageUtilization"`
	GPUTargetAverageUtilization int     `json:"gpuTargetAverageUtilization"`
	TargetMemoryRequirement     string  `json:"targetMemoryRequirement"`
	TargetMemoryLimit           string  `json:"targetMemoryLimit"`
	VolumeMountName             string  `json:"volumeMountName"`
	MountPath                   string  `json:"mountPath"`
	NumThreads                  int     `json:"numThreads"`
	EnableCuda                  bool    `json:"enableCuda"`

	// Extra holds caller-supplied keys outside the fixed field set. They are
	// persisted and returned verbatim.
	Extra map[string]interface{} `json:"-"`
}

// MarshalJSON merges the pass-through keys into the fixed manifest fields.
func (c KubernetesConfig) MarshalJSON() ([]byte, error) {
	type manifest KubernetesConfig
	out, err := json.Marshal(manifest(c))
	if err != nil || len(c.Extra) == 0 {
		return out, err
	}
	merged := map[string]interface{}{}
	if err := json.Unmarshal(out, &merged); err != nil {
		return nil, err
	}
	for key, value := range c.Extra {
		merged[key] = value
	}
	return json.Marshal(merged)
}

func defaultKubernetesConfig(enableCuda bool) KubernetesConfig {
	return KubernetesConfig{
		MaxReplicaCount:             5,
		MinReplicaCount:             0,
		CooldownPeriod:              1800,
		TargetAverageUtilization:    0.5,
		GPUTargetAverageUtilization: 60,
		TargetMemoryRequirement:     "512Mi",
		TargetMemoryLimit:           "4Gi",
		VolumeMountName:             "efs-vpc",
		MountPath:                   "/shared",
		NumThreads:                  1,
		EnableCuda:                  enableCuda,
	}
}

// prepareKubernetesParameters merges caller overrides (from the
// "kubernetes_config" entry of the properties map) into the default manifest,
// persists the result as <name>_config.json in the build location, and
// returns it.
func (b *Builder) prepareKubernetesParameters(properties map[string]interface{}, enableCuda bool, workerCount int) (KubernetesConfig, error) {
	config := defaultKubernetesConfig(enableCuda)
	if workerCount > 0 {
		config.NumThreads = workerCount
	}

	if properties != nil {
		if overrides, ok := properties["kubernetes_config"].(map[string]interface{}); ok {
			applyKubernetesOverrides(&config, overrides)
		}
	}

	contents, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return KubernetesConfig{}, err
	}
	configPath := filepath.Join(b.location, fmt.Sprintf("%s_config.json", b.name))
	if err := os.WriteFile(configPath, contents, 0o644); err != nil {
		return KubernetesConfig{}, fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	return config, nil
}

// applyKubernetesOverrides applies caller-supplied values field by field.
// Overrides may come from parsed JSON, so numbers are accepted both as ints
// and as float64.
func applyKubernetesOverrides(config *KubernetesConfig, overrides map[string]interface{}) {
	if v, ok := intOverride(overrides, "maxReplicas"); ok {
		config.MaxReplicaCount = v
	}
	if v, ok := intOverride(overrides, "minReplicas"); ok {
		config.MinReplicaCount = v
	}
	if v, ok := intOverride(overrides, "cooldownPeriod"); ok {
		config.CooldownPeriod = v
	}
	if v, ok := floatOverride(overrides, "targetAverageUtilization"); ok {
		config.TargetAverageUtilization = v
	}
	if v, ok := intOverride(overrides, "gpuTargetAverageUtilization"); ok {
		config.GPUTargetAverageUtilization = v
	}
	if v, ok := overrides["targetMemoryRequirement"].(string); ok && v != "" {
		config.TargetMemoryRequirement = v
	}
	if v, ok := overrides["targetMemoryLimit"].(string); ok && v != "" {
		config.TargetMemoryLimit = v
	}
	if v, ok := overrides["volumeMountName"].(string); ok && v != "" {
		config.VolumeMountName = v
	}
	if v, ok := overrides["mountPath"].(string); ok && v != "" {
		config.MountPath = v
	}
	if v, ok := intOverride(overrides, "worker_count"); ok {
		config.NumThreads = v
	}

	// keys outside the fixed field set pass through untouched
	for key, value := range overrides {
		switch key {
		case "maxReplicas", "minReplicas", "cooldownPeriod", "targetAverageUtilization",
			"gpuTargetAverageUtilization", "targetMemoryRequirement", "targetMemoryLimit",
			"volumeMountName", "mountPath", "worker_count":
		default:
			if config.Extra == nil {
				config.Extra = map[string]interface{}{}
			}
			config.Extra[key] = value
		}
	}
}

func intOverride(overrides map[string]interface{}, key string) (int, bool) {
	switch v := overrides[key].(type) {
	case int:
		if v != 0 {
			return v, true
		}
	case float64:
		if v != 0 {
			return int(v), true
		}
	}
	return 0, false
}

func floatOverride(overrides map[string]interface{}, key string) (float64, bool) {
	switch v := overrides[key].(type) {
	case float64:
		if v != 0 {
			return v, true
		}
	case int:
		if v != 0 {
			return float64(v), true
		}
	}
	return 0, false
}

// deploymentProperties synthesizes the orchestrator-specific deployment
// metadata returned alongside the built image name.
func (b *Builder) deploymentProperties(imageName string, enableCuda bool, workerCount int, properties map[string]interface{}) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	for k, v := range properties {
		result[k] = v
	}

	if b.orchestrator.K8sMode() {
		config, err := b.prepareKubernetesParameters(properties, enableCuda, workerCount)
		if err != nil {
			return nil, err
		}
		result["kubernetes_config"] = config
	}

	if b.orchestrator.LocalDockerFamily() {
		result["image_name"] = imageName
		result["lambda_mode"] = b.orchestrator.LambdaMode()
		result["enable_cuda"] = enableCuda
		if b.orchestrator == LocalDockerK8s {
			result["k8s_mode"] = true
		}
	}

	return result, nil
}
