package imagebuilder

import "fmt"

const (
	// baseImageFamily is the one supported source image family for s2i builds.
	baseImageFamily = "superai-model-s2i-python3711"
	// baseImageSchemaVersion is the tag of the base image generation.
	baseImageSchemaVersion = 1
)

// BaseImageOptions is the configuration tuple a base image name is derived
// from. Two tuples resolve to the same name iff all fields are equal.
type BaseImageOptions struct {
	EnableCuda  bool
	CudaDevel   bool
	EnableEIA   bool
	LambdaMode  bool
	K8sMode     bool
	UseInternal bool
	// Environment is the active platform environment; "dev" selects internal
	// images the same way UseInternal does.
	Environment string
}

// BaseImageName resolves the canonical base image reference for a
// configuration tuple. It is a pure function: no I/O, no hidden state.
func BaseImageName(opts BaseImageOptions) (string, error) {
	if opts.EnableEIA && (opts.LambdaMode || opts.EnableCuda || opts.K8sMode) {
		return "", fmt.Errorf("cannot use EIA together with Lambda, CUDA or Kubernetes mode")
	}
	if opts.EnableCuda && opts.LambdaMode {
		return "", fmt.Errorf("cannot use CUDA with Lambda")
	}

	baseImage := baseImageFamily

	switch {
	case opts.CudaDevel:
		baseImage += "-gpu-devel"
	case opts.EnableCuda:
		baseImage += "-gpu"
	case opts.EnableEIA:
		baseImage += "-eia"
	default:
		baseImage += "-cpu"
	}

	if opts.Environment == "dev" || opts.UseInternal {
		baseImage += "-internal"
	}

	if opts.LambdaMode {
		baseImage += "-lambda"
	} else if opts.K8sMode {
		baseImage += "-seldon"
	}

	return fmt.Sprintf("%s:%d", baseImage, baseImageSchemaVersion), nil
}
