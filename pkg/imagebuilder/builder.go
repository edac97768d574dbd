// Package imagebuilder assembles containerized model-serving images. Images
// are built in two s2i stages on top of a provisioned base image: a
// dependency layer that is cached and reused while the declared dependency
// files are unchanged, and an application layer that is rebuilt on every
// invocation. The builder also synthesizes the orchestrator-specific
// deployment properties consumed by the deploy step.
package imagebuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/mysuperai/superai/pkg/docker"
	"github.com/mysuperai/superai/pkg/envfile"
	"github.com/mysuperai/superai/pkg/settings"
	"github.com/mysuperai/superai/pkg/util/console"
)

// buildPipFlag gates pip installs inside the build container. It is cleared
// for the dependency stage and set to false for the application stage.
const buildPipFlag = "BUILD_PIP"

// Options configures a Builder.
type Options struct {
	Orchestrator Orchestrator
	// EntrypointClass is the dotted path of the model class the generated
	// handler imports.
	EntrypointClass string
	// Location is the model source directory; it is the s2i build context and
	// the place generated files are written to.
	Location string
	Name     string
	Version  string
	// Environs is the environment file passed to the build container.
	Environs *envfile.Processor

	// Dependency descriptors. Declaring one makes the corresponding file in
	// Location tracked by the change-detection cache.
	Requirements []string
	CondaEnv     string
	Artifacts    map[string]string

	Settings  settings.Settings
	Docker    docker.Client
	Registry  RegistryClient
	BuildTool BuildTool
}

// preparer is the per-variant preparation step that runs before the image
// build: the prediction builder writes entrypoint files, the trainer builder
// writes the Kubernetes parameter file instead.
type preparer interface {
	prepare(b *Builder, opts BuildOptions) error
}

// Builder builds a model image for one orchestrator. The orchestrator is
// validated at construction and immutable afterwards.
type Builder struct {
	orchestrator    Orchestrator
	entrypointClass string
	location        string
	name            string
	version         string
	environs        *envfile.Processor

	requirements []string
	condaEnv     string
	artifacts    map[string]string

	settings  settings.Settings
	docker    docker.Client
	registry  RegistryClient
	buildTool BuildTool
	preparer  preparer
}

// NewBuilder constructs a prediction image builder, accepting the full
// orchestrator set.
func NewBuilder(opts Options) (*Builder, error) {
	return newBuilder(opts, PredictionOrchestrators(), predictionPreparer{})
}

// NewTrainerBuilder constructs a training image builder, accepting only
// Kubernetes-style orchestrators.
func NewTrainerBuilder(opts Options) (*Builder, error) {
	return newBuilder(opts, TrainingOrchestrators(), trainerPreparer{})
}

func newBuilder(opts Options, allowed []Orchestrator, preparer preparer) (*Builder, error) {
	if err := checkOrchestrator(opts.Orchestrator, allowed); err != nil {
		return nil, err
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("model name must not be empty")
	}
	if opts.Version == "" {
		return nil, fmt.Errorf("model version must not be empty")
	}
	if opts.Environs == nil {
		return nil, fmt.Errorf("environment file processor must not be nil")
	}

	b := &Builder{
		orchestrator:    opts.Orchestrator,
		entrypointClass: opts.EntrypointClass,
		location:        opts.Location,
		name:            opts.Name,
		version:         opts.Version,
		environs:        opts.Environs,
		requirements:    opts.Requirements,
		condaEnv:        opts.CondaEnv,
		artifacts:       opts.Artifacts,
		settings:        opts.Settings,
		docker:          opts.Docker,
		registry:        opts.Registry,
		buildTool:       opts.BuildTool,
		preparer:        preparer,
	}
	if b.buildTool == nil {
		b.buildTool = NewS2I()
	}
	return b, nil
}

// BuildOptions are the per-invocation build parameters.
type BuildOptions struct {
	CudaDevel  bool
	EnableCuda bool
	EnableEIA  bool
	// SkipBuild computes the image name and properties without invoking the
	// build tool.
	SkipBuild bool
	// BuildAllLayers forces the dependency layer to be rebuilt even when no
	// change was detected.
	BuildAllLayers bool
	// DownloadBase always pulls the base image and implies BuildAllLayers.
	DownloadBase bool
	// UseInternal selects the internal development base image.
	UseInternal bool

	// Properties are caller-supplied deployment properties merged into the
	// synthesized result.
	Properties map[string]interface{}
	// Envs are extra variables written to the environment file before the
	// build.
	Envs map[string]string

	// LambdaAICache is the cache size baked into lambda handlers (default 32).
	LambdaAICache int
	// WorkerCount is the serving worker count baked into the entrypoint
	// (default 1).
	WorkerCount int
}

func (opts *BuildOptions) applyDefaults() {
	if opts.LambdaAICache == 0 {
		opts.LambdaAICache = 32
	}
	if opts.WorkerCount == 0 {
		opts.WorkerCount = 1
	}
}

// FullImageName returns the application image reference for a model.
func FullImageName(name, version string) string {
	return fmt.Sprintf("%s:%s", name, version)
}

func pipLayerImageName(name, version string) string {
	return fmt.Sprintf("%s-pip-layer:%s", name, version)
}

// Build runs the whole pipeline: applies extra environment variables, runs
// the variant preparation step, builds the image unless skipped, and
// synthesizes deployment properties. It returns the full image reference and
// the properties map.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (string, map[string]interface{}, error) {
	opts.applyDefaults()

	for key, value := range opts.Envs {
		if err := b.environs.Set(key, value); err != nil {
			return "", nil, err
		}
	}
	if err := b.preparer.prepare(b, opts); err != nil {
		return "", nil, err
	}

	imageName := FullImageName(b.name, b.version)
	if !opts.SkipBuild {
		built, err := b.buildImage(ctx, opts)
		if err != nil {
			return "", nil, err
		}
		imageName = built
	}

	properties, err := b.deploymentProperties(imageName, opts.EnableCuda, opts.WorkerCount, opts.Properties)
	if err != nil {
		return "", nil, err
	}
	return imageName, properties, nil
}

// buildImage is the layered s2i build: resolve and provision the base image,
// detect changes, rebuild the dependency layer when needed, then always build
// the application layer on top of it.
func (b *Builder) buildImage(ctx context.Context, opts BuildOptions) (string, error) {
	k8sMode := b.orchestrator.K8sMode()
	lambdaMode := b.orchestrator.LambdaMode()
	start := time.Now()

	changed, err := b.trackChanges()
	if err != nil {
		return "", err
	}

	baseImage, err := BaseImageName(BaseImageOptions{
		EnableCuda:  opts.EnableCuda,
		CudaDevel:   opts.CudaDevel,
		EnableEIA:   opts.EnableEIA,
		LambdaMode:  lambdaMode,
		K8sMode:     k8sMode,
		UseInternal: opts.UseInternal,
		Environment: b.settings.Environment,
	})
	if err != nil {
		return "", err
	}

	fromScratch := opts.BuildAllLayers
	if opts.DownloadBase {
		console.Infof("Downloading newest base image %s...", baseImage)
		if err := b.downloadBaseImage(ctx, baseImage); err != nil {
			return "", err
		}
		// a fresh base invalidates every layer built on top of it
		fromScratch = true
	}
	if err := b.ensureBaseImage(ctx, baseImage); err != nil {
		return "", err
	}

	if err := b.buildTool.Check(); err != nil {
		return "", err
	}

	pipLayerImage := pipLayerImageName(b.name, b.version)
	if changed {
		fromScratch = true
	} else if !fromScratch {
		exists, err := b.docker.ImageExists(ctx, pipLayerImage)
		if err != nil {
			return "", fmt.Errorf("failed to check for dependency layer image: %w", err)
		}
		if exists {
			console.Infof("No change in pip layer. Reusing image %s...", pipLayerImage)
		} else {
			console.Info("Pip layer image not found, rebuilding")
			fromScratch = true
		}
	}

	if fromScratch {
		if err := b.environs.Delete(buildPipFlag); err != nil {
			return "", err
		}
		if err := b.buildStage(ctx, baseImage, pipLayerImage, lambdaMode, k8sMode); err != nil {
			return "", err
		}
	}

	// mark dependencies as cached for the application stage
	if err := b.environs.Set(buildPipFlag, "false"); err != nil {
		return "", err
	}
	fullImageName := FullImageName(b.name, b.version)
	if err := b.buildStage(ctx, pipLayerImage, fullImageName, lambdaMode, k8sMode); err != nil {
		return "", err
	}

	console.Infof("Built main container `%s`", fullImageName)
	console.Infof("Time taken to build: %.2fs", time.Since(start).Seconds())
	return fullImageName, nil
}

// buildStage injects the orchestrator-specific environment and runs one build
// tool invocation.
func (b *Builder) buildStage(ctx context.Context, sourceImage, targetImage string, lambdaMode, k8sMode bool) error {
	if err := b.environs.Set("SUPERAI_CONFIG_ROOT", "/tmp/.superai"); err != nil {
		return err
	}
	if lambdaMode {
		if err := b.environs.Set("LAMBDA_MODE", "true"); err != nil {
			return err
		}
	} else if k8sMode {
		for _, entry := range []struct{ key, value string }{
			{"SERVICE_TYPE", "MODEL"},
			{"PERSISTENCE", "0"},
			{"API_TYPE", "REST"},
			{"SELDON_MODE", "true"},
		} {
			if err := b.environs.Set(entry.key, entry.value); err != nil {
				return err
			}
		}
	}

	return b.buildTool.Build(ctx, BuildToolOptions{
		EnvFile:     b.environs.Location(),
		WorkDir:     b.location,
		SourceImage: sourceImage,
		TargetImage: targetImage,
	})
}

type predictionPreparer struct{}

func (predictionPreparer) prepare(b *Builder, opts BuildOptions) error {
	return b.prepareEntrypoint(opts.LambdaAICache, opts.WorkerCount)
}

type trainerPreparer struct{}

func (trainerPreparer) prepare(b *Builder, opts BuildOptions) error {
	_, err := b.prepareKubernetesParameters(opts.Properties, opts.EnableCuda, opts.WorkerCount)
	return err
}
