package imagebuilder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mysuperai/superai/pkg/envfile"
	"github.com/mysuperai/superai/pkg/settings"
)

type fakeDocker struct {
	images    map[string]bool
	pulled    []string
	tagged    map[string]string
	existsErr error
}

func newFakeDocker(existing ...string) *fakeDocker {
	f := &fakeDocker{
		images: map[string]bool{},
		tagged: map[string]string{},
	}
	for _, ref := range existing {
		f.images[ref] = true
	}
	return f
}

func (f *fakeDocker) ImageExists(ctx context.Context, ref string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.images[ref], nil
}

func (f *fakeDocker) Pull(ctx context.Context, ref string) error {
	f.pulled = append(f.pulled, ref)
	f.images[ref] = true
	return nil
}

func (f *fakeDocker) Tag(ctx context.Context, source, target string) error {
	f.tagged[source] = target
	f.images[target] = true
	return nil
}

type fakeRegistry struct {
	address string
	logins  []string
}

func (f *fakeRegistry) Address(ctx context.Context) (string, error) {
	return f.address, nil
}

func (f *fakeRegistry) Login(ctx context.Context, registryAddress string) error {
	f.logins = append(f.logins, registryAddress)
	return nil
}

type fakeBuildTool struct {
	docker      *fakeDocker
	invocations []BuildToolOptions
	checkErr    error
	buildErr    error
}

func (f *fakeBuildTool) Check() error {
	return f.checkErr
}

func (f *fakeBuildTool) Build(ctx context.Context, opts BuildToolOptions) error {
	if f.buildErr != nil {
		return f.buildErr
	}
	f.invocations = append(f.invocations, opts)
	if f.docker != nil {
		// a successful stage leaves its target image in the local engine
		f.docker.images[opts.TargetImage] = true
	}
	return nil
}

type testEnv struct {
	builder   *Builder
	docker    *fakeDocker
	registry  *fakeRegistry
	buildTool *fakeBuildTool
	environs  *envfile.Processor
	location  string
	cacheRoot string
}

type builderOption func(*Options)

func withOrchestrator(o Orchestrator) builderOption {
	return func(opts *Options) { opts.Orchestrator = o }
}

func withRequirements(requirements ...string) builderOption {
	return func(opts *Options) { opts.Requirements = requirements }
}

func withArtifacts(artifacts map[string]string) builderOption {
	return func(opts *Options) { opts.Artifacts = artifacts }
}

func withCondaEnv(condaEnv string) builderOption {
	return func(opts *Options) { opts.CondaEnv = condaEnv }
}

func withEntrypointClass(entrypointClass string) builderOption {
	return func(opts *Options) { opts.EntrypointClass = entrypointClass }
}

func newTestEnv(t *testing.T, options ...builderOption) *testEnv {
	t.Helper()

	location := t.TempDir()
	cacheRoot := t.TempDir()
	environs, err := envfile.Load(filepath.Join(location, "environment"))
	require.NoError(t, err)

	docker := newFakeDocker("superai-model-s2i-python3711-cpu:1")
	registry := &fakeRegistry{address: "123456789012.dkr.ecr.us-east-1.amazonaws.com"}
	buildTool := &fakeBuildTool{docker: docker}

	opts := Options{
		Orchestrator:    LocalDocker,
		EntrypointClass: "my_model.MyModel",
		Location:        location,
		Name:            "my-model",
		Version:         "2",
		Environs:        environs,
		Settings:        settings.Settings{Environment: "prod", CacheRoot: cacheRoot},
		Docker:          docker,
		Registry:        registry,
		BuildTool:       buildTool,
	}
	for _, option := range options {
		option(&opts)
	}

	builder, err := NewBuilder(opts)
	require.NoError(t, err)
	return &testEnv{
		builder:   builder,
		docker:    docker,
		registry:  registry,
		buildTool: buildTool,
		environs:  environs,
		location:  location,
		cacheRoot: cacheRoot,
	}
}

func (e *testEnv) writeSourceFile(t *testing.T, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.location, name), []byte(contents), 0o644))
}
