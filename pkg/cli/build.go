package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mysuperai/superai/pkg/config"
	"github.com/mysuperai/superai/pkg/docker"
	"github.com/mysuperai/superai/pkg/ecr"
	"github.com/mysuperai/superai/pkg/envfile"
	"github.com/mysuperai/superai/pkg/imagebuilder"
	"github.com/mysuperai/superai/pkg/settings"
	"github.com/mysuperai/superai/pkg/util/console"
)

var (
	buildOrchestrator string
	buildTraining     bool
	buildCuda         bool
	buildCudaDevel    bool
	buildEIA          bool
	buildSkip         bool
	buildAllLayers    bool
	buildDownloadBase bool
	buildUseInternal  bool
	buildEnvs         []string
)

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a model image from superai.yaml",
		Args:  cobra.NoArgs,
		RunE:  buildCommand,
	}
	addProjectDirFlag(cmd)
	cmd.Flags().StringVarP(&buildOrchestrator, "orchestrator", "o", "", "Deployment target, overrides the orchestrator in superai.yaml")
	cmd.Flags().BoolVar(&buildTraining, "training", false, "Build a training image instead of a prediction image")
	cmd.Flags().BoolVar(&buildCuda, "cuda", false, "Build on the CUDA runtime base image")
	cmd.Flags().BoolVar(&buildCudaDevel, "cuda-devel", false, "Build on the CUDA development base image")
	cmd.Flags().BoolVar(&buildEIA, "eia", false, "Build on the elastic inference base image")
	cmd.Flags().BoolVar(&buildSkip, "skip-build", false, "Compute image name and deployment properties without building")
	cmd.Flags().BoolVar(&buildAllLayers, "build-all-layers", false, "Rebuild every layer, ignoring the dependency cache")
	cmd.Flags().BoolVar(&buildDownloadBase, "download-base", false, "Always download the newest base image (implies --build-all-layers)")
	cmd.Flags().BoolVar(&buildUseInternal, "use-internal", false, "Use the internal development base image")
	cmd.Flags().StringArrayVarP(&buildEnvs, "env", "e", []string{}, "Extra environment variables for the build, in the form KEY=value")
	return cmd
}

func buildCommand(cmd *cobra.Command, args []string) error {
	cfg, projectDir, err := config.GetConfig(projectDirFlag)
	if err != nil {
		return err
	}

	orchestratorName := cfg.Orchestrator
	if buildOrchestrator != "" {
		orchestratorName = buildOrchestrator
	}
	if orchestratorName == "" {
		return fmt.Errorf("no orchestrator specified. Set 'orchestrator' in superai.yaml or pass --orchestrator")
	}
	orchestrator, err := imagebuilder.ParseOrchestrator(orchestratorName)
	if err != nil {
		return err
	}

	userSettings, err := settings.Load()
	if err != nil {
		return err
	}
	environs, err := envfile.Load(filepath.Join(projectDir, "environment"))
	if err != nil {
		return err
	}
	dockerClient, err := docker.NewClient(cmd.Context())
	if err != nil {
		return err
	}

	opts := imagebuilder.Options{
		Orchestrator:    orchestrator,
		EntrypointClass: cfg.EntrypointClass,
		Location:        projectDir,
		Name:            cfg.Name,
		Version:         cfg.Version,
		Environs:        environs,
		Requirements:    cfg.Requirements,
		CondaEnv:        cfg.CondaEnv,
		Artifacts:       cfg.Artifacts,
		Settings:        userSettings,
		Docker:          dockerClient,
		Registry:        ecr.New(),
	}

	var builder *imagebuilder.Builder
	if buildTraining {
		builder, err = imagebuilder.NewTrainerBuilder(opts)
	} else {
		builder, err = imagebuilder.NewBuilder(opts)
	}
	if err != nil {
		return err
	}

	envs, err := parseEnvFlags(buildEnvs)
	if err != nil {
		return err
	}

	imageName, properties, err := builder.Build(cmd.Context(), imagebuilder.BuildOptions{
		CudaDevel:      buildCudaDevel,
		EnableCuda:     buildCuda,
		EnableEIA:      buildEIA,
		SkipBuild:      buildSkip,
		BuildAllLayers: buildAllLayers,
		DownloadBase:   buildDownloadBase,
		UseInternal:    buildUseInternal,
		Envs:           envs,
		LambdaAICache:  cfg.LambdaAICache,
		WorkerCount:    cfg.WorkerCount,
	})
	if err != nil {
		return err
	}

	console.Infof("\nImage built as %s", imageName)
	contents, err := json.MarshalIndent(properties, "", "  ")
	if err != nil {
		return err
	}
	console.Output(string(contents))
	return nil
}

func parseEnvFlags(flags []string) (map[string]string, error) {
	envs := map[string]string{}
	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env value %q, must be KEY=value", flag)
		}
		envs[key] = value
	}
	return envs, nil
}
