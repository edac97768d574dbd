package imagebuilder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/mysuperai/superai/pkg/util/console"
)

// BuildTool is the external source-to-image builder contract. It is invoked
// once per image stage.
type BuildTool interface {
	// Check verifies the build tool is usable before any stage runs.
	Check() error
	// Build runs one stage, layering the model source on top of SourceImage
	// and tagging the result as TargetImage.
	Build(ctx context.Context, opts BuildToolOptions) error
}

type BuildToolOptions struct {
	// EnvFile is the flat KEY=value file passed to the build container.
	EnvFile string
	// WorkDir is the model source location; the build consumes it as its
	// context directory.
	WorkDir     string
	SourceImage string
	TargetImage string
}

// S2I invokes the s2i binary as a subprocess.
type S2I struct{}

func NewS2I() *S2I {
	return &S2I{}
}

// Check fails with install instructions when s2i is not on PATH. This is a
// user-actionable error and is never retried.
func (s *S2I) Check() error {
	if _, err := exec.LookPath("s2i"); err != nil {
		return fmt.Errorf("s2i is not installed. Please install the package using " +
			"'brew install source-to-image' or read installation instructions at " +
			"https://github.com/openshift/source-to-image#installation")
	}
	return nil
}

// Build runs `s2i build` with the environment file, the three credential and
// config directories mounted read-write, and incremental build semantics. The
// subprocess runs with its working directory set to the model location; the
// parent process working directory is never touched, so it cannot leak a
// directory change on any exit path.
func (s *S2I) Build(ctx context.Context, opts BuildToolOptions) error {
	home, err := homedir.Dir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}

	args := []string{
		"build",
		"-E", opts.EnvFile,
		"-v", fmt.Sprintf("%s:/root/.aws", filepath.Join(home, ".aws")),
		"-v", fmt.Sprintf("%s:/root/.superai", filepath.Join(home, ".superai")),
		"-v", fmt.Sprintf("%s:/root/.canotic", filepath.Join(home, ".canotic")),
		"--incremental=True",
		".",
		opts.SourceImage,
		opts.TargetImage,
	}

	cmd := exec.CommandContext(ctx, "s2i", args...)
	cmd.Dir = opts.WorkDir
	cmd.Env = os.Environ()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	console.Debug("$ " + strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("s2i build of %s failed: %w", opts.TargetImage, err)
	}
	return nil
}
