package docker

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	dc "github.com/docker/docker/client"
	"github.com/google/go-containerregistry/pkg/name"

	"github.com/mysuperai/superai/pkg/util/console"
)

// Client is the narrow view of the container engine the build pipeline needs.
type Client interface {
	ImageExists(ctx context.Context, ref string) (bool, error)
	Pull(ctx context.Context, ref string) error
	Tag(ctx context.Context, source, target string) error
}

type apiClient struct {
	client *dc.Client
}

// NewClient connects to the local Docker engine and verifies it is reachable.
func NewClient(ctx context.Context) (Client, error) {
	client, err := dc.NewClientWithOpts(
		dc.FromEnv,
		dc.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating docker client: %w", err)
	}
	if _, err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("error pinging docker daemon: %w", err)
	}
	return &apiClient{client: client}, nil
}

func (c *apiClient) inspect(ctx context.Context, ref string) (*image.InspectResponse, error) {
	console.Debugf("=== APIClient.Inspect %s", ref)

	inspect, err := c.client.ImageInspect(ctx, ref)
	if err != nil {
		if dc.IsErrNotFound(err) {
			return nil, &NotFoundError{Ref: ref, Object: "image"}
		}
		return nil, fmt.Errorf("error inspecting image: %w", err)
	}
	return &inspect, nil
}

func (c *apiClient) ImageExists(ctx context.Context, ref string) (bool, error) {
	console.Debugf("=== APIClient.ImageExists %s", ref)

	_, err := c.inspect(ctx, ref)
	if err != nil {
		if IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *apiClient) Pull(ctx context.Context, ref string) error {
	console.Debugf("=== APIClient.Pull %s", ref)

	parsed, err := name.ParseReference(ref)
	if err != nil {
		return fmt.Errorf("invalid image reference %q: %w", ref, err)
	}

	// The daemon does not read the CLI credential store itself; stored
	// credentials must travel with the request.
	authConfig, err := loadRegistryAuth(ctx, parsed.Context().RegistryStr())
	if err != nil {
		return fmt.Errorf("failed to load registry credentials: %w", err)
	}
	encodedAuth, err := registry.EncodeAuthConfig(authConfig)
	if err != nil {
		return fmt.Errorf("failed to encode auth config: %w", err)
	}

	output, err := c.client.ImagePull(ctx, ref, image.PullOptions{RegistryAuth: encodedAuth})
	if err != nil {
		if dc.IsErrNotFound(err) {
			return &NotFoundError{Ref: ref, Object: "image"}
		}
		return fmt.Errorf("failed to pull image %q: %w", ref, err)
	}
	defer output.Close()
	if _, err := io.Copy(os.Stderr, output); err != nil {
		return fmt.Errorf("failed to copy pull output: %w", err)
	}
	return nil
}

func (c *apiClient) Tag(ctx context.Context, source, target string) error {
	console.Debugf("=== APIClient.Tag %s -> %s", source, target)

	if err := c.client.ImageTag(ctx, source, target); err != nil {
		if dc.IsErrNotFound(err) {
			return &NotFoundError{Ref: source, Object: "image"}
		}
		return fmt.Errorf("failed to tag image %q as %q: %w", source, target, err)
	}
	return nil
}
