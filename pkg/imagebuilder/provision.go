package imagebuilder

import (
	"context"
	"fmt"

	"github.com/mysuperai/superai/pkg/util/console"
)

// RegistryClient resolves the remote registry that hosts base images and
// authenticates the local engine against it.
type RegistryClient interface {
	Address(ctx context.Context) (string, error)
	Login(ctx context.Context, registryAddress string) error
}

// ensureBaseImage makes baseImage usable as a local image. The image is
// looked up locally first; only the specific "image absent" condition falls
// back to downloading, any other lookup failure propagates.
func (b *Builder) ensureBaseImage(ctx context.Context, baseImage string) error {
	exists, err := b.docker.ImageExists(ctx, baseImage)
	if err != nil {
		return fmt.Errorf("failed to check for base image %q: %w", baseImage, err)
	}
	if exists {
		console.Infof("Base image '%s' found locally.", baseImage)
		return nil
	}
	console.Infof("Base image '%s' not found locally, downloading...", baseImage)
	return b.downloadBaseImage(ctx, baseImage)
}

// downloadBaseImage pulls baseImage from the account registry and re-tags it
// to the unqualified name, so downstream stages are registry-agnostic.
func (b *Builder) downloadBaseImage(ctx context.Context, baseImage string) error {
	registryAddress, err := b.registry.Address(ctx)
	if err != nil {
		return err
	}
	qualifiedRef := fmt.Sprintf("%s/%s", registryAddress, baseImage)
	console.Infof("Downloading image from registry '%s'", qualifiedRef)

	if err := b.registry.Login(ctx, registryAddress); err != nil {
		return err
	}
	if err := b.docker.Pull(ctx, qualifiedRef); err != nil {
		return fmt.Errorf("failed to pull base image %q: %w", qualifiedRef, err)
	}
	console.Infof("Re-tagging image to '%s'", baseImage)
	if err := b.docker.Tag(ctx, qualifiedRef, baseImage); err != nil {
		return err
	}
	return nil
}
