package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/docker/cli/cli/config"
	"github.com/docker/docker/api/types/registry"

	"github.com/mysuperai/superai/pkg/util/console"
)

// loadRegistryAuth returns the stored credentials for a registry host, from
// the configured credential store if one is set, otherwise from
// ~/.docker/config.json. A host without stored credentials yields a zero
// AuthConfig.
func loadRegistryAuth(ctx context.Context, registryHost string) (registry.AuthConfig, error) {
	console.Debugf("=== loadRegistryAuth %s", registryHost)
	conf := config.LoadDefaultConfigFile(os.Stderr)

	if conf.CredentialsStore != "" {
		creds, err := loadAuthFromCredentialsStore(ctx, conf.CredentialsStore, registryHost)
		if err != nil {
			return registry.AuthConfig{}, err
		}
		return registry.AuthConfig{
			Username:      creds.Username,
			Password:      creds.Secret,
			ServerAddress: registryHost,
		}, nil
	}

	if auth, ok := conf.AuthConfigs[registryHost]; ok {
		return registry.AuthConfig{
			Username:      auth.Username,
			Password:      auth.Password,
			Auth:          auth.Auth,
			Email:         auth.Email,
			ServerAddress: registryHost,
			IdentityToken: auth.IdentityToken,
			RegistryToken: auth.RegistryToken,
		}, nil
	}

	console.Debugf("=== loadRegistryAuth %s: no stored credentials", registryHost)
	return registry.AuthConfig{}, nil
}

func loadAuthFromCredentialsStore(ctx context.Context, credsStore string, registryHost string) (*credentialHelperInput, error) {
	var out strings.Builder
	binary := dockerCredentialBinary(credsStore)
	cmd := exec.CommandContext(ctx, binary, "get")
	cmd.Env = os.Environ()
	cmd.Stdout = &out
	cmd.Stderr = &out
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("Failed to connect stdin to %s: %w", binary, err)
	}
	defer stdin.Close()
	console.Debug("$ " + strings.Join(cmd.Args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("Failed to start %s: %w", binary, err)
	}
	if _, err := io.WriteString(stdin, registryHost); err != nil {
		return nil, fmt.Errorf("Failed to write to %s: %w", binary, err)
	}
	if err := stdin.Close(); err != nil {
		return nil, fmt.Errorf("Failed to close stdin to %s: %w", binary, err)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("%s failed: %w", binary, err)
	}

	var creds credentialHelperInput
	if err := json.Unmarshal([]byte(out.String()), &creds); err != nil {
		return nil, fmt.Errorf("Failed to parse %s output: %w", binary, err)
	}
	return &creds, nil
}
