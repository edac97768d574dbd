// Package ecr resolves the account-local ECR registry and logs the Docker
// engine in to it, so base images can be provisioned from the platform's
// private registry.
package ecr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/mysuperai/superai/pkg/docker"
	"github.com/mysuperai/superai/pkg/util/console"
)

type Registry struct {
	cfg    *aws.Config
	region string
}

func New() *Registry {
	return &Registry{}
}

func (r *Registry) config(ctx context.Context) (aws.Config, error) {
	if r.cfg != nil {
		return *r.cfg, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if cfg.Region == "" {
		return aws.Config{}, fmt.Errorf("no AWS region configured; set AWS_REGION or configure a profile")
	}
	r.cfg = &cfg
	r.region = cfg.Region
	return cfg, nil
}

// Address resolves the registry address for the current AWS account and
// region, in the form <account>.dkr.ecr.<region>.amazonaws.com.
func (r *Registry) Address(ctx context.Context) (string, error) {
	cfg, err := r.config(ctx)
	if err != nil {
		return "", err
	}

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to resolve AWS caller identity: %w", err)
	}
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", aws.ToString(identity.Account), r.region), nil
}

// Login fetches an ECR authorization token and stores it in the Docker
// credential configuration so the engine can pull from the registry.
func (r *Registry) Login(ctx context.Context, registryAddress string) error {
	cfg, err := r.config(ctx)
	if err != nil {
		return err
	}

	output, err := awsecr.NewFromConfig(cfg).GetAuthorizationToken(ctx, &awsecr.GetAuthorizationTokenInput{})
	if err != nil {
		return fmt.Errorf("failed to get ECR authorization token: %w", err)
	}
	if len(output.AuthorizationData) == 0 {
		return fmt.Errorf("ECR returned no authorization data for %s", registryAddress)
	}

	decoded, err := base64.StdEncoding.DecodeString(aws.ToString(output.AuthorizationData[0].AuthorizationToken))
	if err != nil {
		return fmt.Errorf("failed to decode ECR authorization token: %w", err)
	}
	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return fmt.Errorf("malformed ECR authorization token")
	}

	console.Debugf("logging in to registry %s", registryAddress)
	if err := docker.SaveLoginToken(registryAddress, username, password); err != nil {
		return fmt.Errorf("failed to store registry credentials for %s: %w", registryAddress, err)
	}
	return nil
}
