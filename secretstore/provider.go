// Package secretstore wraps the Secrets Manager API behind a small provider:
// ensure the container exists (seeded with a fixed placeholder, never the
// real value), push new versions, and read back the current one.
package secretstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/google/uuid"
)

// PlaceholderValue seeds a freshly created container. It is a fixed,
// well-known dummy so the real secret never appears in any declaration or
// apply log; the upload step replaces it out-of-band.
const PlaceholderValue = `{"status":"placeholder","note":"run 'secretsmith upload-key' to store the real key"}`

// SecretsManagerAPI is the slice of the Secrets Manager client the provider
// needs.
type SecretsManagerAPI interface {
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

// Container identifies a secret container on the platform.
type Container struct {
	Name string
	ARN  string
}

// Version is one retrieved secret version.
type Version struct {
	VersionID string
	Value     string
	CreatedAt time.Time
}

// EnsureInput describes the desired container.
type EnsureInput struct {
	Name        string
	Description string
	KMSKeyID    string
	Tags        map[string]string
}

type Provider struct {
	sm    SecretsManagerAPI
	cache *TTLCache[*Version]
}

func NewProvider(sm SecretsManagerAPI, cacheSize int, ttl time.Duration) *Provider {
	return &Provider{sm: sm, cache: NewTTLCache[*Version](cacheSize, ttl)}
}

// Ensure converges the container: if it already exists it is left untouched
// and created is false; otherwise it is created with the placeholder seed
// version, tags, and the optional customer managed key.
func (p *Provider) Ensure(ctx context.Context, in EnsureInput) (*Container, bool, error) {
	out, err := p.sm.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(in.Name),
	})
	if err == nil {
		return &Container{Name: aws.ToString(out.Name), ARN: aws.ToString(out.ARN)}, false, nil
	}
	var nf *types.ResourceNotFoundException
	if !errors.As(err, &nf) {
		return nil, false, fmt.Errorf("describe secret %q: %w", in.Name, err)
	}

	ci := &secretsmanager.CreateSecretInput{
		Name:               aws.String(in.Name),
		Description:        aws.String(in.Description),
		SecretString:       aws.String(PlaceholderValue),
		ClientRequestToken: aws.String(uuid.NewString()),
		Tags:               tagList(in.Tags),
	}
	if in.KMSKeyID != "" {
		ci.KmsKeyId = aws.String(in.KMSKeyID)
	}
	created, err := p.sm.CreateSecret(ctx, ci)
	if err != nil {
		return nil, false, fmt.Errorf("create secret %q: %w", in.Name, err)
	}
	return &Container{Name: aws.ToString(created.Name), ARN: aws.ToString(created.ARN)}, true, nil
}

// PutValue replaces the container's current version with value and returns
// the new version id. Each call mints a fresh client request token, so each
// call produces a distinct version.
func (p *Provider) PutValue(ctx context.Context, name, value string) (string, error) {
	out, err := p.sm.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:           aws.String(name),
		SecretString:       aws.String(value),
		ClientRequestToken: aws.String(uuid.NewString()),
	})
	if err != nil {
		return "", fmt.Errorf("put secret value for %q: %w", name, err)
	}
	p.cache.Clear(name)
	return aws.ToString(out.VersionId), nil
}

// GetCurrent returns the container's current version, memoized in the TTL
// cache to avoid hammering the API on repeated reads.
func (p *Provider) GetCurrent(ctx context.Context, name string) (*Version, error) {
	if v, ok := p.cache.Get(name); ok {
		return v, nil
	}
	out, err := p.sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret value for %q: %w", name, err)
	}
	v := &Version{
		VersionID: aws.ToString(out.VersionId),
		Value:     aws.ToString(out.SecretString),
		CreatedAt: aws.ToTime(out.CreatedDate),
	}
	p.cache.Set(name, v)
	return v, nil
}

// Delete schedules the container for deletion. When force is set the
// platform's recovery window is skipped.
func (p *Provider) Delete(ctx context.Context, name string, force bool) error {
	di := &secretsmanager.DeleteSecretInput{SecretId: aws.String(name)}
	if force {
		di.ForceDeleteWithoutRecovery = aws.Bool(true)
	}
	if _, err := p.sm.DeleteSecret(ctx, di); err != nil {
		return fmt.Errorf("delete secret %q: %w", name, err)
	}
	p.cache.Clear(name)
	return nil
}

func tagList(tags map[string]string) []types.Tag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}
