package secretstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardndungu94/secretsmith/internal/fakes"
	"github.com/richardndungu94/secretsmith/secretstore"
)

func TestEnsure_CreatesWithPlaceholderSeed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sm := fakes.NewSecretsManager()
	p := secretstore.NewProvider(sm, 1024, time.Minute)

	c, created, err := p.Ensure(ctx, secretstore.EnsureInput{
		Name:        "atlas-dev-deploy-key-1a2b3c4d",
		Description: "SSH deploy key for atlas-dev",
		KMSKeyID:    "arn:aws:kms:eu-north-1:111122223333:key/abcd",
		Tags:        map[string]string{"Project": "atlas", "Environment": "dev"},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "atlas-dev-deploy-key-1a2b3c4d", c.Name)
	assert.NotEmpty(t, c.ARN)

	stored := sm.Secrets[c.Name]
	require.NotNil(t, stored)
	assert.Equal(t, secretstore.PlaceholderValue, stored.Current().Value, "seed version is the fixed placeholder, never a real key")
	assert.Equal(t, "arn:aws:kms:eu-north-1:111122223333:key/abcd", stored.KMSKeyID)
	assert.Equal(t, "atlas", stored.Tags["Project"])
}

func TestEnsure_SecondCallUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sm := fakes.NewSecretsManager()
	p := secretstore.NewProvider(sm, 1024, time.Minute)
	in := secretstore.EnsureInput{Name: "atlas-dev-deploy-key-1a2b3c4d"}

	_, created, err := p.Ensure(ctx, in)
	require.NoError(t, err)
	require.True(t, created)

	c, created, err := p.Ensure(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NotEmpty(t, c.ARN)
	assert.Equal(t, 1, sm.Calls["CreateSecret"], "no second create")
}

func TestPutValue_DistinctVersions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sm := fakes.NewSecretsManager()
	p := secretstore.NewProvider(sm, 1024, time.Minute)
	_, _, err := p.Ensure(ctx, secretstore.EnsureInput{Name: "k"})
	require.NoError(t, err)

	v1, err := p.PutValue(ctx, "k", `{"a":"1"}`)
	require.NoError(t, err)
	v2, err := p.PutValue(ctx, "k", `{"a":"2"}`)
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2, "each upload mints a distinct version")
	assert.Len(t, sm.Secrets["k"].Versions, 3, "placeholder plus two uploads")
}

func TestGetCurrent_Memoized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sm := fakes.NewSecretsManager()
	p := secretstore.NewProvider(sm, 1024, time.Minute)
	_, _, err := p.Ensure(ctx, secretstore.EnsureInput{Name: "k"})
	require.NoError(t, err)

	got, err := p.GetCurrent(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, secretstore.PlaceholderValue, got.Value)

	_, err = p.GetCurrent(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, sm.Calls["GetSecretValue"], "second read served from cache")
}

func TestPutValue_InvalidatesCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sm := fakes.NewSecretsManager()
	p := secretstore.NewProvider(sm, 1024, time.Minute)
	_, _, err := p.Ensure(ctx, secretstore.EnsureInput{Name: "k"})
	require.NoError(t, err)

	_, err = p.GetCurrent(ctx, "k")
	require.NoError(t, err)

	_, err = p.PutValue(ctx, "k", `{"fresh":"yes"}`)
	require.NoError(t, err)

	got, err := p.GetCurrent(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"fresh":"yes"}`, got.Value, "upload drops the stale cache entry")
}

func TestDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sm := fakes.NewSecretsManager()
	p := secretstore.NewProvider(sm, 1024, time.Minute)
	_, _, err := p.Ensure(ctx, secretstore.EnsureInput{Name: "k"})
	require.NoError(t, err)

	require.NoError(t, p.Delete(ctx, "k", true))
	assert.Empty(t, sm.Secrets)
}
