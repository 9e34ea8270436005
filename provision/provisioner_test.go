package provision_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardndungu94/secretsmith/config"
	"github.com/richardndungu94/secretsmith/identity"
	"github.com/richardndungu94/secretsmith/internal/fakes"
	"github.com/richardndungu94/secretsmith/provision"
	"github.com/richardndungu94/secretsmith/secretstore"
	"github.com/richardndungu94/secretsmith/state"
)

type world struct {
	cfg   *config.Config
	sm    *fakes.SecretsManager
	iam   *fakes.IAM
	kms   *fakes.KMS
	store *state.Store
	prov  *provision.Provisioner
}

func newWorld(t *testing.T, mutate func(*config.Config)) *world {
	t.Helper()

	cfg := &config.Config{
		Project:     "atlas",
		Environment: "dev",
		Key:         config.KeyConfig{Dir: t.TempDir()},
	}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Prepare())

	store, err := state.NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)

	w := &world{
		cfg:   cfg,
		sm:    fakes.NewSecretsManager(),
		iam:   fakes.NewIAM(),
		kms:   &fakes.KMS{Keys: map[string]string{}},
		store: store,
	}
	w.prov = provision.New(
		cfg,
		secretstore.NewProvider(w.sm, 1024, time.Minute),
		identity.NewProvider(w.iam),
		provision.NewKeyValidator(w.kms),
		store,
	)
	return w
}

func TestApply_CreatesEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := newWorld(t, nil)

	plan, err := w.prov.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, plan.Created(), "container, role, profile, grant, attachment")

	outputs, err := w.store.LoadOutputs(ctx, "atlas", "dev")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(outputs.SecretName, "atlas-dev-deploy-key-"))
	assert.Greater(t, len(outputs.SecretName), len("atlas-dev-deploy-key-"), "name carries a minted suffix")
	assert.NotEmpty(t, outputs.SecretARN)
	assert.NotEmpty(t, outputs.RoleARN)
	assert.NotEmpty(t, outputs.PolicyARN)
	assert.NotEmpty(t, outputs.InstanceProfileARN)

	sec := w.sm.Secrets[outputs.SecretName]
	require.NotNil(t, sec)
	assert.Equal(t, secretstore.PlaceholderValue, sec.Current().Value)
	assert.Equal(t, "atlas", sec.Tags["Project"])
	assert.Equal(t, "dev", sec.Tags["Environment"])

	var policy *fakes.Policy
	for _, p := range w.iam.Policies {
		policy = p
	}
	require.NotNil(t, policy)
	assert.Contains(t, policy.Document, sec.ARN, "grant names the exact container ARN")
	assert.NotContains(t, policy.Document, `"*"`, "no wildcard resource")
}

func TestApply_SecondRunIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := newWorld(t, nil)

	_, err := w.prov.Apply(ctx)
	require.NoError(t, err)
	first, err := w.store.LoadOutputs(ctx, "atlas", "dev")
	require.NoError(t, err)

	plan, err := w.prov.Apply(ctx)
	require.NoError(t, err)
	assert.Zero(t, plan.Created(), "reapply with unchanged declaration changes nothing")

	second, err := w.store.LoadOutputs(ctx, "atlas", "dev")
	require.NoError(t, err)
	assert.Equal(t, first.SecretName, second.SecretName, "minted suffix is sticky")
	assert.Equal(t, 1, w.sm.Calls["CreateSecret"])
	assert.Equal(t, 1, w.iam.Calls["CreateRole"])
	assert.Equal(t, 1, w.iam.Calls["CreatePolicy"])
}

func TestApply_ValidatesCustomerManagedKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	keyARN := "arn:aws:kms:eu-north-1:111122223333:key/abcd"
	w := newWorld(t, func(c *config.Config) {
		c.Secret.KMSKeyID = "alias/atlas"
	})
	w.kms.Keys["alias/atlas"] = keyARN

	_, err := w.prov.Apply(ctx)
	require.NoError(t, err)

	outputs, err := w.store.LoadOutputs(ctx, "atlas", "dev")
	require.NoError(t, err)
	assert.Equal(t, keyARN, outputs.KMSKeyID)
	assert.Equal(t, 1, w.kms.Calls)
}

func TestApply_RejectsDisabledKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	w := newWorld(t, func(c *config.Config) {
		c.Secret.KMSKeyID = "alias/atlas"
	})
	w.kms.Keys["alias/atlas"] = "arn:aws:kms:eu-north-1:1:key/abcd"
	w.kms.Disabled = map[string]bool{"alias/atlas": true}

	_, err := w.prov.Apply(ctx)
	assert.ErrorContains(t, err, "not enabled")
	assert.Empty(t, w.sm.Secrets, "no resource is created after a failed validation")
}

func TestDestroy_TearsDownAndClearsOutputs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := newWorld(t, nil)

	_, err := w.prov.Apply(ctx)
	require.NoError(t, err)

	require.NoError(t, w.prov.Destroy(ctx, true))
	assert.Empty(t, w.sm.Secrets)
	assert.Empty(t, w.iam.Roles)
	assert.Empty(t, w.iam.Policies)
	assert.Empty(t, w.iam.Profiles)

	_, err = w.store.LoadOutputs(ctx, "atlas", "dev")
	require.ErrorIs(t, err, state.ErrNotProvisioned)
}

func TestDestroy_WithoutApplyFails(t *testing.T) {
	t.Parallel()
	w := newWorld(t, nil)

	err := w.prov.Destroy(context.Background(), false)
	require.ErrorIs(t, err, state.ErrNotProvisioned)
}
