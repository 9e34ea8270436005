package keymat_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardndungu94/secretsmith/config"
	"github.com/richardndungu94/secretsmith/internal/fakes"
	"github.com/richardndungu94/secretsmith/keymat"
	"github.com/richardndungu94/secretsmith/secretstore"
	"github.com/richardndungu94/secretsmith/state"
)

type rig struct {
	cfg     *config.Config
	sm      *fakes.SecretsManager
	sts     *fakes.STS
	ssm     *fakes.SSM
	store   *state.Store
	secrets *secretstore.Provider
}

func newRig(t *testing.T, mutate func(*config.Config)) *rig {
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

	sm := fakes.NewSecretsManager()
	return &rig{
		cfg:     cfg,
		sm:      sm,
		sts:     &fakes.STS{},
		ssm:     &fakes.SSM{},
		store:   store,
		secrets: secretstore.NewProvider(sm, 1024, time.Minute),
	}
}

// provisioned seeds the container and the recorded outputs the way a prior
// apply would have.
func (r *rig) provisioned(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, _, err := r.secrets.Ensure(ctx, secretstore.EnsureInput{
		Name: "atlas-dev-deploy-key-9f3c2a1b",
		Tags: r.cfg.Tags,
	})
	require.NoError(t, err)
	require.NoError(t, r.store.SaveOutputs(ctx, &state.Outputs{
		Project:     "atlas",
		Environment: "dev",
		SecretName:  container.Name,
		SecretARN:   container.ARN,
	}))
	return container.Name
}

func (r *rig) materializer(answers string, withPublisher bool) *keymat.Materializer {
	var pub *keymat.Publisher
	if withPublisher {
		pub = keymat.NewPublisher(r.ssm)
	}
	return keymat.NewMaterializer(
		r.cfg,
		r.store,
		r.secrets,
		keymat.NewPreflight(r.sts),
		pub,
		&keymat.Prompter{In: strings.NewReader(answers), Out: &strings.Builder{}},
	)
}

func TestRun_WithoutApplyMakesNoPlatformCall(t *testing.T) {
	t.Parallel()
	r := newRig(t, nil)

	_, err := r.materializer("", false).Run(context.Background())
	require.ErrorIs(t, err, state.ErrNotProvisioned)
	assert.Zero(t, r.sts.Calls, "failure happens before the session check")
	assert.Zero(t, r.sm.TotalCalls())
}

func TestRun_UploadsFreshKey(t *testing.T) {
	t.Parallel()
	r := newRig(t, nil)
	name := r.provisioned(t)

	res, err := r.materializer("", false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, name, res.SecretName)
	assert.NotEmpty(t, res.VersionID)
	assert.True(t, strings.HasPrefix(res.Fingerprint, "SHA256:"))
	assert.False(t, res.Published)

	priv, err := os.ReadFile(res.PrivateKeyPath)
	require.NoError(t, err)
	pub, err := os.ReadFile(res.PublicKeyPath)
	require.NoError(t, err)

	payload, err := keymat.ParsePayload(r.sm.Secrets[name].Current().Value)
	require.NoError(t, err)
	require.NoError(t, payload.Validate())
	assert.Equal(t, string(priv), payload.PrivateKey, "stored private key matches the one on disk")
	assert.Equal(t, string(pub), payload.PublicKey)
	assert.Equal(t, r.cfg.Secret.Description, payload.Description)

	created, err := time.Parse(time.RFC3339, payload.CreatedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), created, time.Minute)

	uploads, err := r.store.Uploads(context.Background(), "atlas", "dev")
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, res.VersionID, uploads[0].VersionID)
	assert.Equal(t, res.Fingerprint, uploads[0].Fingerprint)
}

func TestRun_DeclinedOverwriteAborts(t *testing.T) {
	t.Parallel()
	r := newRig(t, nil)
	r.provisioned(t)
	ctx := context.Background()

	_, err := r.materializer("y\n", false).Run(ctx)
	require.NoError(t, err, "first run finds no key on disk")
	before, err := os.ReadFile(r.cfg.PrivateKeyPath())
	require.NoError(t, err)
	puts := r.sm.Calls["PutSecretValue"]

	_, err = r.materializer("n\n", false).Run(ctx)
	require.ErrorIs(t, err, keymat.ErrAborted)

	after, err := os.ReadFile(r.cfg.PrivateKeyPath())
	require.NoError(t, err)
	assert.Equal(t, before, after, "declining leaves the key on disk untouched")
	assert.Equal(t, puts, r.sm.Calls["PutSecretValue"], "nothing is uploaded")
}

func TestRun_ConfirmedOverwriteMintsNewVersion(t *testing.T) {
	t.Parallel()
	r := newRig(t, nil)
	name := r.provisioned(t)
	ctx := context.Background()

	first, err := r.materializer("", false).Run(ctx)
	require.NoError(t, err)
	second, err := r.materializer("yes\n", false).Run(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.VersionID, second.VersionID)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
	assert.Len(t, r.sm.Secrets[name].Versions, 3, "placeholder plus two uploads")

	uploads, err := r.store.Uploads(ctx, "atlas", "dev")
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	got := []string{uploads[0].VersionID, uploads[1].VersionID}
	assert.ElementsMatch(t, []string{first.VersionID, second.VersionID}, got)
}

func TestRun_PublishesPublicKeyWhenConfigured(t *testing.T) {
	t.Parallel()
	r := newRig(t, func(c *config.Config) {
		c.Secret.PublicKeyParameter = "/atlas/dev/deploy-key.pub"
	})
	r.provisioned(t)

	res, err := r.materializer("", true).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Published)
	assert.Equal(t, "/atlas/dev/deploy-key.pub", r.ssm.LastName)
	pub, err := os.ReadFile(res.PublicKeyPath)
	require.NoError(t, err)
	assert.Equal(t, string(pub), r.ssm.Values["/atlas/dev/deploy-key.pub"])
}

func TestRun_FailedPreflightStopsBeforeAnyWrite(t *testing.T) {
	t.Parallel()
	r := newRig(t, nil)
	r.provisioned(t)
	r.sts.Err = assert.AnError

	_, err := r.materializer("", false).Run(context.Background())
	require.ErrorContains(t, err, "not authenticated")
	assert.False(t, keymat.Exists(r.cfg.PrivateKeyPath()), "no key is written")
	assert.Zero(t, r.sm.Calls["PutSecretValue"])
}
