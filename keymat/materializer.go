package keymat

import (
	"context"
	"errors"
	"time"

	"github.com/richardndungu94/secretsmith/config"
	"github.com/richardndungu94/secretsmith/secretstore"
	"github.com/richardndungu94/secretsmith/state"
)

// ErrAborted is returned when the operator declines the overwrite prompt.
// Nothing has been generated, written, or uploaded when it is returned.
var ErrAborted = errors.New("aborted by operator")

// Materializer runs the one-shot upload procedure: resolve the container from
// recorded outputs, verify the session, generate the key pair, assemble the
// payload, push it as a new version, and journal the result. Every failure is
// fatal; no step is retried.
type Materializer struct {
	cfg       *config.Config
	store     *state.Store
	secrets   *secretstore.Provider
	preflight *Preflight
	publisher *Publisher // nil disables public key publication
	prompt    *Prompter
	now       func() time.Time
}

// Result reports a completed run.
type Result struct {
	SecretName     string
	VersionID      string
	Fingerprint    string
	PrivateKeyPath string
	PublicKeyPath  string
	Published      bool
}

func NewMaterializer(
	cfg *config.Config,
	store *state.Store,
	secrets *secretstore.Provider,
	preflight *Preflight,
	publisher *Publisher,
	prompt *Prompter,
) *Materializer {
	return &Materializer{
		cfg:       cfg,
		store:     store,
		secrets:   secrets,
		preflight: preflight,
		publisher: publisher,
		prompt:    prompt,
		now:       time.Now,
	}
}

// Run executes the linear procedure. The container name is resolved from
// local state before anything touches the network, so a missing apply fails
// without a single platform call.
func (m *Materializer) Run(ctx context.Context) (*Result, error) {
	logger := config.LoggerFrom(ctx).Sugar()

	outputs, err := m.store.LoadOutputs(ctx, m.cfg.Project, m.cfg.Environment)
	if err != nil {
		return nil, err
	}

	account, principal, err := m.preflight.Check(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debugw("session verified", "account", account, "principal", principal)

	privPath := m.cfg.PrivateKeyPath()
	pubPath := m.cfg.PublicKeyPath()
	if Exists(privPath) {
		ok, err := m.prompt.Confirm("A key already exists at " + privPath + ". Overwrite it")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAborted
		}
	}

	kp, err := Generate(m.cfg.Project + "-" + m.cfg.Environment + " deploy key")
	if err != nil {
		return nil, err
	}
	if err := kp.WriteFiles(privPath, pubPath); err != nil {
		return nil, err
	}

	payload, err := AssemblePayload(kp, m.cfg.Secret.Description, m.now())
	if err != nil {
		return nil, err
	}

	versionID, err := m.secrets.PutValue(ctx, outputs.SecretName, payload)
	if err != nil {
		return nil, err
	}

	if err := m.store.RecordUpload(ctx, &state.Upload{
		Project:     m.cfg.Project,
		Environment: m.cfg.Environment,
		SecretName:  outputs.SecretName,
		VersionID:   versionID,
		Fingerprint: kp.Fingerprint,
		Description: m.cfg.Secret.Description,
	}); err != nil {
		return nil, err
	}

	res := &Result{
		SecretName:     outputs.SecretName,
		VersionID:      versionID,
		Fingerprint:    kp.Fingerprint,
		PrivateKeyPath: privPath,
		PublicKeyPath:  pubPath,
	}

	if m.publisher != nil && m.cfg.Secret.PublicKeyParameter != "" {
		if _, err := m.publisher.PublishPublicKey(ctx, m.cfg.Secret.PublicKeyParameter, string(kp.PublicLine)); err != nil {
			return nil, err
		}
		res.Published = true
	}

	logger.Infow("uploaded new secret version",
		"secret_name", outputs.SecretName,
		"version_id", versionID,
		"fingerprint", kp.Fingerprint,
	)
	return res, nil
}
