// Package provision converges the declared end state on the platform: the
// secret container with its placeholder seed version, the EC2-assumable
// reader role, the instance profile binding, and the permission grant scoped
// to exactly the container's ARN.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/richardndungu94/secretsmith/config"
	"github.com/richardndungu94/secretsmith/identity"
	"github.com/richardndungu94/secretsmith/secretstore"
	"github.com/richardndungu94/secretsmith/state"
)

// Provisioner drives one apply or destroy. It performs no retries and no
// compensation: the first error aborts and is returned to the caller.
type Provisioner struct {
	cfg      *config.Config
	secrets  *secretstore.Provider
	identity *identity.Provider
	keys     *KeyValidator
	store    *state.Store
}

// New constructs a Provisioner. keys may be nil when the declaration names no
// customer managed key.
func New(
	cfg *config.Config,
	secrets *secretstore.Provider,
	id *identity.Provider,
	keys *KeyValidator,
	store *state.Store,
) *Provisioner {
	return &Provisioner{
		cfg:      cfg,
		secrets:  secrets,
		identity: id,
		keys:     keys,
		store:    store,
	}
}

// Apply converges actual state to the declaration and records the outputs.
// It is idempotent: reapplying with an unchanged declaration reports zero
// created resources.
func (p *Provisioner) Apply(ctx context.Context) (*Plan, error) {
	logger := config.LoggerFrom(ctx).Sugar()
	plan := &Plan{}

	prior, err := p.store.LoadOutputs(ctx, p.cfg.Project, p.cfg.Environment)
	if err != nil && !errors.Is(err, state.ErrNotProvisioned) {
		return nil, err
	}

	// The minted suffix is sticky: once recorded, every later apply
	// converges on the same container name.
	secretName := p.cfg.Secret.NamePrefix + "-" + mintSuffix()
	priorPolicyARN := ""
	if prior != nil {
		secretName = prior.SecretName
		priorPolicyARN = prior.PolicyARN
	}

	kmsARN := ""
	if p.cfg.Secret.KMSKeyID != "" {
		if p.keys == nil {
			return nil, fmt.Errorf("declaration names KMS key %q but no key validator is configured", p.cfg.Secret.KMSKeyID)
		}
		kmsARN, err = p.keys.Validate(ctx, p.cfg.Secret.KMSKeyID)
		if err != nil {
			return nil, err
		}
		logger.Debugw("validated customer managed key", "kms_key_arn", kmsARN)
	}

	container, created, err := p.secrets.Ensure(ctx, secretstore.EnsureInput{
		Name:        secretName,
		Description: p.cfg.Secret.Description,
		KMSKeyID:    p.cfg.Secret.KMSKeyID,
		Tags:        p.cfg.Tags,
	})
	if err != nil {
		return nil, err
	}
	plan.add("secret container", container.Name, created)

	roleARN, created, err := p.identity.EnsureRole(ctx, p.cfg.Identity.RoleName, p.cfg.Tags)
	if err != nil {
		return nil, err
	}
	plan.add("identity role", p.cfg.Identity.RoleName, created)

	profileARN, created, err := p.identity.EnsureInstanceProfile(ctx, p.cfg.Identity.InstanceProfileName, p.cfg.Identity.RoleName)
	if err != nil {
		return nil, err
	}
	plan.add("instance profile", p.cfg.Identity.InstanceProfileName, created)

	doc, err := identity.ReadSecretDocument(container.ARN)
	if err != nil {
		return nil, err
	}
	policyARN, created, err := p.identity.EnsurePolicy(ctx, p.cfg.Identity.PolicyName, doc, priorPolicyARN, p.cfg.Tags)
	if err != nil {
		return nil, err
	}
	plan.add("permission grant", p.cfg.Identity.PolicyName, created)

	created, err = p.identity.EnsureAttachment(ctx, p.cfg.Identity.RoleName, policyARN)
	if err != nil {
		return nil, err
	}
	plan.add("grant attachment", p.cfg.Identity.PolicyName+" -> "+p.cfg.Identity.RoleName, created)

	outputs := &state.Outputs{
		Project:            p.cfg.Project,
		Environment:        p.cfg.Environment,
		SecretName:         container.Name,
		SecretARN:          container.ARN,
		RoleName:           p.cfg.Identity.RoleName,
		RoleARN:            roleARN,
		PolicyARN:          policyARN,
		InstanceProfileARN: profileARN,
		KMSKeyID:           kmsARN,
		Tags:               p.cfg.Tags,
	}
	if err := p.store.SaveOutputs(ctx, outputs); err != nil {
		return nil, err
	}

	logger.Infow("apply complete",
		"secret_name", container.Name,
		"secret_arn", container.ARN,
		"role_arn", roleARN,
		"policy_arn", policyARN,
		"created", plan.Created(),
	)
	return plan, nil
}

// Destroy tears down everything the recorded outputs name, then clears the
// record. When force is set the container skips the recovery window.
func (p *Provisioner) Destroy(ctx context.Context, force bool) error {
	logger := config.LoggerFrom(ctx).Sugar()

	outputs, err := p.store.LoadOutputs(ctx, p.cfg.Project, p.cfg.Environment)
	if err != nil {
		return err
	}

	if err := p.identity.Teardown(ctx, outputs.RoleName, p.cfg.Identity.InstanceProfileName, outputs.PolicyARN); err != nil {
		return err
	}
	if err := p.secrets.Delete(ctx, outputs.SecretName, force); err != nil {
		return err
	}
	if err := p.store.ClearOutputs(ctx, p.cfg.Project, p.cfg.Environment); err != nil {
		return err
	}

	logger.Infow("destroy complete",
		"secret_name", outputs.SecretName,
		"forced", force,
	)
	return nil
}

// mintSuffix returns the short random suffix appended to the container name
// to avoid collisions in a shared account.
func mintSuffix() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
