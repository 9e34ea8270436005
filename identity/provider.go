// Package identity wraps the IAM API behind a provider that converges the
// reader role, its instance profile binding, and the scoped permission grant.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// IAMAPI is the slice of the IAM client the provider needs.
type IAMAPI interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	DeleteRole(ctx context.Context, params *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error)
	GetInstanceProfile(ctx context.Context, params *iam.GetInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.GetInstanceProfileOutput, error)
	CreateInstanceProfile(ctx context.Context, params *iam.CreateInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.CreateInstanceProfileOutput, error)
	AddRoleToInstanceProfile(ctx context.Context, params *iam.AddRoleToInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.AddRoleToInstanceProfileOutput, error)
	RemoveRoleFromInstanceProfile(ctx context.Context, params *iam.RemoveRoleFromInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.RemoveRoleFromInstanceProfileOutput, error)
	DeleteInstanceProfile(ctx context.Context, params *iam.DeleteInstanceProfileInput, optFns ...func(*iam.Options)) (*iam.DeleteInstanceProfileOutput, error)
	GetPolicy(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error)
	CreatePolicy(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error)
	DeletePolicy(ctx context.Context, params *iam.DeletePolicyInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyOutput, error)
	ListAttachedRolePolicies(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error)
	AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
	DetachRolePolicy(ctx context.Context, params *iam.DetachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error)
}

type Provider struct {
	iam IAMAPI
}

func NewProvider(api IAMAPI) *Provider {
	return &Provider{iam: api}
}

// EnsureRole converges the reader role: reused when present, otherwise
// created with the EC2-only trust policy and the given tags.
func (p *Provider) EnsureRole(ctx context.Context, name string, tags map[string]string) (arn string, created bool, err error) {
	got, err := p.iam.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
	if err == nil {
		return aws.ToString(got.Role.Arn), false, nil
	}
	if !isNoSuchEntity(err) {
		return "", false, fmt.Errorf("get role %q: %w", name, err)
	}

	trust, err := AssumeRoleDocument()
	if err != nil {
		return "", false, err
	}
	out, err := p.iam.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(name),
		AssumeRolePolicyDocument: aws.String(trust),
		Description:              aws.String("Reads the deploy key secret container"),
		Tags:                     tagList(tags),
	})
	if err != nil {
		return "", false, fmt.Errorf("create role %q: %w", name, err)
	}
	return aws.ToString(out.Role.Arn), true, nil
}

// EnsureInstanceProfile converges the instance profile and its role binding.
func (p *Provider) EnsureInstanceProfile(ctx context.Context, name, roleName string) (arn string, created bool, err error) {
	got, err := p.iam.GetInstanceProfile(ctx, &iam.GetInstanceProfileInput{
		InstanceProfileName: aws.String(name),
	})
	switch {
	case err == nil:
		if !profileHasRole(got.InstanceProfile, roleName) {
			if err := p.addRole(ctx, name, roleName); err != nil {
				return "", false, err
			}
		}
		return aws.ToString(got.InstanceProfile.Arn), false, nil
	case !isNoSuchEntity(err):
		return "", false, fmt.Errorf("get instance profile %q: %w", name, err)
	}

	out, err := p.iam.CreateInstanceProfile(ctx, &iam.CreateInstanceProfileInput{
		InstanceProfileName: aws.String(name),
	})
	if err != nil {
		return "", false, fmt.Errorf("create instance profile %q: %w", name, err)
	}
	if err := p.addRole(ctx, name, roleName); err != nil {
		return "", false, err
	}
	return aws.ToString(out.InstanceProfile.Arn), true, nil
}

// EnsurePolicy converges the permission grant. priorARN, when non-empty, is
// the ARN recorded by an earlier apply; if that policy still exists it is
// reused, otherwise a fresh one is created from the document.
func (p *Provider) EnsurePolicy(ctx context.Context, name, document, priorARN string, tags map[string]string) (arn string, created bool, err error) {
	if priorARN != "" {
		got, err := p.iam.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: aws.String(priorARN)})
		if err == nil {
			return aws.ToString(got.Policy.Arn), false, nil
		}
		if !isNoSuchEntity(err) {
			return "", false, fmt.Errorf("get policy %q: %w", priorARN, err)
		}
	}

	out, err := p.iam.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(name),
		PolicyDocument: aws.String(document),
		Description:    aws.String("Read-only access to the deploy key secret container"),
		Tags:           tagList(tags),
	})
	if err != nil {
		return "", false, fmt.Errorf("create policy %q: %w", name, err)
	}
	return aws.ToString(out.Policy.Arn), true, nil
}

// EnsureAttachment attaches the policy to the role unless already attached.
func (p *Provider) EnsureAttachment(ctx context.Context, roleName, policyARN string) (created bool, err error) {
	ls, err := p.iam.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{
		RoleName: aws.String(roleName),
	})
	if err != nil {
		return false, fmt.Errorf("list attached policies for role %q: %w", roleName, err)
	}
	for _, ap := range ls.AttachedPolicies {
		if aws.ToString(ap.PolicyArn) == policyARN {
			return false, nil
		}
	}
	_, err = p.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(policyARN),
	})
	if err != nil {
		return false, fmt.Errorf("attach policy %q to role %q: %w", policyARN, roleName, err)
	}
	return true, nil
}

// Teardown removes the attachment, policy, instance profile binding, profile,
// and role, in dependency order. Entities already gone are skipped.
func (p *Provider) Teardown(ctx context.Context, roleName, profileName, policyARN string) error {
	if policyARN != "" {
		_, err := p.iam.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
			RoleName:  aws.String(roleName),
			PolicyArn: aws.String(policyARN),
		})
		if err != nil && !isNoSuchEntity(err) {
			return fmt.Errorf("detach policy %q: %w", policyARN, err)
		}
		_, err = p.iam.DeletePolicy(ctx, &iam.DeletePolicyInput{PolicyArn: aws.String(policyARN)})
		if err != nil && !isNoSuchEntity(err) {
			return fmt.Errorf("delete policy %q: %w", policyARN, err)
		}
	}

	_, err := p.iam.RemoveRoleFromInstanceProfile(ctx, &iam.RemoveRoleFromInstanceProfileInput{
		InstanceProfileName: aws.String(profileName),
		RoleName:            aws.String(roleName),
	})
	if err != nil && !isNoSuchEntity(err) {
		return fmt.Errorf("remove role from instance profile %q: %w", profileName, err)
	}
	_, err = p.iam.DeleteInstanceProfile(ctx, &iam.DeleteInstanceProfileInput{
		InstanceProfileName: aws.String(profileName),
	})
	if err != nil && !isNoSuchEntity(err) {
		return fmt.Errorf("delete instance profile %q: %w", profileName, err)
	}
	_, err = p.iam.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(roleName)})
	if err != nil && !isNoSuchEntity(err) {
		return fmt.Errorf("delete role %q: %w", roleName, err)
	}
	return nil
}

func (p *Provider) addRole(ctx context.Context, profileName, roleName string) error {
	_, err := p.iam.AddRoleToInstanceProfile(ctx, &iam.AddRoleToInstanceProfileInput{
		InstanceProfileName: aws.String(profileName),
		RoleName:            aws.String(roleName),
	})
	if err != nil {
		return fmt.Errorf("add role %q to instance profile %q: %w", roleName, profileName, err)
	}
	return nil
}

func profileHasRole(ip *types.InstanceProfile, roleName string) bool {
	if ip == nil {
		return false
	}
	for _, r := range ip.Roles {
		if aws.ToString(r.RoleName) == roleName {
			return true
		}
	}
	return false
}

func isNoSuchEntity(err error) bool {
	var nse *types.NoSuchEntityException
	return errors.As(err, &nse)
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
