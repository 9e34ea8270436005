package fakes

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// Role is the in-memory state backing one fake IAM role.
type Role struct {
	ARN      string
	Name     string
	TrustDoc string
	Tags     map[string]string
}

// Policy is the in-memory state backing one fake managed policy.
type Policy struct {
	ARN      string
	Name     string
	Document string
}

// Profile is the in-memory state backing one fake instance profile.
type Profile struct {
	ARN   string
	Name  string
	Roles []string
}

// IAM is a test double for identity.IAMAPI.
type IAM struct {
	mu sync.Mutex

	Roles    map[string]*Role
	Policies map[string]*Policy // by ARN
	Profiles map[string]*Profile
	Attached map[string][]string // role name -> policy ARNs

	Err   error // if set, every call returns this error
	Calls map[string]int
}

func NewIAM() *IAM {
	return &IAM{
		Roles:    make(map[string]*Role),
		Policies: make(map[string]*Policy),
		Profiles: make(map[string]*Profile),
		Attached: make(map[string][]string),
		Calls:    make(map[string]int),
	}
}

func (f *IAM) record(op string) (err error) {
	f.Calls[op]++
	return f.Err
}

func (f *IAM) GetRole(_ context.Context, in *iam.GetRoleInput, _ ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetRole"); err != nil {
		return nil, err
	}
	r, ok := f.Roles[aws.ToString(in.RoleName)]
	if !ok {
		return nil, &types.NoSuchEntityException{}
	}
	return &iam.GetRoleOutput{Role: &types.Role{Arn: aws.String(r.ARN), RoleName: aws.String(r.Name)}}, nil
}

func (f *IAM) CreateRole(_ context.Context, in *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateRole"); err != nil {
		return nil, err
	}
	name := aws.ToString(in.RoleName)
	if _, ok := f.Roles[name]; ok {
		return nil, &types.EntityAlreadyExistsException{}
	}
	r := &Role{
		ARN:      "arn:aws:iam::111122223333:role/" + name,
		Name:     name,
		TrustDoc: aws.ToString(in.AssumeRolePolicyDocument),
		Tags:     make(map[string]string, len(in.Tags)),
	}
	for _, tag := range in.Tags {
		r.Tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	f.Roles[name] = r
	return &iam.CreateRoleOutput{Role: &types.Role{Arn: aws.String(r.ARN), RoleName: aws.String(r.Name)}}, nil
}

func (f *IAM) DeleteRole(_ context.Context, in *iam.DeleteRoleInput, _ ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteRole"); err != nil {
		return nil, err
	}
	name := aws.ToString(in.RoleName)
	if _, ok := f.Roles[name]; !ok {
		return nil, &types.NoSuchEntityException{}
	}
	delete(f.Roles, name)
	return &iam.DeleteRoleOutput{}, nil
}

func (f *IAM) GetInstanceProfile(_ context.Context, in *iam.GetInstanceProfileInput, _ ...func(*iam.Options)) (*iam.GetInstanceProfileOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetInstanceProfile"); err != nil {
		return nil, err
	}
	p, ok := f.Profiles[aws.ToString(in.InstanceProfileName)]
	if !ok {
		return nil, &types.NoSuchEntityException{}
	}
	return &iam.GetInstanceProfileOutput{InstanceProfile: f.profileOut(p)}, nil
}

func (f *IAM) CreateInstanceProfile(_ context.Context, in *iam.CreateInstanceProfileInput, _ ...func(*iam.Options)) (*iam.CreateInstanceProfileOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateInstanceProfile"); err != nil {
		return nil, err
	}
	name := aws.ToString(in.InstanceProfileName)
	if _, ok := f.Profiles[name]; ok {
		return nil, &types.EntityAlreadyExistsException{}
	}
	p := &Profile{ARN: "arn:aws:iam::111122223333:instance-profile/" + name, Name: name}
	f.Profiles[name] = p
	return &iam.CreateInstanceProfileOutput{InstanceProfile: f.profileOut(p)}, nil
}

func (f *IAM) AddRoleToInstanceProfile(_ context.Context, in *iam.AddRoleToInstanceProfileInput, _ ...func(*iam.Options)) (*iam.AddRoleToInstanceProfileOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddRoleToInstanceProfile"); err != nil {
		return nil, err
	}
	p, ok := f.Profiles[aws.ToString(in.InstanceProfileName)]
	if !ok {
		return nil, &types.NoSuchEntityException{}
	}
	p.Roles = append(p.Roles, aws.ToString(in.RoleName))
	return &iam.AddRoleToInstanceProfileOutput{}, nil
}

func (f *IAM) RemoveRoleFromInstanceProfile(_ context.Context, in *iam.RemoveRoleFromInstanceProfileInput, _ ...func(*iam.Options)) (*iam.RemoveRoleFromInstanceProfileOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RemoveRoleFromInstanceProfile"); err != nil {
		return nil, err
	}
	p, ok := f.Profiles[aws.ToString(in.InstanceProfileName)]
	if !ok {
		return nil, &types.NoSuchEntityException{}
	}
	keep := p.Roles[:0]
	for _, r := range p.Roles {
		if r != aws.ToString(in.RoleName) {
			keep = append(keep, r)
		}
	}
	p.Roles = keep
	return &iam.RemoveRoleFromInstanceProfileOutput{}, nil
}

func (f *IAM) DeleteInstanceProfile(_ context.Context, in *iam.DeleteInstanceProfileInput, _ ...func(*iam.Options)) (*iam.DeleteInstanceProfileOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteInstanceProfile"); err != nil {
		return nil, err
	}
	name := aws.ToString(in.InstanceProfileName)
	if _, ok := f.Profiles[name]; !ok {
		return nil, &types.NoSuchEntityException{}
	}
	delete(f.Profiles, name)
	return &iam.DeleteInstanceProfileOutput{}, nil
}

func (f *IAM) GetPolicy(_ context.Context, in *iam.GetPolicyInput, _ ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetPolicy"); err != nil {
		return nil, err
	}
	p, ok := f.Policies[aws.ToString(in.PolicyArn)]
	if !ok {
		return nil, &types.NoSuchEntityException{}
	}
	return &iam.GetPolicyOutput{Policy: &types.Policy{Arn: aws.String(p.ARN), PolicyName: aws.String(p.Name)}}, nil
}

func (f *IAM) CreatePolicy(_ context.Context, in *iam.CreatePolicyInput, _ ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreatePolicy"); err != nil {
		return nil, err
	}
	name := aws.ToString(in.PolicyName)
	p := &Policy{
		ARN:      "arn:aws:iam::111122223333:policy/" + name,
		Name:     name,
		Document: aws.ToString(in.PolicyDocument),
	}
	if _, ok := f.Policies[p.ARN]; ok {
		return nil, &types.EntityAlreadyExistsException{}
	}
	f.Policies[p.ARN] = p
	return &iam.CreatePolicyOutput{Policy: &types.Policy{Arn: aws.String(p.ARN), PolicyName: aws.String(p.Name)}}, nil
}

func (f *IAM) DeletePolicy(_ context.Context, in *iam.DeletePolicyInput, _ ...func(*iam.Options)) (*iam.DeletePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeletePolicy"); err != nil {
		return nil, err
	}
	arn := aws.ToString(in.PolicyArn)
	if _, ok := f.Policies[arn]; !ok {
		return nil, &types.NoSuchEntityException{}
	}
	delete(f.Policies, arn)
	return &iam.DeletePolicyOutput{}, nil
}

func (f *IAM) ListAttachedRolePolicies(_ context.Context, in *iam.ListAttachedRolePoliciesInput, _ ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListAttachedRolePolicies"); err != nil {
		return nil, err
	}
	var out []types.AttachedPolicy
	for _, arn := range f.Attached[aws.ToString(in.RoleName)] {
		out = append(out, types.AttachedPolicy{PolicyArn: aws.String(arn)})
	}
	return &iam.ListAttachedRolePoliciesOutput{AttachedPolicies: out}, nil
}

func (f *IAM) AttachRolePolicy(_ context.Context, in *iam.AttachRolePolicyInput, _ ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AttachRolePolicy"); err != nil {
		return nil, err
	}
	role := aws.ToString(in.RoleName)
	f.Attached[role] = append(f.Attached[role], aws.ToString(in.PolicyArn))
	return &iam.AttachRolePolicyOutput{}, nil
}

func (f *IAM) DetachRolePolicy(_ context.Context, in *iam.DetachRolePolicyInput, _ ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DetachRolePolicy"); err != nil {
		return nil, err
	}
	role := aws.ToString(in.RoleName)
	keep := f.Attached[role][:0]
	for _, arn := range f.Attached[role] {
		if arn != aws.ToString(in.PolicyArn) {
			keep = append(keep, arn)
		}
	}
	f.Attached[role] = keep
	return &iam.DetachRolePolicyOutput{}, nil
}

func (f *IAM) profileOut(p *Profile) *types.InstanceProfile {
	roles := make([]types.Role, 0, len(p.Roles))
	for _, rn := range p.Roles {
		roles = append(roles, types.Role{RoleName: aws.String(rn)})
	}
	return &types.InstanceProfile{
		Arn:                 aws.String(p.ARN),
		InstanceProfileName: aws.String(p.Name),
		Roles:               roles,
	}
}
