// Package fakes holds test doubles for the AWS client slices the providers
// consume. Each fake keeps its state in memory and records calls so tests can
// assert exactly which platform operations ran.
package fakes

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/google/uuid"
)

// SecretVersion is one stored version of a fake secret.
type SecretVersion struct {
	ID        string
	Value     string
	CreatedAt time.Time
}

// Secret is the in-memory state backing one fake secret container.
type Secret struct {
	ARN         string
	Name        string
	Description string
	KMSKeyID    string
	Tags        map[string]string
	Versions    []SecretVersion
}

// Current returns the newest version, or nil.
func (s *Secret) Current() *SecretVersion {
	if len(s.Versions) == 0 {
		return nil
	}
	return &s.Versions[len(s.Versions)-1]
}

// SecretsManager is a test double for secretstore.SecretsManagerAPI.
type SecretsManager struct {
	mu sync.Mutex

	Secrets map[string]*Secret
	Err     error // if set, every call returns this error

	Calls map[string]int
}

func NewSecretsManager() *SecretsManager {
	return &SecretsManager{
		Secrets: make(map[string]*Secret),
		Calls:   make(map[string]int),
	}
}

func (f *SecretsManager) record(op string) {
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[op]++
}

// TotalCalls reports how many API calls the fake has seen in total.
func (f *SecretsManager) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		n += c
	}
	return n
}

func (f *SecretsManager) DescribeSecret(_ context.Context, in *secretsmanager.DescribeSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeSecret")
	if f.Err != nil {
		return nil, f.Err
	}
	s, ok := f.Secrets[aws.ToString(in.SecretId)]
	if !ok {
		return nil, &types.ResourceNotFoundException{}
	}
	return &secretsmanager.DescribeSecretOutput{
		ARN:         aws.String(s.ARN),
		Name:        aws.String(s.Name),
		Description: aws.String(s.Description),
	}, nil
}

func (f *SecretsManager) CreateSecret(_ context.Context, in *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSecret")
	if f.Err != nil {
		return nil, f.Err
	}
	name := aws.ToString(in.Name)
	if _, ok := f.Secrets[name]; ok {
		return nil, &types.ResourceExistsException{}
	}
	s := &Secret{
		ARN:         "arn:aws:secretsmanager:eu-north-1:111122223333:secret:" + name,
		Name:        name,
		Description: aws.ToString(in.Description),
		KMSKeyID:    aws.ToString(in.KmsKeyId),
		Tags:        make(map[string]string, len(in.Tags)),
	}
	for _, tag := range in.Tags {
		s.Tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	if in.SecretString != nil {
		s.Versions = append(s.Versions, SecretVersion{
			ID:        tokenOr(in.ClientRequestToken),
			Value:     aws.ToString(in.SecretString),
			CreatedAt: time.Now(),
		})
	}
	f.Secrets[name] = s
	return &secretsmanager.CreateSecretOutput{
		ARN:  aws.String(s.ARN),
		Name: aws.String(s.Name),
	}, nil
}

func (f *SecretsManager) PutSecretValue(_ context.Context, in *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PutSecretValue")
	if f.Err != nil {
		return nil, f.Err
	}
	s, ok := f.Secrets[aws.ToString(in.SecretId)]
	if !ok {
		return nil, &types.ResourceNotFoundException{}
	}
	v := SecretVersion{
		ID:        tokenOr(in.ClientRequestToken),
		Value:     aws.ToString(in.SecretString),
		CreatedAt: time.Now(),
	}
	s.Versions = append(s.Versions, v)
	return &secretsmanager.PutSecretValueOutput{
		ARN:       aws.String(s.ARN),
		Name:      aws.String(s.Name),
		VersionId: aws.String(v.ID),
	}, nil
}

func (f *SecretsManager) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetSecretValue")
	if f.Err != nil {
		return nil, f.Err
	}
	s, ok := f.Secrets[aws.ToString(in.SecretId)]
	if !ok || s.Current() == nil {
		return nil, &types.ResourceNotFoundException{}
	}
	cur := s.Current()
	return &secretsmanager.GetSecretValueOutput{
		ARN:          aws.String(s.ARN),
		Name:         aws.String(s.Name),
		SecretString: aws.String(cur.Value),
		VersionId:    aws.String(cur.ID),
		CreatedDate:  aws.Time(cur.CreatedAt),
	}, nil
}

func (f *SecretsManager) DeleteSecret(_ context.Context, in *secretsmanager.DeleteSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSecret")
	if f.Err != nil {
		return nil, f.Err
	}
	name := aws.ToString(in.SecretId)
	s, ok := f.Secrets[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{}
	}
	delete(f.Secrets, name)
	return &secretsmanager.DeleteSecretOutput{
		ARN:  aws.String(s.ARN),
		Name: aws.String(s.Name),
	}, nil
}

func tokenOr(t *string) string {
	if t != nil && *t != "" {
		return *t
	}
	return uuid.NewString()
}
