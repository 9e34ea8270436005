package fakes

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STS is a test double for keymat.STSAPI.
type STS struct {
	mu sync.Mutex

	Account string
	ARN     string
	Err     error

	Calls int
}

func (f *STS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	account := f.Account
	if account == "" {
		account = "111122223333"
	}
	arn := f.ARN
	if arn == "" {
		arn = "arn:aws:iam::111122223333:user/operator"
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(account),
		Arn:     aws.String(arn),
	}, nil
}
