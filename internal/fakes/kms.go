package fakes

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

// KMS is a test double for provision.KMSAPI.
// Keys maps key id/alias -> ARN; Disabled marks keys that exist but are off.
type KMS struct {
	mu sync.Mutex

	Keys     map[string]string
	Disabled map[string]bool
	Err      error

	Calls     int
	LastKeyID string
}

func (f *KMS) DescribeKey(_ context.Context, in *kms.DescribeKeyInput, _ ...func(*kms.Options)) (*kms.DescribeKeyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if in == nil || in.KeyId == nil {
		return nil, errors.New("missing KeyId")
	}

	id := *in.KeyId
	f.LastKeyID = id
	arn, ok := f.Keys[id]
	if !ok {
		return nil, &types.NotFoundException{}
	}
	return &kms.DescribeKeyOutput{
		KeyMetadata: &types.KeyMetadata{
			Arn:     aws.String(arn),
			KeyId:   aws.String(id),
			Enabled: !f.Disabled[id],
		},
	}, nil
}
