package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// KMSAPI is the slice of the KMS client needed to validate a customer
// managed key before binding the container to it.
type KMSAPI interface {
	DescribeKey(ctx context.Context, params *kms.DescribeKeyInput, optFns ...func(*kms.Options)) (*kms.DescribeKeyOutput, error)
}

// KeyValidator checks that a declared customer managed key exists and is
// enabled. The default platform key needs no validation.
type KeyValidator struct {
	kms KMSAPI
}

func NewKeyValidator(k KMSAPI) *KeyValidator {
	return &KeyValidator{kms: k}
}

// Validate resolves keyID (id, alias, or ARN) and returns the key ARN.
func (v *KeyValidator) Validate(ctx context.Context, keyID string) (string, error) {
	out, err := v.kms.DescribeKey(ctx, &kms.DescribeKeyInput{KeyId: aws.String(keyID)})
	if err != nil {
		return "", fmt.Errorf("describe KMS key %q: %w", keyID, err)
	}
	if out.KeyMetadata == nil || !out.KeyMetadata.Enabled {
		return "", fmt.Errorf("KMS key %q is not enabled", keyID)
	}
	return aws.ToString(out.KeyMetadata.Arn), nil
}
