package keymat

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSAPI is the slice of the STS client used for the authentication
// preflight.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Preflight verifies the platform session before any mutating call is made.
type Preflight struct {
	sts STSAPI
}

func NewPreflight(s STSAPI) *Preflight {
	return &Preflight{sts: s}
}

// Check returns the authenticated account and principal ARN, or an error when
// the session is missing or expired.
func (p *Preflight) Check(ctx context.Context) (account, arn string, err error) {
	out, err := p.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", "", fmt.Errorf("platform session is not authenticated: %w", err)
	}
	return aws.ToString(out.Account), aws.ToString(out.Arn), nil
}
