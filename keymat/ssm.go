package keymat

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI is the slice of the SSM client used to publish the public half.
type SSMAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// Publisher mirrors the public key into an SSM parameter after each upload.
// The public half is not secret, so a plain String parameter is used.
type Publisher struct {
	ssm SSMAPI
}

func NewPublisher(s SSMAPI) *Publisher {
	return &Publisher{ssm: s}
}

// PublishPublicKey upserts the parameter and returns its new version.
func (p *Publisher) PublishPublicKey(ctx context.Context, name, value string) (int64, error) {
	out, err := p.ssm.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      types.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("SSM PutParameter %q: %w", name, err)
	}
	return out.Version, nil
}
