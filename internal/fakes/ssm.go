package fakes

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSM is a test double for keymat.SSMAPI.
// Values holds parameter name -> value; Versions counts upserts per name.
type SSM struct {
	mu sync.Mutex

	Values   map[string]string
	Versions map[string]int64
	Err      error

	Calls    int
	LastName string
}

func (f *SSM) PutParameter(_ context.Context, in *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if in == nil || in.Name == nil {
		return nil, errors.New("missing Name")
	}

	name := *in.Name
	f.Calls++
	f.LastName = name

	if f.Values == nil {
		f.Values = make(map[string]string)
	}
	if f.Versions == nil {
		f.Versions = make(map[string]int64)
	}
	f.Values[name] = *in.Value
	f.Versions[name]++
	return &ssm.PutParameterOutput{Version: f.Versions[name]}, nil
}
