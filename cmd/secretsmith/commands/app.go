package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/richardndungu94/secretsmith/config"
	"github.com/richardndungu94/secretsmith/identity"
	"github.com/richardndungu94/secretsmith/provision"
	"github.com/richardndungu94/secretsmith/secretstore"
	"github.com/richardndungu94/secretsmith/state"
)

// app carries what every command needs: the prepared declaration, the state
// store, and a context with the logger attached.
type app struct {
	ctx   context.Context
	cfg   *config.Config
	store *state.Store
}

// setup loads the declaration and opens the state store. No AWS client is
// constructed here, so state-only commands never touch the network.
func setup(cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	logger := config.ProductionLogger()
	if verbose {
		logger = config.DevelopmentLogger()
	}
	ctx := config.WithLogger(cmd.Context(), logger)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	var store *state.Store
	if cfg.State.DSN != "" {
		store, err = state.NewPostgresStore(cfg.State.DSN)
	} else {
		store, err = state.NewSQLiteStore(cfg.State.Path)
	}
	if err != nil {
		return nil, err
	}

	return &app{ctx: ctx, cfg: cfg, store: store}, nil
}

func (a *app) awsConfig() (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if a.cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(a.cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(a.ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS configuration: %w", err)
	}
	return awsCfg, nil
}

func (a *app) secretProvider(awsCfg aws.Config) *secretstore.Provider {
	return secretstore.NewProvider(secretsmanager.NewFromConfig(awsCfg), 1024, time.Minute)
}

func (a *app) provisioner(awsCfg aws.Config) *provision.Provisioner {
	var keys *provision.KeyValidator
	if a.cfg.Secret.KMSKeyID != "" {
		keys = provision.NewKeyValidator(kms.NewFromConfig(awsCfg))
	}
	return provision.New(
		a.cfg,
		a.secretProvider(awsCfg),
		identity.NewProvider(iam.NewFromConfig(awsCfg)),
		keys,
		a.store,
	)
}

func (a *app) stsClient(awsCfg aws.Config) *sts.Client {
	return sts.NewFromConfig(awsCfg)
}

func (a *app) ssmClient(awsCfg aws.Config) *ssm.Client {
	return ssm.NewFromConfig(awsCfg)
}
