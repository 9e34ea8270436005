package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/richardndungu94/secretsmith/keymat"
)

func newUploadKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-key",
		Short: "generate an ed25519 key pair and upload it as the current secret version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			awsCfg, err := a.awsConfig()
			if err != nil {
				return err
			}

			var publisher *keymat.Publisher
			if a.cfg.Secret.PublicKeyParameter != "" {
				publisher = keymat.NewPublisher(a.ssmClient(awsCfg))
			}

			m := keymat.NewMaterializer(
				a.cfg,
				a.store,
				a.secretProvider(awsCfg),
				keymat.NewPreflight(a.stsClient(awsCfg)),
				publisher,
				&keymat.Prompter{In: os.Stdin, Out: cmd.OutOrStdout()},
			)

			res, err := m.Run(a.ctx)
			if err != nil {
				return err
			}

			cmd.Printf("Uploaded new version of %s\n", res.SecretName)
			cmd.Printf("  version:     %s\n", res.VersionID)
			cmd.Printf("  fingerprint: %s\n", res.Fingerprint)
			cmd.Printf("  private key: %s\n", res.PrivateKeyPath)
			cmd.Printf("  public key:  %s\n", res.PublicKeyPath)
			if res.Published {
				cmd.Printf("  published:   %s\n", a.cfg.Secret.PublicKeyParameter)
			}
			return nil
		},
	}
}
