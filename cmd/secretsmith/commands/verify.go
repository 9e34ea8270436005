package commands

import (
	"github.com/spf13/cobra"

	"github.com/richardndungu94/secretsmith/keymat"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "fetch the current secret version and check the payload contract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			outputs, err := a.store.LoadOutputs(a.ctx, a.cfg.Project, a.cfg.Environment)
			if err != nil {
				return err
			}

			awsCfg, err := a.awsConfig()
			if err != nil {
				return err
			}
			version, err := a.secretProvider(awsCfg).GetCurrent(a.ctx, outputs.SecretName)
			if err != nil {
				return err
			}

			payload, err := keymat.ParsePayload(version.Value)
			if err != nil {
				return err
			}
			fingerprint, err := keymat.FingerprintOf(payload.PublicKey)
			if err != nil {
				return err
			}

			// Never print the private half.
			cmd.Printf("Secret %s holds a valid payload\n", outputs.SecretName)
			cmd.Printf("  version:     %s\n", version.VersionID)
			cmd.Printf("  key type:    %s\n", payload.KeyType)
			cmd.Printf("  created at:  %s\n", payload.CreatedAt)
			cmd.Printf("  description: %s\n", payload.Description)
			cmd.Printf("  fingerprint: %s\n", fingerprint)
			return nil
		},
	}
}
