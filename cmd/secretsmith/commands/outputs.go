package commands

import (
	"github.com/spf13/cobra"
)

func newOutputsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outputs",
		Short: "print the recorded outputs of the last apply",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			outputs, err := a.store.LoadOutputs(a.ctx, a.cfg.Project, a.cfg.Environment)
			if err != nil {
				return err
			}

			cmd.Printf("secret name:          %s\n", outputs.SecretName)
			cmd.Printf("secret arn:           %s\n", outputs.SecretARN)
			cmd.Printf("role arn:             %s\n", outputs.RoleARN)
			cmd.Printf("policy arn:           %s\n", outputs.PolicyARN)
			cmd.Printf("instance profile arn: %s\n", outputs.InstanceProfileARN)
			if outputs.KMSKeyID != "" {
				cmd.Printf("kms key:              %s\n", outputs.KMSKeyID)
			}

			uploads, err := a.store.Uploads(a.ctx, a.cfg.Project, a.cfg.Environment)
			if err != nil {
				return err
			}
			if len(uploads) > 0 {
				cmd.Printf("uploads:              %d (latest %s, %s)\n",
					len(uploads), uploads[0].VersionID, uploads[0].Fingerprint)
			}
			return nil
		},
	}
}
