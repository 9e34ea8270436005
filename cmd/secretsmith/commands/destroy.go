package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/richardndungu94/secretsmith/keymat"
)

func newDestroyCmd() *cobra.Command {
	var force, yes, dryRun bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "tear down everything the recorded outputs name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			if dryRun {
				return printDestroyPreview(cmd, a)
			}

			if !yes {
				prompt := &keymat.Prompter{In: os.Stdin, Out: cmd.OutOrStdout()}
				ok, err := prompt.Confirm("Destroy all provisioned resources for " +
					a.cfg.Project + "/" + a.cfg.Environment)
				if err != nil {
					return err
				}
				if !ok {
					return keymat.ErrAborted
				}
			}

			awsCfg, err := a.awsConfig()
			if err != nil {
				return err
			}
			if err := a.provisioner(awsCfg).Destroy(a.ctx, force); err != nil {
				return err
			}
			cmd.Println("Destroy complete.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "delete the secret without a recovery window")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what the recorded outputs would tear down without calling the platform")
	return cmd
}

// printDestroyPreview lists the resources the recorded outputs name, making
// no platform call at all.
func printDestroyPreview(cmd *cobra.Command, a *app) error {
	outputs, err := a.store.LoadOutputs(a.ctx, a.cfg.Project, a.cfg.Environment)
	if err != nil {
		return err
	}

	cmd.Printf("secret container   %s\n", outputs.SecretName)
	cmd.Printf("identity role      %s\n", outputs.RoleName)
	cmd.Printf("instance profile   %s\n", a.cfg.Identity.InstanceProfileName)
	cmd.Printf("permission grant   %s\n", outputs.PolicyARN)
	cmd.Println("Dry run: nothing was destroyed.")
	return nil
}
