package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/richardndungu94/secretsmith/state"
)

func newProvisionCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "converge the declared secret container, role, and grant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			if dryRun {
				return printProvisionPreview(cmd, a)
			}

			awsCfg, err := a.awsConfig()
			if err != nil {
				return err
			}
			plan, err := a.provisioner(awsCfg).Apply(a.ctx)
			if err != nil {
				return err
			}

			for _, c := range plan.Changes {
				cmd.Printf("%-18s %-50s %s\n", c.Resource, c.Name, c.Action)
			}
			if plan.Created() == 0 {
				cmd.Println("No changes. Actual state matches the declaration.")
			} else {
				cmd.Printf("Apply complete: %d created.\n", plan.Created())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resolved resource names without calling the platform")
	return cmd
}

// printProvisionPreview resolves target names from the declaration and any
// recorded outputs, making no platform call at all.
func printProvisionPreview(cmd *cobra.Command, a *app) error {
	secretName := a.cfg.Secret.NamePrefix + "-<suffix>"
	prior, err := a.store.LoadOutputs(a.ctx, a.cfg.Project, a.cfg.Environment)
	switch {
	case err == nil:
		secretName = prior.SecretName
	case !errors.Is(err, state.ErrNotProvisioned):
		return err
	}

	cmd.Printf("secret container   %s\n", secretName)
	cmd.Printf("identity role      %s\n", a.cfg.Identity.RoleName)
	cmd.Printf("instance profile   %s\n", a.cfg.Identity.InstanceProfileName)
	cmd.Printf("permission grant   %s\n", a.cfg.Identity.PolicyName)
	cmd.Println("Dry run: nothing was applied.")
	return nil
}
