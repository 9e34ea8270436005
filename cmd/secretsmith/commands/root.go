// Package commands wires the CLI surface: provision, upload-key, verify,
// outputs, and destroy.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/richardndungu94/secretsmith/config"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secretsmith",
		Short: "provision a secret container and keep a deploy key in it",
		Long: "secretsmith converges a secret container, an EC2-assumable reader role,\n" +
			"and a read-only permission grant on the platform, then uploads a locally\n" +
			"generated ed25519 key pair as the container's current version.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", config.DefaultFile, "path to the declaration file")
	cmd.PersistentFlags().Bool("verbose", false, "log at debug level with console output")

	cmd.AddCommand(newProvisionCmd())
	cmd.AddCommand(newUploadKeyCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newOutputsCmd())
	cmd.AddCommand(newDestroyCmd())

	return cmd
}
