// twinprov provisions and tears down AWS IoT TwinMaker workspaces.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/twinprov/twinprov/cmd/twinprov/cli"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "twinprov",
		Short: "Provision and tear down AWS IoT TwinMaker workspaces",
		Long: `twinprov creates a TwinMaker workspace together with its S3 bucket pair and
IAM roles, and removes them again. Creation is idempotent; deletion is a dry run
unless --commit is given.`,
		Version:      version,
		SilenceUsage: true,
	}

	cli.RegisterPersistentFlags(rootCmd)

	// Register command groups
	cli.RegisterWorkspaceCommands(rootCmd)
	cli.RegisterBucketCommands(rootCmd)
	cli.RegisterRoleCommands(rootCmd)
	cli.RegisterRunCommands(rootCmd)
	cli.RegisterAuditCommands(rootCmd)
	cli.RegisterConfigCommands(rootCmd)
	cli.RegisterAWSCommands(rootCmd)
	cli.RegisterExportCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
