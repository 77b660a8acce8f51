package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/twinprov/twinprov/internal/core"
)

// RegisterAWSCommands adds the `twinprov aws` command tree.
func RegisterAWSCommands(root *cobra.Command) {
	awsCmd := &cobra.Command{
		Use:   "aws",
		Short: "Inspect the AWS credentials in use",
		Long: `Query AWS with the configured profile and region before running anything
that mutates the account. These commands are read-only and record no run.`,
	}

	awsCmd.AddCommand(newAWSWhoamiCmd())

	root.AddCommand(awsCmd)
}

func newAWSWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the STS caller identity, region and scope check",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			caller, err := engine.Whoami(context.Background())
			if err != nil {
				return err
			}
			if err := printCaller(os.Stdout, caller); err != nil {
				return err
			}
			return caller.Violation
		},
	}
}

func printCaller(out io.Writer, caller core.Caller) error {
	scopeState := "not configured"
	switch {
	case caller.Violation != nil:
		scopeState = "OUT OF SCOPE: " + caller.Violation.Error()
	case caller.ScopeConfigured:
		scopeState = "ok"
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Account:\t%s\n", caller.AccountID)
	fmt.Fprintf(w, "ARN:\t%s\n", caller.ARN)
	fmt.Fprintf(w, "UserID:\t%s\n", caller.UserID)
	fmt.Fprintf(w, "Region:\t%s\n", caller.Region)
	fmt.Fprintf(w, "Partition:\t%s\n", caller.Partition)
	fmt.Fprintf(w, "Scope:\t%s\n", scopeState)
	return w.Flush()
}
