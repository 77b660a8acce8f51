package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// RegisterRoleCommands adds role teardown commands.
func RegisterRoleCommands(root *cobra.Command) {
	roleCmd := &cobra.Command{
		Use:   "role",
		Short: "Tear down workspace IAM roles",
	}

	roleCmd.AddCommand(newRoleDeleteCmd())

	root.AddCommand(roleCmd)
}

func newRoleDeleteCmd() *cobra.Command {
	var (
		name   string
		commit bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Detach and delete a role's policies and the role (dry run without --commit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := confirmDestroy(engine.Config, name, commit, yes); err != nil {
				return err
			}

			plan, run, err := engine.DeleteRole(cmd.Context(), name, commit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Role:\t%s\n", plan.Role)
			fmt.Fprintf(w, "Instance profiles:\t%s\n", listOrNone(plan.InstanceProfiles))
			fmt.Fprintf(w, "Inline policies:\t%s\n", listOrNone(plan.InlinePolicies))
			fmt.Fprintf(w, "Managed policies:\t%s\n", listOrNone(plan.ManagedPolicies))
			fmt.Fprintf(w, "State:\t%s\n", deletionState(commit))
			fmt.Fprintf(w, "Run:\t%s\n", run.UUID)
			if err := w.Flush(); err != nil {
				return err
			}
			dryRunNote(commit)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Role name (required)")
	cmd.Flags().BoolVar(&commit, "commit", false, "Actually delete; without it only list what would be deleted")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
