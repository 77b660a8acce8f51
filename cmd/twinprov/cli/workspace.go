package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// RegisterWorkspaceCommands adds workspace provisioning commands to the root.
func RegisterWorkspaceCommands(root *cobra.Command) {
	wsCmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Create and delete TwinMaker workspaces",
	}

	wsCmd.AddCommand(newWorkspaceCreateCmd())
	wsCmd.AddCommand(newWorkspaceDeleteCmd())

	root.AddCommand(wsCmd)
}

func newWorkspaceCreateCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workspace with its bucket pair and roles, unless it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ws, run, err := engine.CreateWorkspace(cmd.Context(), id)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Workspace:\t%s\n", ws.ID)
			fmt.Fprintf(w, "Workspace ARN:\t%s\n", ws.ARN)
			if p := ws.Provisioned; p != nil {
				fmt.Fprintf(w, "Bucket ARN:\t%s\n", p.WorkspaceS3BucketARN)
				fmt.Fprintf(w, "Role ARN:\t%s\n", p.WorkspaceRoleARN)
				if p.WorkspaceDashboardARN != "" {
					fmt.Fprintf(w, "Dashboard role ARN:\t%s\n", p.WorkspaceDashboardARN)
				}
				if !p.Buckets.LoggingEnabled {
					fmt.Fprintf(w, "Access logging:\tnot enabled (see log output)\n")
				}
			} else {
				fmt.Fprintf(w, "Status:\talready existed, nothing created\n")
			}
			fmt.Fprintf(w, "Run:\t%s\n", run.UUID)
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Workspace id (required)")
	return cmd
}

func newWorkspaceDeleteCmd() *cobra.Command {
	var (
		id     string
		commit bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a workspace, its bucket pair and its roles (dry run without --commit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := confirmDestroy(engine.Config, id, commit, yes); err != nil {
				return err
			}

			report, run, err := engine.DeleteWorkspace(cmd.Context(), id, commit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RESOURCE\tNAME\tSTATE")
			wsState := "not found"
			if report.WorkspaceFound {
				wsState = deletionState(commit)
			}
			fmt.Fprintf(w, "workspace\t%s\t%s\n", id, wsState)
			printBucketRows(w, &report.Bucket, commit)
			for _, r := range report.Roles {
				state := deletionState(commit)
				if r.Missing {
					state = "not found"
				}
				fmt.Fprintf(w, "role\t%s\t%s\n", r.Name, state)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("Run: %s\n", run.UUID)
			dryRunNote(commit)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Workspace id (required)")
	cmd.Flags().BoolVar(&commit, "commit", false, "Actually delete; without it only list what would be deleted")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func deletionState(commit bool) string {
	if commit {
		return "deleted"
	}
	return "would delete"
}
