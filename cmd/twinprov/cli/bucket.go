package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/twinprov/twinprov/internal/teardown"
)

// RegisterBucketCommands adds bucket teardown commands.
func RegisterBucketCommands(root *cobra.Command) {
	bucketCmd := &cobra.Command{
		Use:   "bucket",
		Short: "Tear down workspace buckets",
	}

	bucketCmd.AddCommand(newBucketDeleteCmd())

	root.AddCommand(bucketCmd)
}

func newBucketDeleteCmd() *cobra.Command {
	var (
		name   string
		commit bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Empty and delete a bucket and its access-log bucket (dry run without --commit)",
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

			report, run, err := engine.DeleteBucket(cmd.Context(), name, commit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RESOURCE\tNAME\tSTATE")
			printBucketRows(w, &report, commit)
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("Run: %s\n", run.UUID)
			dryRunNote(commit)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Bucket name (required)")
	cmd.Flags().BoolVar(&commit, "commit", false, "Actually delete; without it only list what would be deleted")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// printBucketRows writes the log bucket row before its source bucket, in
// deletion order.
func printBucketRows(w io.Writer, r *teardown.BucketReport, commit bool) {
	if r.LogBucket != nil {
		printBucketRows(w, r.LogBucket, commit)
	}
	state := fmt.Sprintf("%s (%d objects, %d versions, %d delete markers)",
		deletionState(commit), r.Objects, r.Versions, r.DeleteMarkers)
	if r.Missing {
		state = "not found"
	}
	fmt.Fprintf(w, "bucket\t%s\t%s\n", r.Bucket, state)
}
