package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// RegisterRunCommands adds run history commands.
func RegisterRunCommands(root *cobra.Command) {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect provisioning and teardown run history",
	}

	runsCmd.AddCommand(newRunsListCmd())
	runsCmd.AddCommand(newRunsShowCmd())

	root.AddCommand(runsCmd)
}

func newRunsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			runs, err := engine.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "UUID\tOPERATION\tTARGET\tREGION\tCOMMIT\tSTATUS\tSTARTED")
			for _, r := range runs {
				commit := ""
				if r.Commit {
					commit = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.UUID[:8], r.Operation, r.Target, r.Region, commit, r.Status,
					r.StartedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	var withReport bool

	cmd := &cobra.Command{
		Use:   "show <run-uuid>",
		Short: "Show one run with its outputs and stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			run, err := engine.GetRun(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "UUID:\t%s\n", run.UUID)
			fmt.Fprintf(w, "Operation:\t%s\n", run.Operation)
			fmt.Fprintf(w, "Target:\t%s\n", run.Target)
			fmt.Fprintf(w, "Region:\t%s\n", run.Region)
			fmt.Fprintf(w, "Commit:\t%t\n", run.Commit)
			fmt.Fprintf(w, "Status:\t%s\n", run.Status)
			fmt.Fprintf(w, "Started:\t%s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
			if run.CompletedAt != nil {
				fmt.Fprintf(w, "Completed:\t%s\n", run.CompletedAt.Local().Format("2006-01-02 15:04:05"))
			}
			if run.ErrorDetail != nil {
				fmt.Fprintf(w, "Error:\t%s\n", *run.ErrorDetail)
			}
			keys := make([]string, 0, len(run.Outputs))
			for k := range run.Outputs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "  %s:\t%s\n", k, run.Outputs[k])
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !withReport {
				return nil
			}
			records, contents, err := engine.RunReports(run.UUID)
			if err != nil {
				return err
			}
			for i, rec := range records {
				fmt.Printf("\n--- %s %s (%s) ---\n%s\n", rec.Kind, rec.Label, rec.UUID[:8], contents[i])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withReport, "report", false, "Print the stored JSON report")
	return cmd
}
