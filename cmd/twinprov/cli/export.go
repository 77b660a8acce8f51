package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/twinprov/twinprov/internal/core"
)

// RegisterExportCommands adds the evidence export command.
func RegisterExportCommands(root *cobra.Command) {
	var output string

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export run history, reports and the audit chain",
		Long: `Write an evidence bundle of every recorded run, its stored reports and the
audit chain of the active profile. Audit details are redacted when written, so
the bundle holds no secret material.

Layout:
  manifest.json       counts, audit chain verification
  runs/<uuid>.json    one run with its reports
  audit/audit.json    every audit record in append order`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			bundle, err := engine.Export()
			if err != nil {
				return err
			}
			if err := core.WriteBundle(output, bundle); err != nil {
				return err
			}

			m := bundle.Manifest
			fmt.Printf("Exported chain %q to %s\n", m.Chain, output)
			fmt.Printf("  Runs:    %d\n", m.Runs)
			fmt.Printf("  Reports: %d\n", m.Reports)
			fmt.Printf("  Audit:   %d events\n", m.AuditEvents)
			if !m.AuditValid {
				fmt.Printf("  WARNING: audit chain failed verification: %s\n", m.AuditError)
			}
			return nil
		},
	}

	exportCmd.Flags().StringVar(&output, "output", "", "Output directory (required)")
	root.AddCommand(exportCmd)
}
