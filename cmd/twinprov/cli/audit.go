package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RegisterAuditCommands adds audit log commands.
func RegisterAuditCommands(root *cobra.Command) {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the tamper-evident audit log",
	}

	auditCmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Verify the audit hash chain and stored run reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			valid, count, err := engine.VerifyAudit()
			if err != nil {
				return fmt.Errorf("audit chain %s: %w", engine.Chain, err)
			}
			if !valid {
				return fmt.Errorf("audit chain %s is invalid", engine.Chain)
			}
			fmt.Printf("Audit chain %s intact: %d records verified.\n", engine.Chain, count)

			ok, bad, err := engine.VerifyArtifacts()
			if err != nil {
				return fmt.Errorf("verifying run reports: %w", err)
			}
			for _, b := range bad {
				fmt.Printf("  report %s\n", b)
			}
			if len(bad) > 0 {
				return fmt.Errorf("%d run reports failed verification", len(bad))
			}
			fmt.Printf("Run reports intact: %d verified.\n", ok)
			return nil
		},
	})

	root.AddCommand(auditCmd)
}
