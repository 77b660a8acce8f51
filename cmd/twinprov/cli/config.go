package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/twinprov/twinprov/internal/audit"
	"github.com/twinprov/twinprov/internal/config"
	"github.com/twinprov/twinprov/internal/logging"
)

// RegisterConfigCommands adds configuration commands.
func RegisterConfigCommands(root *cobra.Command) {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise twinprov configuration",
	}

	cfgCmd.AddCommand(newConfigShowCmd())
	cfgCmd.AddCommand(newConfigInitCmd())

	root.AddCommand(cfgCmd)
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			settings := redactSettings(v.AllSettings())
			data, err := json.MarshalIndent(settings, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func redactSettings(settings map[string]any) map[string]any {
	out := make(map[string]any, len(settings))
	for k, val := range settings {
		switch typed := val.(type) {
		case map[string]any:
			out[k] = redactSettings(typed)
		default:
			if logging.IsSecretField(k) {
				out[k] = logging.RedactValue(fmt.Sprint(typed))
			} else {
				out[k] = fmt.Sprint(typed)
			}
		}
	}
	return out
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := config.Save(engine.Config, path); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			if err := engine.AuditLogger.Log(audit.EventConfigChanged, "local", "", map[string]string{
				"path":    path,
				"region":  engine.Config.Region,
				"profile": engine.Config.Profile,
			}); err != nil {
				engine.Logger.Warn().Err(err).Msg("audit write failed")
			}
			fmt.Printf("Config written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
