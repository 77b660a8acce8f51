package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/twinprov/twinprov/internal/config"
	"github.com/twinprov/twinprov/internal/core"
	"github.com/twinprov/twinprov/internal/logging"
	"golang.org/x/term"
)

var (
	v          = config.NewViper()
	configPath string
)

// RegisterPersistentFlags adds the global flags and binds them to the config.
func RegisterPersistentFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default ~/.twinprov/config.json)")
	flags.String("region", "", "AWS region")
	flags.String("profile", "", "AWS shared config profile")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	// Unset flags fall through to env, file and defaults.
	_ = v.BindPFlag("region", flags.Lookup("region"))
	_ = v.BindPFlag("profile", flags.Lookup("profile"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
}

// loadConfig merges defaults, the config file, environment and flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger writes JSON when configured or when stderr is not a terminal.
func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.LogFormat == "json" || !term.IsTerminal(int(os.Stderr.Fd())) {
		return logging.NewJSONLogger(os.Stderr, cfg.LogLevel, "")
	}
	return logging.NewLogger(cfg.LogLevel, "")
}

// openEngine loads configuration and opens the state databases.
func openEngine() (*core.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	engine, err := core.Open(cfg, newLogger(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening state: %w", err)
	}
	return engine, nil
}

// confirmDestroy asks the operator to type name before a committed deletion.
func confirmDestroy(cfg config.Config, name string, commit, yes bool) error {
	if !commit || yes || !cfg.RequireConfirmDestroy {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("refusing to delete %s without --yes when stdin is not a terminal", name)
	}
	return promptName(os.Stdin, os.Stderr, name)
}

func promptName(in io.Reader, out io.Writer, name string) error {
	fmt.Fprintf(out, "This permanently deletes %s. Type the name to confirm: ", name)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	if strings.TrimSpace(line) != name {
		return fmt.Errorf("confirmation did not match %s; nothing deleted", name)
	}
	return nil
}

func dryRunNote(commit bool) {
	if !commit {
		fmt.Println("\nDry run: nothing was deleted. Re-run with --commit to delete.")
	}
}
