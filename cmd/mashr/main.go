// Package main provides the CLI entrypoint for mashr.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/mashr/internal/config"
	"github.com/verte-zerg/mashr/internal/model"
	"github.com/verte-zerg/mashr/internal/store"
	"github.com/verte-zerg/mashr/internal/tui"
)

const (
	defaultKey         = "a"
	defaultDuration    = 30
	defaultCurveWindow = 5
	defaultAddr        = ":5000"
)

var (
	playKey         string
	playDuration    int
	playDevice      string
	playOrientation string
	playReleaseMs   int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mashr",
		Short:         "Timed key-mashing trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playKey, "key", defaultKey, "target key to mash")
	rootCmd.Flags().IntVar(&playDuration, "duration", defaultDuration, fmt.Sprintf("session length in seconds %v", model.AllowedDurations))
	rootCmd.Flags().StringVar(&playDevice, "device", "", "device label stored with results")
	rootCmd.Flags().StringVar(&playOrientation, "orientation", "", "orientation label stored with results")
	rootCmd.Flags().IntVar(&playReleaseMs, "release-ms", int(tui.DefaultReleaseWindow/time.Millisecond), "silence in ms after which a held key counts as released; set above the terminal auto-repeat delay (often 250-600) to count a hold once")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "key", &playKey, fileCfg.Game.Key)
	applyIntConfig(cmd, "duration", &playDuration, fileCfg.Game.Duration)
	applyStringConfig(cmd, "device", &playDevice, fileCfg.Game.Device)
	applyStringConfig(cmd, "orientation", &playOrientation, fileCfg.Game.Orientation)
	applyIntConfig(cmd, "release-ms", &playReleaseMs, fileCfg.Game.ReleaseMs)

	if playReleaseMs <= 0 {
		return fmt.Errorf("--release-ms must be > 0")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	m, err := tui.NewModel(tui.Options{
		Config: model.SessionConfig{
			TargetKey:       playKey,
			DurationSeconds: playDuration,
			Device:          playDevice,
			Orientation:     playOrientation,
		},
		ReleaseWindow: time.Duration(playReleaseMs) * time.Millisecond,
	}, st)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	envCfg, err := config.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	st, err := store.Open(envCfg.ResolveDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# mashr configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# key = %q               # Target key to mash
# duration = %d          # Session length in seconds, one of %v
# device = ""            # Device label stored with results
# orientation = ""       # Orientation label stored with results
# release-ms = %d        # Silence in ms after which a held key counts as released

[server]
# addr = %q          # Listen address for mashr serve
`,
		defaultKey,
		defaultDuration,
		model.AllowedDurations,
		int(tui.DefaultReleaseWindow/time.Millisecond),
		defaultAddr,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
