// Package main is the entry point for the niftypool CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/itsharshx/niftypool/internal/config"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "niftypool",
		Short:         "Join Telegram groups from a list of invite links, paced and logged",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to settings file")
	root.AddCommand(
		versionCmd(),
		joinCmd(),
		loginCmd(),
		accountsCmd(),
		historyCmd(),
		scheduleCmd(),
		licenseCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("niftypool %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// loadSettings resolves the settings file path from the --config flag or
// standard locations and loads it. A missing file yields the defaults.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = resolveConfigPath()
	}
	return config.Load(path)
}

// resolveConfigPath searches for a settings file in standard locations.
// Search order: $XDG_CONFIG_HOME/niftypool/niftypool.yaml → ./niftypool.yaml
func resolveConfigPath() string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "niftypool", "niftypool.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "niftypool", "niftypool.yaml"))
	}

	candidates = append(candidates, "niftypool.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	// Nothing found — Load falls back to defaults for a missing file.
	return "niftypool.yaml"
}

func credentialsPath(s *config.Settings) string {
	return filepath.Join(s.DataDir, "credentials.json")
}

func historyPath(s *config.Settings) string {
	return filepath.Join(s.DataDir, "history.db")
}
