// Package cmd implements the deployctl CLI commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	catalogPath string
	historyDB   string
	verbose     bool

	appVersion = "dev"
)

var rootCmd = &cobra.Command{
	Use:           "deployctl",
	Short:         "deployctl — release services through the internal developer platform",
	Long:          "deployctl runs the platform release pipeline for a single service and environment: test, build, scan, deploy, verify, and roll back on failure.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "catalog-info.yaml", "service catalog file path")
	rootCmd.PersistentFlags().StringVar(&historyDB, "history-db", defaultHistoryDB(), "deployment history database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(historyCmd)
}

func defaultHistoryDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deployctl-history.db"
	}
	return filepath.Join(home, ".deployctl", "history.db")
}

// SetVersionInfo sets the version and commit for display.
func SetVersionInfo(version, commit string) {
	appVersion = version
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("deployctl %s (commit: %s)\n", version, commit))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
