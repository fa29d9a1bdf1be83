package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/abhisek/smartmath/internal/logging"
	"github.com/abhisek/smartmath/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smartmath",
	Short: "Photo-to-solution math helper with an AI tutor",
	Long:  "SmartMath: snap or upload a photo of a math problem, get a step-by-step solution in Bulgarian and ask an AI tutor about it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SMARTMATH_DB env var)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then SMARTMATH_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore resolves the database path and opens it.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// setupLogging installs the default logger. The TUI logs next to the
// database since the terminal is taken; other commands log to stderr.
func setupLogging(dbPath string, tui bool) (*slog.Logger, io.Closer, error) {
	defaultFile := ""
	if tui {
		defaultFile = filepath.Join(filepath.Dir(dbPath), "smartmath.log")
	}
	return logging.Setup(logging.ConfigFromEnv(defaultFile))
}
