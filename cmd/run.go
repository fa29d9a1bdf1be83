package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/abhisek/smartmath/internal/app"
	"github.com/abhisek/smartmath/internal/capture"
	"github.com/abhisek/smartmath/internal/llm"
	"github.com/abhisek/smartmath/internal/profile"
	"github.com/abhisek/smartmath/internal/solver"
	"github.com/abhisek/smartmath/internal/store"
	"github.com/spf13/cobra"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}

	logger, closer, err := setupLogging(dbPath, true)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closer.Close()

	storage := openAppStorage(dbPath, logger)
	defer storage.close()

	opts := app.Options{
		Profiles:     profile.NewStore(storage.prefs, logger),
		CameraOpener: capture.V4L2Opener(capture.V4L2ConfigFromEnv()),
		InboxDir:     os.Getenv("SMARTMATH_INBOX"),
		Logger:       logger,
	}

	provider, err := llm.NewProviderFromEnv(ctx, storage.events)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Recognition and the tutor will be unavailable.")
		logger.Warn("llm provider not configured", "error", err)
	} else {
		client := solver.New(provider, solver.DefaultConfig(), logger)
		opts.Recognizer = client
		opts.Chatter = client
		logger.Info("llm provider ready", "model", provider.ModelID())
	}

	return app.Run(opts)
}

// appStorage is what the TUI needs from the database.
type appStorage struct {
	prefs  store.PreferenceRepo
	events store.EventRepo
	close  func() error
}

// openAppStorage opens the database for the TUI. A database that cannot be
// opened is not fatal: the session keeps preferences in memory and records
// no LLM events.
func openAppStorage(dbPath string, logger *slog.Logger) appStorage {
	st, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Database unavailable, settings will not be saved:", err)
		logger.Warn("storage unavailable, using in-memory preferences", "path", dbPath, "error", err)
		return appStorage{
			prefs: store.NewMemoryPreferenceRepo(),
			close: func() error { return nil },
		}
	}
	return appStorage{prefs: st.PreferenceRepo(), events: st.EventRepo(), close: st.Close}
}
