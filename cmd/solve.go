package cmd

import (
	"fmt"

	"github.com/abhisek/smartmath/internal/capture"
	"github.com/abhisek/smartmath/internal/llm"
	"github.com/abhisek/smartmath/internal/solver"
	"github.com/abhisek/smartmath/internal/store"
	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve <image>",
	Short: "Solve the problem in a photo and print the shareable text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		logger, closer, err := setupLogging(dbPath, false)
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
		defer closer.Close()

		img, err := capture.LoadFile(args[0])
		if err != nil {
			return fmt.Errorf("load image: %w", err)
		}

		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		provider, err := llm.NewProviderFromEnv(ctx, s.EventRepo())
		if err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}

		sol, err := solver.New(provider, solver.DefaultConfig(), logger).RecognizeAndSolve(ctx, img)
		if err != nil {
			return fmt.Errorf("recognize: %w", err)
		}
		if sol.IsSentinel() {
			fmt.Println("Не открих задача на снимката.")
			return nil
		}

		fmt.Print(sol.PlainText())
		return nil
	},
}
