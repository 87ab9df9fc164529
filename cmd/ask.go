package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/strictqa/strictqa/internal/app"
	"github.com/strictqa/strictqa/internal/config"
)

var askNoSave bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoSave, "no-save", false, "do not persist the one-turn transcript")
	rootCmd.AddCommand(askCmd)
}

// runAsk answers one question in a throwaway session. The transcript is
// persisted at close unless --no-save is given.
func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	sessionID := a.Pipeline.StartSession()

	res, err := a.Pipeline.HandleTurn(ctx, sessionID, question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(res.Answer)

	// A termination keyword as the question already closed and persisted.
	if askNoSave || res.Closed {
		return nil
	}
	if err := a.Pipeline.CloseSession(ctx, sessionID); err != nil {
		return fmt.Errorf("persisting transcript: %w", err)
	}
	return nil
}
