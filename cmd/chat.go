package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/strictqa/strictqa/internal/app"
	"github.com/strictqa/strictqa/internal/config"
	"github.com/strictqa/strictqa/internal/session"
	"github.com/strictqa/strictqa/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start interactive chat mode",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// runChat initializes the application and starts the Bubble Tea TUI.
func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	sessionID := a.Pipeline.StartSession()

	model, err := tui.New(ctx, a.Pipeline, sessionID)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}
	program := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err = program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}

	// Ctrl+D or a signal leaves the session open; persist what we have.
	if !model.Closed() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := a.Pipeline.CloseSession(closeCtx, sessionID); err != nil &&
			!errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrClosed) {
			logger.Warn("persisting transcript on exit", "session_id", sessionID, "error", err)
		}
	}
	return nil
}
