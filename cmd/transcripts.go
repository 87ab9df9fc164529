package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/strictqa/strictqa/internal/config"
	"github.com/strictqa/strictqa/internal/transcript"
)

var transcriptsLimit int32

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "Inspect persisted conversation transcripts",
}

var transcriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transcripts, most recently updated first",
	RunE:  runTranscriptsList,
}

var transcriptsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the full turn sequence of one transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscriptsShow,
}

func init() {
	transcriptsListCmd.Flags().Int32Var(&transcriptsLimit, "limit", 50, "maximum number of transcripts to list")
	transcriptsCmd.AddCommand(transcriptsListCmd)
	transcriptsCmd.AddCommand(transcriptsShowCmd)
	rootCmd.AddCommand(transcriptsCmd)
}

// openTranscriptStore connects a pool for read-only transcript access.
// No AI provider is initialized for these commands.
func openTranscriptStore(ctx context.Context) (*transcript.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	store := transcript.NewStore(transcript.NewQueries(pool), slog.Default())
	return store, pool.Close, nil
}

func runTranscriptsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, cleanup, err := openTranscriptStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	transcripts, err := store.List(ctx, transcriptsLimit)
	if err != nil {
		return fmt.Errorf("listing transcripts: %w", err)
	}

	if len(transcripts) == 0 {
		fmt.Println("No transcripts found.")
		return nil
	}

	for _, tr := range transcripts {
		fmt.Printf("%s  %2d turns  updated %s\n",
			tr.SessionID, len(tr.Turns), formatTime(tr.UpdatedAt))
	}
	return nil
}

func runTranscriptsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sessionID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid session ID: %s", args[0])
	}

	store, cleanup, err := openTranscriptStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	tr, err := store.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("getting transcript: %w", err)
	}

	fmt.Printf("Session ID: %s\n", tr.SessionID)
	fmt.Printf("Created: %s\n", formatTime(tr.CreatedAt))
	fmt.Printf("Updated: %s\n", formatTime(tr.UpdatedAt))
	fmt.Printf("Turns: %d\n", len(tr.Turns))
	fmt.Println()

	for _, turn := range tr.Turns {
		fmt.Printf("You> %s\n", turn.Query)
		fmt.Printf("Bot> %s\n", turn.Answer)
		fmt.Println()
	}
	return nil
}

// formatTime formats time in a human-readable relative format.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
