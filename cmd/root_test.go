package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	require.True(t, rootCmd.HasSubCommands())

	want := map[string]bool{
		"chat":        false,
		"ask":         false,
		"serve":       false,
		"mcp":         false,
		"transcripts": false,
		"version":     false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "subcommand %s not registered", name)
	}
}

func TestTranscriptsShowRejectsBadID(t *testing.T) {
	err := runTranscriptsShow(transcriptsShowCmd, []string{"not-a-uuid"})
	assert.ErrorContains(t, err, "invalid session ID")
}

func TestFormatTime(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "just now", formatTime(now.Add(-30*time.Second)))
	assert.Equal(t, "5 minutes ago", formatTime(now.Add(-5*time.Minute)))
	assert.Equal(t, "3 hours ago", formatTime(now.Add(-3*time.Hour)))
	assert.Equal(t, "2 days ago", formatTime(now.Add(-48*time.Hour)))

	old := now.Add(-30 * 24 * time.Hour)
	assert.Equal(t, old.Format("2006-01-02 15:04"), formatTime(old))
}
