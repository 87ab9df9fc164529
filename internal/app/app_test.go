package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strictqa/strictqa/internal/config"
	"github.com/strictqa/strictqa/internal/log"
)

func TestCloseOnEmptyAppIsSafe(t *testing.T) {
	a := &App{}
	assert.NoError(t, a.Close())
}

func TestCloseRunsTracingCleanup(t *testing.T) {
	var ran bool
	a := &App{otelCleanup: func() { ran = true }}
	require.NoError(t, a.Close())
	assert.True(t, ran)
}

func TestProvideOtelShutdownDisabledWithoutEndpoint(t *testing.T) {
	cfg := &config.Config{}

	cleanup := provideOtelShutdown(context.Background(), cfg, log.NewNop())

	require.NotNil(t, cleanup)
	cleanup() // must be a safe no-op
}
