package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

// Validation sentinel errors.
var (
	ErrUnknownProvider    = errors.New("unknown AI provider")
	ErrMissingAPIKey      = errors.New("missing API key")
	ErrMissingModelName   = errors.New("model name is required")
	ErrInvalidRetrievalK  = errors.New("retrieval_k out of range")
	ErrInvalidTurnTimeout = errors.New("turn_timeout_seconds must be positive")
	ErrInvalidPostgres    = errors.New("invalid postgres configuration")
	ErrInvalidDatabaseURL = errors.New("invalid DATABASE_URL")
)

var validProviders = []string{ProviderGemini, ProviderGoogleAI, ProviderOllama, ProviderOpenAI}

// Validate checks the configuration for consistency. It fails fast on the
// first problem so startup errors point at one concrete fix.
func (c *Config) Validate() error {
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q (valid: %v)", ErrUnknownProvider, c.Provider, validProviders)
	}

	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
		if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			return fmt.Errorf("%w: set GEMINI_API_KEY or GOOGLE_API_KEY", ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
		}
	}

	if c.ModelName == "" {
		return ErrMissingModelName
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder", ErrMissingModelName)
	}

	if c.RetrievalK < 1 || c.RetrievalK > MaxRetrievalK {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidRetrievalK, c.RetrievalK, MaxRetrievalK)
	}
	if c.TurnTimeoutSeconds < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidTurnTimeout, c.TurnTimeoutSeconds)
	}

	if c.PostgresHost == "" || c.PostgresDBName == "" {
		return fmt.Errorf("%w: host and database name are required", ErrInvalidPostgres)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidPostgres, c.PostgresPort)
	}

	return nil
}

// maskSecret hides all but the edges of a secret value for log output.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}

// MarshalJSON masks the database password so a dumped Config never leaks it.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(c)
	masked.PostgresPassword = maskSecret(c.PostgresPassword)
	return json.Marshal(masked)
}
