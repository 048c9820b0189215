package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "openai", cfg.Embedding.Provider)
	require.True(t, cfg.Retrieval.Enabled)
	require.Equal(t, "llm-summary", cfg.Retrieval.QueryMethod)
	require.Equal(t, 5, cfg.Retrieval.Limit)
	require.Equal(t, 10, cfg.Journal.Frequency)
	require.Equal(t, 5*time.Second, cfg.Journal.PacingDelay)
	require.Equal(t, 2048, cfg.Context.TokenBudget)
	require.Equal(t, "local", cfg.Store.Backend)
	require.False(t, cfg.Rerank.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TALEWEAVE_RETRIEVAL_LIMIT", "9")
	t.Setenv("TALEWEAVE_EMBEDDING_PROVIDER", "ollama")
	t.Setenv("TALEWEAVE_RERANK_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 9, cfg.Retrieval.Limit)
	require.Equal(t, "ollama", cfg.Embedding.Provider)
	require.True(t, cfg.Rerank.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taleweave.yaml")
	body := []byte("retrieval:\n  query_method: hyde\n  limit: 3\nstore:\n  backend: postgres\n  postgres_dsn: postgres://localhost/taleweave\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "hyde", cfg.Retrieval.QueryMethod)
	require.Equal(t, 3, cfg.Retrieval.Limit)
	require.Equal(t, "postgres", cfg.Store.Backend)
	require.NotEmpty(t, cfg.Store.PostgresDSN)
	// Untouched keys keep their defaults.
	require.Equal(t, 10, cfg.Journal.Frequency)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
