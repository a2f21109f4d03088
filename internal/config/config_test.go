package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperledger/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Host)
	assert.Equal(t, 120, cfg.LLM.TimeoutSecs)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, "remote", cfg.OCR.Backend)
	assert.Equal(t, 120*time.Second, cfg.OCR.Timeout())
	assert.Equal(t, time.Second, cfg.Queue.DequeueWait)
	assert.Equal(t, "local", cfg.Storage.Backend)

	// A synchronous reprocess runs both adapter calls inside one request.
	adapterBound := cfg.OCR.Timeout() + time.Duration(cfg.LLM.TimeoutSecs)*time.Second
	assert.Greater(t, cfg.Server.WriteTimeout, adapterBound)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAPERLEDGER_LLM_MODEL", "llama3")
	t.Setenv("PAPERLEDGER_LLM_HOST", "http://ollama:11434/")
	t.Setenv("PAPERLEDGER_OCR_BACKEND", "tesseract")
	t.Setenv("PAPERLEDGER_QUEUE_DEQUEUE_WAIT", "250ms")
	t.Setenv("PAPERLEDGER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.Host)
	assert.Equal(t, "tesseract", cfg.OCR.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.DequeueWait)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PortEnvFallback(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_RejectsUnknownStorageBackend(t *testing.T) {
	t.Setenv("PAPERLEDGER_STORAGE_BACKEND", "ftp")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{User: "u", Password: "p", Host: "h", Port: 5433, Name: "n", SSLMode: "disable"}

	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", db.DSN())
}
