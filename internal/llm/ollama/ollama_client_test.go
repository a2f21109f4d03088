package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperledger/internal/config"
	"paperledger/internal/llm"
	"paperledger/internal/llm/ollama"
)

func newClient(host string) *ollama.Client {
	return ollama.NewClient(&config.LLMConfig{
		Host:        host,
		Model:       "mistral",
		TimeoutSecs: 5,
		Temperature: 0.1,
		MaxTokens:   2000,
	})
}

func TestExtract_Success(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"response": `{"merchant":"Carrefour"}`, "done": true})
	}))
	defer server.Close()

	raw, err := newClient(server.URL).Extract(context.Background(), "CARREFOUR", []string{"Food"})

	require.NoError(t, err)
	assert.Equal(t, `{"merchant":"Carrefour"}`, raw)
	assert.Equal(t, "mistral", got["model"])
	assert.Equal(t, false, got["stream"])
	assert.Contains(t, got["prompt"], "AVAILABLE TAGS: Food")
	opts := got["options"].(map[string]interface{})
	assert.InDelta(t, 0.1, opts["temperature"], 1e-9)
	assert.Equal(t, float64(2000), opts["num_predict"])
}

func TestExtract_EmptyInputMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	_, err := newClient(server.URL).Extract(context.Background(), "  \n\t ", nil)

	assert.True(t, llm.IsReason(err, llm.ReasonEmptyInput))
	assert.Equal(t, int32(0), calls.Load())
}

func TestExtract_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'mistral' not found"}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Extract(context.Background(), "text", nil)

	var le *llm.Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, llm.ReasonStatus, le.Reason)
	assert.Equal(t, http.StatusNotFound, le.StatusCode)
	assert.Contains(t, err.Error(), "not found")
}

func TestExtract_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newClient(server.URL).Extract(context.Background(), "text", nil)

	assert.True(t, llm.IsReason(err, llm.ReasonEmptyResponse))
}

func TestExtract_EmptyResponseField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":"   ","done":true}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Extract(context.Background(), "text", nil)

	assert.True(t, llm.IsReason(err, llm.ReasonEmptyResponse))
}

func TestExtract_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>proxy error</html>`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Extract(context.Background(), "text", nil)

	assert.True(t, llm.IsReason(err, llm.ReasonInvalidResponse))
}

func TestExtract_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(server.URL).Extract(ctx, "text", nil)

	assert.True(t, llm.IsReason(err, llm.ReasonTimeout), "got %v", err)
}

func TestExtract_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	host := server.URL
	server.Close()

	_, err := newClient(host).Extract(context.Background(), "text", nil)

	assert.True(t, llm.IsReason(err, llm.ReasonNetwork), "got %v", err)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, newClient(server.URL).Ping(context.Background()))
}

func TestNew_RegisteredAsOllama(t *testing.T) {
	ext, err := llm.New(&config.LLMConfig{Provider: "ollama", Host: "http://localhost:11434"})

	require.NoError(t, err)
	assert.Equal(t, "mistral", ext.Model())
}
