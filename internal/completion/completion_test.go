package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostrag/internal/config"
	"gostrag/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	t.Setenv("TEST_LLM_KEY", "test-key")
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewOpenAI(config.LLMConfig{
		APIKeyEnv:   "TEST_LLM_KEY",
		BaseURL:     srv.URL,
		Model:       "anthropic/claude-3.5-sonnet",
		Temperature: 0.1,
		MaxTokens:   256,
		TimeoutSecs: 5,
	})
	require.NoError(t, err)
	return c
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "")
	_, err := NewOpenAI(config.LLMConfig{APIKeyEnv: "TEST_LLM_KEY"})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "anthropic/claude-3.5-sonnet", req["model"])
		msgs := req["messages"].([]any)
		require.Len(t, msgs, 1)
		assert.Equal(t, "user", msgs[0].(map[string]any)["role"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "235 MPa"}},
			},
		})
	})

	out, err := c.Complete(context.Background(), "What is the yield strength of C235?")
	require.NoError(t, err)
	assert.Equal(t, "235 MPa", out)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", c.Model())
}

func TestCompleteNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})
	_, err := c.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestCompleteUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})
	_, err := c.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrConnection)
}
