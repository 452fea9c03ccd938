package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *openAIAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var cfg config.Config
	cfg.LLM.BaseURL = srv.URL + "/v1"
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.Temperature = 0.5

	svc, err := NewOpenAIAdapter(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	return svc.(*openAIAdapter)
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "gpt-4o-mini",
		"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
	}
}

func TestGenerateChatResponse(t *testing.T) {
	var got map[string]any
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("  <p>Better text</p>\n"))
	})

	out, err := a.GenerateChatResponse(context.Background(), "rewrite this")
	require.NoError(t, err)
	assert.Equal(t, "<p>Better text</p>", out)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.5, got["temperature"], 0.001)
}

func TestGenerateChatResponse_Empty(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("   "))
	})

	_, err := a.GenerateChatResponse(context.Background(), "rewrite this")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.ErrorIs(t, err, apperror.ErrUpstream)
	assert.Equal(t, MsgEmptyResponse, appErr.Message)
}

func TestGenerateChatResponse_APIErrorMessagePassesThrough(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Rate limit reached", "type": "requests"},
		})
	})

	_, err := a.GenerateChatResponse(context.Background(), "rewrite this")

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Rate limit reached", appErr.Message)
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestNewOpenAIAdapter_RequiresKey(t *testing.T) {
	_, err := NewOpenAIAdapter(config.Config{}, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.GenerateChatResponse(context.Background(), "rewrite this")

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, MsgNoResponse, appErr.Message)
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}
