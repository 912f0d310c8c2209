package genai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"mentorhub/internal/status"
	"mentorhub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func textResponse(text string) string {
	data, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(data)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, DefaultModel, c.cfg.Model)
	assert.NotNil(t, c.cfg.Breaker)
}

func TestGenerate_Text(t *testing.T) {
	var body []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		body, _ = io.ReadAll(r.Body)
		io.WriteString(w, textResponse("  Focus on NCERT first.  "))
	})

	res, err := c.Generate(context.Background(), "How do I start?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Focus on NCERT first.", res.Text)
	assert.Nil(t, res.JSON)
	assert.Equal(t, "How do I start?", gjson.GetBytes(body, "contents.0.parts.0.text").String())
	assert.False(t, gjson.GetBytes(body, "generationConfig").Exists())
}

func TestGenerate_JSON(t *testing.T) {
	var body []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		io.WriteString(w, textResponse("```json\n{\"recommendations\":[{\"career\":\"Pilot\"}]}\n```"))
	})

	schema := map[string]any{"type": "object"}
	res, err := c.Generate(context.Background(), "recommend", schema)
	require.NoError(t, err)
	assert.Equal(t, "Pilot", gjson.GetBytes(res.JSON, "recommendations.0.career").String())
	assert.Equal(t, "application/json", gjson.GetBytes(body, "generationConfig.responseMimeType").String())
	assert.Equal(t, "object", gjson.GetBytes(body, "generationConfig.responseSchema.type").String())
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		schema  map[string]any
		message string
	}{
		{"api error", http.StatusBadRequest, `{"error":{"message":"API key not valid"}}`, nil, "API key not valid"},
		{"plain error", http.StatusBadGateway, `upstream broke`, nil, "upstream broke"},
		{"blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, nil, "SAFETY"},
		{"no text", http.StatusOK, `{"candidates":[{"finishReason":"MAX_TOKENS"}]}`, nil, "MAX_TOKENS"},
		{"invalid json", http.StatusOK, textResponse("not json at all"), map[string]any{"type": "object"}, "not valid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.Generate(context.Background(), "prompt", tt.schema)
			require.Error(t, err)
			assert.ErrorIs(t, err, status.ErrGeneration)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	c, err := New(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, status.ErrGeneration)
}

func TestGenerate_HidesKeyOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := New(Config{APIKey: "secret-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestGenerate_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	breaker := utils.NewCircuitBreaker("genai-test", utils.BreakerSettings{MinRequests: 2, FailureRatio: 0.5})
	c, err := New(Config{APIKey: "k", BaseURL: srv.URL, Breaker: breaker})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := c.Generate(context.Background(), "prompt", nil)
		require.Error(t, err)
	}
	assert.Equal(t, utils.StateOpen, breaker.State())

	_, err = c.Generate(context.Background(), "prompt", nil)
	assert.ErrorIs(t, err, status.ErrGeneration)
	assert.True(t, strings.Contains(err.Error(), utils.ErrCircuitOpen.Error()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("```\n{\"a\":1}```"))
	assert.Equal(t, `[1]`, stripFence("  [1] "))
}
