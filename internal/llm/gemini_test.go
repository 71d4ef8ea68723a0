package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewGeminiClient(GeminiConfig{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		Timeout:      2 * time.Second,
		RetryBackoff: time.Millisecond,
	}, logger)
}

const okBody = `{"candidates":[{"content":{"role":"model","parts":[{"text":"Grande atuação "},{"text":"de Messi."}]},"finishReason":"STOP"}],
"usageMetadata":{"promptTokenCount":120,"candidatesTokenCount":8}}`

func TestGemini_Generate(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Resuma a partida", req.Contents[0].Parts[0].Text)
		assert.Equal(t, 0.3, req.GenerationConfig.Temperature)
		assert.Equal(t, 500, req.GenerationConfig.MaxOutputTokens)
		assert.Equal(t, 0.95, req.GenerationConfig.TopP)
		assert.Equal(t, 40, req.GenerationConfig.TopK)

		w.Write([]byte(okBody))
	})

	text, err := client.Generate(context.Background(), "Resuma a partida", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Grande atuação de Messi.", text)
	assert.True(t, client.IsHealthy())
}

func TestGemini_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
			return
		}
		w.Write([]byte(okBody))
	})

	text, err := client.Generate(context.Background(), "p", DefaultOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGemini_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := client.Generate(context.Background(), "p", DefaultOptions())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "API key not valid", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGemini_EmptyCandidates(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  "}]},"finishReason":"MAX_TOKENS"}]}`))
	})

	_, err := client.Generate(context.Background(), "p", DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestGemini_BlockedPrompt(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := client.Generate(context.Background(), "p", DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyCompletion)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGemini_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.cfg.RetryAttempts = 1

	for i := 0; i < 4; i++ {
		_, err := client.Generate(context.Background(), "p", DefaultOptions())
		require.Error(t, err)
	}
	assert.False(t, client.IsHealthy())

	before := calls.Load()
	_, err := client.Generate(context.Background(), "p", DefaultOptions())
	assert.Error(t, err)
	assert.Equal(t, before, calls.Load())
}

func TestGemini_TimeoutSurfacesAsDeadline(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.cfg.Timeout = 50 * time.Millisecond
	client.cfg.RetryAttempts = 1

	start := time.Now()
	_, err := client.Generate(context.Background(), "p", DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// a tighter caller deadline wins over the configured timeout
	client.cfg.Timeout = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Generate(ctx, "p", DefaultOptions())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
