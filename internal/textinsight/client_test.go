package textinsight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const feedbackText = "Participant 1: The labs were great and the trainer explained clearly."

func completionServer(t *testing.T, hits *atomic.Int32, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func reply(content string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

func fail(status int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL + "/v1"),
		WithLogger(zaptest.NewLogger(t)),
	}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

// TestNew tests client construction.
func TestNew(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := New()
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		c, err := New(WithAPIKey("k"), WithTimeout(0))
		require.NoError(t, err)
		assert.Equal(t, defaultTimeout, c.timeout)
		assert.Equal(t, defaultModel, c.model)
	})
}

// TestSummarize tests calls against a fake completions endpoint.
func TestSummarize(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := completionServer(t, nil, reply(validReply))
		c := newTestClient(t, srv)

		got, err := c.Summarize(context.Background(), feedbackText)

		require.NoError(t, err)
		assert.Equal(t, analytics.InsightSourceService, got.Source)
		assert.Equal(t, analytics.SentimentPositive, got.Sentiment)
		assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	})

	t.Run("sends prompt with text", func(t *testing.T) {
		var body string
		srv := completionServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if len(req.Messages) == 2 {
				body = req.Messages[1].Content
			}
			reply(validReply)(w, r)
		})
		c := newTestClient(t, srv, WithModel("custom-model"))

		_, err := c.Summarize(context.Background(), feedbackText)

		require.NoError(t, err)
		assert.Contains(t, body, "labs were great")
	})

	t.Run("malformed reply", func(t *testing.T) {
		srv := completionServer(t, nil, reply("not json at all"))
		c := newTestClient(t, srv)

		_, err := c.Summarize(context.Background(), feedbackText)

		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("missing key", func(t *testing.T) {
		srv := completionServer(t, nil, reply(`{"summary":"ok","sentiment":"positive"}`))
		c := newTestClient(t, srv)

		_, err := c.Summarize(context.Background(), feedbackText)

		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("server error", func(t *testing.T) {
		srv := completionServer(t, nil, fail(http.StatusInternalServerError))
		c := newTestClient(t, srv)

		_, err := c.Summarize(context.Background(), feedbackText)

		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := completionServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		c := newTestClient(t, srv, WithTimeout(50*time.Millisecond))

		_, err := c.Summarize(context.Background(), feedbackText)

		require.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("short text skips the call", func(t *testing.T) {
		var hits atomic.Int32
		srv := completionServer(t, &hits, reply(validReply))
		c := newTestClient(t, srv)

		_, err := c.Summarize(context.Background(), "  ok  ")

		assert.ErrorIs(t, err, ErrTextTooShort)
		assert.Zero(t, hits.Load())
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		var hits atomic.Int32
		srv := completionServer(t, &hits, fail(http.StatusInternalServerError))
		c := newTestClient(t, srv, WithBreaker(2, time.Minute))

		for range 2 {
			_, err := c.Summarize(context.Background(), feedbackText)
			require.ErrorIs(t, err, ErrUnavailable)
		}
		_, err := c.Summarize(context.Background(), feedbackText)

		assert.ErrorIs(t, err, ErrUnavailable)
		assert.True(t, strings.Contains(err.Error(), "circuit breaker is open"))
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("cancelled callers do not open the breaker", func(t *testing.T) {
		var hits atomic.Int32
		srv := completionServer(t, &hits, reply(validReply))
		c := newTestClient(t, srv, WithBreaker(2, time.Minute))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		for range 5 {
			_, err := c.Summarize(ctx, feedbackText)
			require.ErrorIs(t, err, context.Canceled)
		}

		got, err := c.Summarize(context.Background(), feedbackText)
		require.NoError(t, err)
		assert.Equal(t, analytics.SentimentPositive, got.Sentiment)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("caller deadline mid-call is not a service failure", func(t *testing.T) {
		var slow atomic.Bool
		slow.Store(true)
		srv := completionServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
			if slow.Load() {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
				return
			}
			reply(validReply)(w, r)
		})
		c := newTestClient(t, srv, WithBreaker(1, time.Minute), WithTimeout(5*time.Second))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_, err := c.Summarize(ctx, feedbackText)
		require.ErrorIs(t, err, ErrUnavailable)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		slow.Store(false)
		_, err = c.Summarize(context.Background(), feedbackText)
		assert.NoError(t, err)
	})
}
