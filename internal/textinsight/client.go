package textinsight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/metrics"
	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var (
	ErrTextTooShort      = errors.New("text too short for analysis")
	ErrUnavailable       = errors.New("text insight service unavailable")
	ErrMalformedResponse = errors.New("malformed text insight response")

	// errCallerDone marks failures caused by the caller's own context.
	errCallerDone = errors.New("caller context done")
)

const (
	defaultModel           = openai.GPT4
	defaultTemperature     = 0.3
	defaultMaxTokens       = 1000
	defaultTimeout         = 30 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = time.Minute
	minTextLength          = 10
	breakerName            = "text-insight"
	systemPrompt           = "You are an expert training evaluation analyst. Respond with JSON only."
)

type Options struct {
	apiKey          string
	baseURL         string
	model           string
	temperature     float32
	maxTokens       int
	timeout         time.Duration
	breakerFailures uint32
	breakerTimeout  time.Duration
	httpClient      *http.Client
	logger          *zap.Logger
}

type Option func(*Options)

func WithAPIKey(key string) Option {
	return func(o *Options) { o.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.baseURL = url }
}

func WithModel(model string) Option {
	return func(o *Options) { o.model = model }
}

func WithTemperature(t float32) Option {
	return func(o *Options) { o.temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(o *Options) { o.maxTokens = n }
}

// WithTimeout bounds every Summarize call.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.timeout = d }
}

// WithBreaker opens the circuit after failures consecutive errors and keeps
// it open for openFor.
func WithBreaker(failures uint32, openFor time.Duration) Option {
	return func(o *Options) {
		o.breakerFailures = failures
		o.breakerTimeout = openFor
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) { o.httpClient = c }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// Client summarizes combined feedback text through the chat completions API.
// Calls are never retried; a failure is returned immediately so the caller
// can fall back.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker[analytics.TextInsight]
	logger      *zap.Logger
}

// New creates a Client. An API key is required.
func New(opts ...Option) (*Client, error) {
	options := &Options{
		model:           defaultModel,
		temperature:     defaultTemperature,
		maxTokens:       defaultMaxTokens,
		timeout:         defaultTimeout,
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
		logger:          zap.NewNop(),
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.apiKey == "" {
		return nil, fmt.Errorf("text insight api key cannot be empty")
	}
	if options.timeout <= 0 {
		options.timeout = defaultTimeout
	}
	if options.breakerFailures == 0 {
		options.breakerFailures = defaultBreakerFailures
	}

	cfg := openai.DefaultConfig(options.apiKey)
	if options.baseURL != "" {
		cfg.BaseURL = options.baseURL
	}
	if options.httpClient != nil {
		cfg.HTTPClient = options.httpClient
	}

	logger := options.logger.Named("text-insight")
	failures := options.breakerFailures

	breaker := gobreaker.NewCircuitBreaker[analytics.TextInsight](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     options.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A caller that gave up says nothing about the service's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerDone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.SetCircuitBreakerState(name, int(to))
		},
	})
	metrics.SetCircuitBreakerState(breakerName, int(gobreaker.StateClosed))

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       options.model,
		temperature: options.temperature,
		maxTokens:   options.maxTokens,
		timeout:     options.timeout,
		breaker:     breaker,
		logger:      logger,
	}, nil
}

// Summarize sends text for analysis. Errors wrap ErrTextTooShort,
// ErrUnavailable or ErrMalformedResponse.
func (c *Client) Summarize(ctx context.Context, text string) (analytics.TextInsight, error) {
	var zero analytics.TextInsight
	if len(strings.TrimSpace(text)) < minTextLength {
		return zero, ErrTextTooShort
	}

	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	insight, err := c.breaker.Execute(func() (analytics.TextInsight, error) {
		content, err := c.complete(callCtx, text)
		if err != nil {
			if ctx.Err() != nil {
				return zero, fmt.Errorf("%w: %w", errCallerDone, err)
			}
			return zero, err
		}
		return parseInsight(content)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMalformedResponse):
			c.logger.Warn("unparseable insight response", zap.Error(err))
			return zero, err
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			c.logger.Debug("circuit open, skipping call")
			return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
		default:
			c.logger.Warn("insight request failed",
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	insight.Confidence = confidence(text, insight)
	insight.Source = analytics.InsightSourceService

	c.logger.Debug("insight generated",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("sentiment", string(insight.Sentiment)))
	return insight, nil
}

func (c *Client) complete(ctx context.Context, text string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
