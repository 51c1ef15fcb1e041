// Package llm calls a generative text model through an OpenAI-compatible chat endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/preston-bernstein/mlb-data-service/internal/logging"
	"github.com/preston-bernstein/mlb-data-service/internal/providers"
)

const (
	providerName       = "generator"
	DefaultModel       = "gemini-1.5-flash"
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	HTTPClient  *http.Client
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *slog.Logger
}

// Client retries model 429s with 2^n * BaseDelay waits and gives up with a RateLimitError.
type Client struct {
	api         openai.Client
	model       string
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
	sleep       func(context.Context, time.Duration) error
}

func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := cfg.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}
	return &Client{
		api:         openai.NewClient(opts...),
		model:       model,
		maxAttempts: attempts,
		baseDelay:   delay,
		logger:      cfg.Logger,
		sleep:       sleepContext,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		resp, err := c.api.Chat.Completions.New(ctx, params)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", ErrEmptyResponse
			}
			return resp.Choices[0].Message.Content, nil
		}
		if !isRateLimited(err) {
			return "", fmt.Errorf("llm: generate: %w", err)
		}

		if attempt == c.maxAttempts-1 {
			break
		}
		wait := c.baseDelay << attempt
		logging.Warn(c.logger, "model rate limited, retrying",
			logging.FieldProvider, providerName,
			logging.FieldAttempt, attempt+1,
			"wait_ms", wait.Milliseconds(),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", &providers.RateLimitError{
		Provider:   providerName,
		StatusCode: http.StatusTooManyRequests,
		RetryAfter: time.Minute,
		Message:    "Rate limit reached after multiple retries.",
	}
}

func isRateLimited(err error) bool {
	var apiErr *openai.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
