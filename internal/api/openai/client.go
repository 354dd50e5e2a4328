package openai

import (
	"context"
	"errors"
	"time"

	"github.com/Alias1177/MatchScout/internal/metrics"
	httpClient "github.com/Alias1177/MatchScout/internal/platform/http"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the model answers with no choices.
var ErrEmptyCompletion = errors.New("language model returned no choices")

const systemPrompt = "You are a professional football analyst. Be concise and concrete."

// Client wraps an OpenAI-compatible chat completion API
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds a single attempt; the whole call may take one Timeout
	// per attempt plus the backoff between them.
	Timeout time.Duration

	RequestsPerSec float64
	MaxRetries     int
	// InitialBackoff is the first retry delay; zero keeps the transport default.
	InitialBackoff time.Duration
}

// NewClient creates a client that talks to any OpenAI-compatible endpoint
// through the rate limited, retrying transport.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	budget := callBudget(opts.Timeout, opts.MaxRetries)
	cfg.HTTPClient = httpClient.NewClient(httpClient.ClientOptions{
		Timeout:         opts.Timeout,
		RequestsPerSec:  opts.RequestsPerSec,
		MaxRetries:      opts.MaxRetries,
		InitialInterval: opts.InitialBackoff,
		MaxRetryTimeout: budget,
	})

	return &Client{
		client:  openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		timeout: budget,
		logger:  log.With().Str("component", "llm_client").Str("model", opts.Model).Logger(),
	}
}

// callBudget is one attempt timeout per try plus half of it again for the
// backoff waits.
func callBudget(attempt time.Duration, maxRetries int) time.Duration {
	if maxRetries < 0 {
		maxRetries = 0
	}
	tries := time.Duration(maxRetries + 1)
	return attempt*tries + attempt/2
}

// GenerateCompletion sends a prompt and returns the completion text
func (c *Client) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug().Int("prompt_len", len(prompt)).Msg("Sending prompt")
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	metrics.LLMDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		c.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Language model API error")
		return "", err
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequests.WithLabelValues("empty").Inc()
		c.logger.Warn().Msg("Language model returned empty choices")
		return "", ErrEmptyCompletion
	}

	metrics.LLMRequests.WithLabelValues("ok").Inc()
	c.logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("Completion received")
	return resp.Choices[0].Message.Content, nil
}
