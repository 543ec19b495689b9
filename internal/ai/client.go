package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"fitweek/planner/internal/apperrors"
)

// TextGenerator issues one text-generation call and returns the raw response
// text. Implementations enforce their own timeouts; callers only see typed
// errors from the apperrors taxonomy.
type TextGenerator interface {
	// Generate issues a plan generation/modification call (long timeout).
	Generate(ctx context.Context, prompt string) (string, error)
	// Chat issues a lightweight conversational call (short timeout).
	Chat(ctx context.Context, prompt string) (string, error)
}

// ClientConfig holds the knobs for the Gemini adapter.
type ClientConfig struct {
	APIKey            string
	Model             string
	GenerationTimeout time.Duration // plan generation and modification calls
	ChatTimeout       time.Duration // lightweight chat calls
	MaxAttempts       int
	RetryBaseDelay    time.Duration
}

// Client adapts the Gemini SDK to the TextGenerator interface. Every call
// acquires a token from the shared rate limiter before dispatch, and the
// whole call (token included) sits under the retry policy.
type Client struct {
	model   *genai.GenerativeModel
	closer  interface{ Close() error }
	limiter *TokenBucket
	retry   retryPolicy

	generationTimeout time.Duration
	chatTimeout       time.Duration
}

// NewClient builds the Gemini adapter. The limiter is shared with any other
// AI call site the caller wires up.
func NewClient(ctx context.Context, cfg ClientConfig, limiter *TokenBucket) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.KindInvalidAPIKey, "An AI API key is required.")
	}
	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindUnknown, "Failed to initialise the AI client.")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &Client{
		model:             genaiClient.GenerativeModel(model),
		closer:            genaiClient,
		limiter:           limiter,
		retry:             newRetryPolicy(cfg.MaxAttempts, cfg.RetryBaseDelay),
		generationTimeout: cfg.GenerationTimeout,
		chatTimeout:       cfg.ChatTimeout,
	}, nil
}

// Close releases the underlying SDK connection.
func (c *Client) Close() error {
	return c.closer.Close()
}

// Generate issues one generation call bounded by the generation timeout.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, "generate", prompt, c.generationTimeout)
}

// Chat issues one lightweight call bounded by the chat timeout.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, "chat", prompt, c.chatTimeout)
}

func (c *Client) call(ctx context.Context, op, prompt string, timeout time.Duration) (string, error) {
	var text string
	err := c.retry.do(ctx, op, func(ctx context.Context) error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return apperrors.Wrap(err, apperrors.KindTimeout, "The request was cancelled while waiting for the rate limiter.")
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := c.model.GenerateContent(callCtx, genai.Text(prompt))
		if err != nil {
			return classifyGenaiError(err)
		}

		extracted, err := extractText(resp)
		if err != nil {
			return err
		}
		text = extracted
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// extractText pulls the first candidate's text, failing with typed errors on
// safety-filtered or empty responses.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apperrors.New(apperrors.KindInvalidResponse, "The AI service returned an empty response.")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", apperrors.New(apperrors.KindContentFiltered, "The AI response was blocked by the safety filter.")
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", apperrors.New(apperrors.KindInvalidResponse, "The AI service returned no content.")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", apperrors.New(apperrors.KindInvalidResponse, "The AI service returned empty text.")
	}
	return text, nil
}

// classifyGenaiError maps SDK and transport failures onto the error taxonomy
// so the retry policy can tell transient from permanent failures.
func classifyGenaiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.KindTimeout, "The AI service took too long to respond.")
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.Wrap(err, apperrors.KindTimeout, "The AI request was cancelled.")
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 429:
			return apperrors.Wrap(err, apperrors.KindRateLimited, "The AI service is rate limiting requests.")
		case gerr.Code == 401 || gerr.Code == 403:
			return apperrors.Wrap(err, apperrors.KindInvalidAPIKey, "The AI API key was rejected.")
		case gerr.Code >= 500:
			return apperrors.Wrap(err, apperrors.KindServerError, "The AI service is unavailable.")
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "api key") {
		return apperrors.Wrap(err, apperrors.KindInvalidAPIKey, "The AI API key was rejected.")
	}
	if strings.Contains(msg, "connection") || strings.Contains(msg, "no such host") {
		return apperrors.Wrap(err, apperrors.KindNoConnection, "Could not reach the AI service.")
	}
	return apperrors.Wrap(err, apperrors.KindUnknown, "The AI request failed.")
}
