package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/agora-backend/internal/domain"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

// Client issues single agent calls against the OpenAI chat completions API.
// Retry/backoff lives here; callers see only the final content or a final error.
type Client struct {
	log         *logger.Logger
	api         *goopenai.Client
	model       string
	maxRetries  int
	baseBackoff time.Duration
}

func NewClient(log *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	}

	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = goopenai.GPT4o
	}

	maxRetries := 4
	if v := strings.TrimSpace(os.Getenv("OPENAI_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &Client{
		log:         log.With("service", "OpenAIClient"),
		api:         goopenai.NewClientWithConfig(cfg),
		model:       model,
		maxRetries:  maxRetries,
		baseBackoff: time.Second,
	}, nil
}

func (c *Client) modelFor(agent *domain.DebateAgent) string {
	if agent != nil && strings.TrimSpace(agent.ModelName) != "" {
		return agent.ModelName
	}
	return c.model
}

// Complete runs one non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, agent *domain.DebateAgent, system, user string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:    c.modelFor(agent),
		Messages: chatMessages(system, user),
	}

	var content string
	err := c.withRetries(ctx, "chat.completions", func() error {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("openai returned no choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// Stream runs one streaming chat completion, invoking onToken for each delta
// in generation order, and returns the accumulated content.
func (c *Client) Stream(ctx context.Context, agent *domain.DebateAgent, system, user string, onToken func(token string)) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:    c.modelFor(agent),
		Messages: chatMessages(system, user),
	}

	var out strings.Builder
	err := c.withRetries(ctx, "chat.completions.stream", func() error {
		out.Reset()
		stream, err := c.api.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return err
		}
		defer stream.Close()

		delivered := false
		for {
			resp, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				return nil
			}
			if recvErr != nil {
				if delivered {
					// Tokens already left the building; a retry would replay them.
					return &fatalError{err: recvErr}
				}
				return recvErr
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			delivered = true
			out.WriteString(delta)
			if onToken != nil {
				onToken(delta)
			}
		}
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// CompleteJSON requests a JSON object response and unmarshals it into out.
func (c *Client) CompleteJSON(ctx context.Context, agent *domain.DebateAgent, system, user string, out any) error {
	req := goopenai.ChatCompletionRequest{
		Model:    c.modelFor(agent),
		Messages: chatMessages(system, user),
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	return c.withRetries(ctx, "chat.completions.json", func() error {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("openai returned no choices")
		}
		raw := strings.TrimSpace(resp.Choices[0].Message.Content)
		if uErr := json.Unmarshal([]byte(raw), out); uErr != nil {
			return &fatalError{err: fmt.Errorf("openai json decode: %w; raw=%s", uErr, raw)}
		}
		return nil
	})
}

func chatMessages(system, user string) []goopenai.ChatCompletionMessage {
	msgs := make([]goopenai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: user,
	})
	return msgs
}

// fatalError marks an error that must not be retried regardless of its cause.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func (c *Client) withRetries(ctx context.Context, op string, fn func() error) error {
	backoff := c.baseBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}

		var fatal *fatalError
		if errors.As(err, &fatal) {
			return fatal.err
		}
		if !isRetryable(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := jitter(backoff)
		c.log.Warn("OpenAI request retrying",
			"op", op,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepFor):
		}

		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return isRetryableHTTP(apiErr.HTTPStatusCode)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return isRetryableHTTP(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

// jitter spreads retries +/- 20% around the base delay.
func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}
