package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"ai-patient/pkg"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// ErrMissingAPIKey is returned when the client is constructed without a
// credential.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY must be set")

// Params are the sampling parameters of a single completion call.
type Params struct {
	MaxTokens   int
	Temperature float32
}

// Client is the completion capability used by the services.  messages
// holds the system prompt followed by the conversation turns.
type Client interface {
	Complete(ctx context.Context, messages []pkg.Message, params Params) (string, error)
}

// Config configures an OpenAIClient.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. for an OpenAI-compatible proxy.
	BaseURL string
	Model   string
	// Timeout bounds each call.  Zero leaves only the caller's context.
	Timeout time.Duration
}

// OpenAIClient calls the OpenAI chat completion API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient constructs an OpenAI-backed client.  A missing API key is
// an error; the service cannot do anything useful without one.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(oaCfg),
		model:   model,
		timeout: cfg.Timeout,
	}, nil
}

// Model returns the model name sent with every request.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends messages to the chat completion API and returns the
// trimmed text of the first choice.  Every failure is a *CompletionError.
func (c *OpenAIClient) Complete(ctx context.Context, messages []pkg.Message, params Params) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := string(m.Role)
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return "", &CompletionError{Kind: classify(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &CompletionError{Kind: KindMalformed, Err: errors.New("completion has no choices")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Kind tags the cause of a failed completion.  Clients only ever see a
// generic failure; the kind exists for logs.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindAuth        Kind = "auth"
	KindRateLimit   Kind = "rate_limit"
	KindUnavailable Kind = "unavailable"
	KindBadRequest  Kind = "bad_request"
	KindMalformed   Kind = "malformed"
	KindCanceled    Kind = "canceled"
	KindUnknown     Kind = "unknown"
)

// CompletionError is returned by Complete for every failure.
type CompletionError struct {
	Kind Kind
	Err  error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed (%s): %v", e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a completion failure anywhere in err's chain,
// or KindUnknown.
func KindOf(err error) Kind {
	var cErr *CompletionError
	if errors.As(err, &cErr) {
		return cErr.Kind
	}
	return KindUnknown
}

func classify(err error) Kind {
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return kindForStatus(reqErr.HTTPStatusCode)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindMalformed
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnknown
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= http.StatusInternalServerError:
		return KindUnavailable
	case status >= http.StatusBadRequest:
		return KindBadRequest
	default:
		return KindUnknown
	}
}
