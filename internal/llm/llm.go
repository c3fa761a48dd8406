package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior turn replayed to the remote conversation.
type Message struct {
	Role Role
	Text string
}

// Client is the capability surface of a hosted text-generation service.
type Client interface {
	// Generate sends a one-shot prompt and returns the response text.
	Generate(ctx context.Context, prompt string) (string, error)
	// Chat continues a conversation: the remote side sees the system
	// instruction, the prior history and then text.
	Chat(ctx context.Context, system string, history []Message, text string) (string, error)
}

// Factory builds a client bound to one credential. A fresh client is built
// for every outbound call.
type Factory func(ctx context.Context, credential string) (Client, error)

// Category groups remote failures by how they are reported to the user.
type Category string

const (
	CategoryMissingCredential Category = "missing_credential"
	CategoryAuthQuota         Category = "auth_quota"
	CategoryTransient         Category = "transient"
)

// ErrMissingCredential is returned when no API key was supplied.
var ErrMissingCredential = errors.New("api key required")

// Error wraps a provider failure with its category.
type Error struct {
	Category Category
	Status   int // HTTP status reported by the service, 0 if none
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Category, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CategoryOf reports the category of err. Unclassified errors are transient.
func CategoryOf(err error) Category {
	if errors.Is(err, ErrMissingCredential) {
		return CategoryMissingCredential
	}
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Category
	}
	return CategoryTransient
}

// classifyStatus maps a service status code: client errors (bad key, quota,
// permission) are auth/quota, everything else is transient.
func classifyStatus(status int, err error) *Error {
	if status >= 400 && status < 500 {
		return &Error{Category: CategoryAuthQuota, Status: status, Err: err}
	}
	return &Error{Category: CategoryTransient, Status: status, Err: err}
}

// NewFactory returns the factory for a provider name.
func NewFactory(provider, model string) (Factory, error) {
	switch provider {
	case "gemini", "":
		return func(ctx context.Context, credential string) (Client, error) {
			return NewGeminiClient(ctx, credential, model)
		}, nil
	case "openai":
		return func(_ context.Context, credential string) (Client, error) {
			return NewOpenAIClient(credential, openai.ChatModel(model))
		}, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: gemini, openai)", provider)
	}
}
