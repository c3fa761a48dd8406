package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fin-agents/internal/llm"
	"fin-agents/internal/secrets"
	"fin-agents/internal/session"
)

const (
	analystPrompt = `You are a professional financial analyst. Based on the financial indicators below, write an objective, concise commentary (about 3-4 paragraphs) on the company's financial position. Focus the assessment on growth rates, changes in asset structure and current liquidity.

Raw data and indicators:
%s`

	// SystemInstruction is the fixed persona of the chat assistant.
	SystemInstruction = "You are a friendly and professional financial assistant. Answer questions about finance, business and financial ratios clearly and in a way that is easy to understand."

	// Greeting is shown as the first assistant turn of a new conversation.
	Greeting = "Hello! I'm your AI financial assistant. Ask me anything about financial analysis or the ratios you are interested in."
)

// ErrChatNotReady is returned by Send when no conversation exists yet.
var ErrChatNotReady = errors.New("chat session not initialized")

// Result is the outcome of a narrative request. Failed results carry a
// diagnostic in Text instead of commentary.
type Result struct {
	Text     string       `json:"text"`
	Failed   bool         `json:"failed"`
	Category llm.Category `json:"category,omitempty"`
}

// Adapter bridges statement summaries and chat turns to the hosted model.
// It keeps no state of its own; conversation state lives in the session.
type Adapter struct {
	Secrets       secrets.Store
	SecretName    string
	NewClient     llm.Factory
	Model         string
	HistoryWindow int // replayed history messages, 0 for all
	HistoryLimit  int // stored history messages, 0 for unbounded
	MaxAttempts   int
	RetryBase     time.Duration
	Log           *slog.Logger
}

// Credential resolves the API key. A missing key wraps secrets.ErrNotFound.
func (a *Adapter) Credential() (string, error) {
	if a.Secrets == nil {
		return "", fmt.Errorf("%w: %s", secrets.ErrNotFound, a.SecretName)
	}
	return a.Secrets.Lookup(a.SecretName)
}

// Analyze resolves the credential and requests commentary for summary.
func (a *Adapter) Analyze(ctx context.Context, summary string) Result {
	cred, err := a.Credential()
	if err != nil {
		a.logger().Warn("analysis requested without credential", "secret", a.SecretName)
		return Result{Text: a.missingCredentialMessage(), Failed: true, Category: llm.CategoryMissingCredential}
	}
	return a.RequestAnalysis(ctx, summary, cred)
}

// RequestAnalysis sends the fixed analyst prompt with summary embedded. It
// never returns an error: failures come back as a diagnostic Result.
func (a *Adapter) RequestAnalysis(ctx context.Context, summary, credential string) Result {
	log := a.logger().With("op", "analysis")
	client, err := a.client(ctx, credential)
	if err != nil {
		return a.failure(log, err)
	}

	start := time.Now()
	text, err := client.Generate(ctx, fmt.Sprintf(analystPrompt, summary))
	if err != nil {
		return a.failure(log, err)
	}
	log.Info("analysis generated", "duration_ms", time.Since(start).Milliseconds(), "chars", len(text))
	return Result{Text: text}
}

// CreateConversation establishes the chat handle for sess. An existing
// handle is reused. On failure the session is left untouched. Callers hold
// the session lock.
func (a *Adapter) CreateConversation(ctx context.Context, sess *session.Session, credential string) (*session.Conversation, error) {
	if sess.Conversation != nil {
		return sess.Conversation, nil
	}
	if _, err := a.client(ctx, credential); err != nil {
		a.logger().Warn("chat session setup failed", "session_id", sess.ID, "err", err)
		return nil, fmt.Errorf("chat session setup: %w", err)
	}

	conv := &session.Conversation{
		ID:                uuid.New().String(),
		Model:             a.Model,
		SystemInstruction: SystemInstruction,
		CreatedAt:         time.Now().UTC(),
	}
	sess.Conversation = conv
	sess.AppendTurn(session.RoleAssistant, Greeting)
	a.logger().Info("chat session created", "session_id", sess.ID, "conversation_id", conv.ID)
	return conv, nil
}

// Send delivers one user message. The user turn is recorded before the call
// and exactly one assistant turn follows it, holding either the reply or a
// diagnostic. Only ErrChatNotReady is returned as an error, in which case
// nothing is recorded. Callers hold the session lock.
func (a *Adapter) Send(ctx context.Context, sess *session.Session, text string) (string, error) {
	conv := sess.Conversation
	if conv == nil {
		return "", ErrChatNotReady
	}
	sess.AppendTurn(session.RoleUser, text)

	log := a.logger().With("op", "chat", "session_id", sess.ID, "conversation_id", conv.ID)
	cred, err := a.Credential()
	if err != nil {
		log.Warn("chat message without credential", "secret", a.SecretName)
		reply := a.missingCredentialMessage()
		sess.AppendTurn(session.RoleAssistant, reply)
		return reply, nil
	}

	reply, err := a.chat(ctx, conv, cred, text)
	if err != nil {
		log.Error("chat message failed", "category", llm.CategoryOf(err), "err", err)
		reply = fmt.Sprintf("An error occurred during the chat: %v", err)
		sess.AppendTurn(session.RoleAssistant, reply)
		return reply, nil
	}

	conv.AddExchange(text, reply, a.HistoryLimit)
	sess.AppendTurn(session.RoleAssistant, reply)
	log.Info("chat reply", "history", len(conv.History))
	return reply, nil
}

func (a *Adapter) chat(ctx context.Context, conv *session.Conversation, credential, text string) (string, error) {
	client, err := a.client(ctx, credential)
	if err != nil {
		return "", err
	}
	return client.Chat(ctx, conv.SystemInstruction, conv.Window(a.HistoryWindow), text)
}

// client builds a fresh client for one outbound call.
func (a *Adapter) client(ctx context.Context, credential string) (llm.Client, error) {
	if credential == "" {
		return nil, llm.ErrMissingCredential
	}
	c, err := a.NewClient(ctx, credential)
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(c, a.MaxAttempts, a.RetryBase), nil
}

func (a *Adapter) failure(log *slog.Logger, err error) Result {
	category := llm.CategoryOf(err)
	log.Error("analysis failed", "category", category, "err", err)
	switch category {
	case llm.CategoryMissingCredential:
		return Result{Text: a.missingCredentialMessage(), Failed: true, Category: category}
	case llm.CategoryAuthQuota:
		return Result{
			Text:     fmt.Sprintf("Error calling the AI service: please check the API key or usage quota. Details: %v", err),
			Failed:   true,
			Category: category,
		}
	default:
		return Result{Text: fmt.Sprintf("An unknown error occurred: %v", err), Failed: true, Category: category}
	}
}

func (a *Adapter) missingCredentialMessage() string {
	return fmt.Sprintf("Error: API key '%s' not found. Please check the secrets configuration.", a.SecretName)
}

func (a *Adapter) logger() *slog.Logger {
	if a.Log == nil {
		return slog.Default()
	}
	return a.Log
}
