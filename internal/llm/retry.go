package llm

import (
	"context"
	"time"

	"fin-agents/internal/retry"
)

// Retrying re-issues transient failures with exponential backoff. Auth and
// quota failures are returned immediately.
type Retrying struct {
	next     Client
	attempts int
	base     time.Duration
}

// WithRetry wraps c. attempts below 2 returns c unchanged.
func WithRetry(c Client, attempts int, base time.Duration) Client {
	if attempts < 2 {
		return c
	}
	return &Retrying{next: c, attempts: attempts, base: base}
}

func (r *Retrying) Generate(ctx context.Context, prompt string) (string, error) {
	return r.do(ctx, func() (string, error) {
		return r.next.Generate(ctx, prompt)
	})
}

func (r *Retrying) Chat(ctx context.Context, system string, history []Message, text string) (string, error) {
	return r.do(ctx, func() (string, error) {
		return r.next.Chat(ctx, system, history, text)
	})
}

func (r *Retrying) do(ctx context.Context, call func() (string, error)) (string, error) {
	var out string
	err := retry.Do(ctx, r.attempts, r.base, isTransient, func() error {
		var err error
		out, err = call()
		return err
	})
	return out, err
}

func isTransient(err error) bool {
	return CategoryOf(err) == CategoryTransient
}
