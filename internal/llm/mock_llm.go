package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockClient) Chat(ctx context.Context, system string, history []Message, text string) (string, error) {
	args := m.Called(ctx, system, history, text)
	return args.String(0), args.Error(1)
}

// MockFactory returns a Factory that hands out client and records the
// credential it was called with.
func MockFactory(client Client, seen *[]string) Factory {
	return func(_ context.Context, credential string) (Client, error) {
		if seen != nil {
			*seen = append(*seen, credential)
		}
		if credential == "" {
			return nil, ErrMissingCredential
		}
		return client, nil
	}
}
