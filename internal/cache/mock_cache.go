package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"fin-agents/internal/ratio"
)

// MockCache is a mock implementation of the Cache interface for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetRatios(ctx context.Context, key string) ([]ratio.Row, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ratio.Row), args.Error(1)
}

func (m *MockCache) SetRatios(ctx context.Context, key string, rows []ratio.Row, ttl time.Duration) error {
	args := m.Called(ctx, key, rows, ttl)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
