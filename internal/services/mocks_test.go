package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/asomstudio/asomstudio-api/pkg/mailer"
)

// MockLimiter is a mock implementation of ratelimit.Limiter
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	args := m.Called(ctx, clientKey)
	return args.Bool(0), args.Error(1)
}

// MockSender is a mock implementation of mailer.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
