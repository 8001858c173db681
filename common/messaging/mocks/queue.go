package mocks

import (
	"context"

	"github.com/sri-ravi13/Orphan-Management-System/common/messaging"

	"github.com/stretchr/testify/mock"
)

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Publish(ctx context.Context, message messaging.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockQueue) Subscribe(ctx context.Context, callback messaging.SubscribeCallbackFunc) error {
	args := m.Called(ctx, callback)
	return args.Error(0)
}
