package notifications

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockPusher struct {
	mock.Mock
}

func (m *mockPusher) SendMulticast(ctx context.Context, tokens []string, msg Message) error {
	return m.Called(ctx, tokens, msg).Error(0)
}

func (m *mockPusher) SendTopic(ctx context.Context, topic string, msg Message) error {
	return m.Called(ctx, topic, msg).Error(0)
}

func (m *mockPusher) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	return m.Called(ctx, tokens, topic).Error(0)
}

func (m *mockPusher) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	return m.Called(ctx, tokens, topic).Error(0)
}
