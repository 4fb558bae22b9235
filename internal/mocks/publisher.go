package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"connect-service/internal/pubsub"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// EventPublisherMock satisfies the reconciler's publish dependency.
type EventPublisherMock struct {
	mock.Mock
}

func (m *EventPublisherMock) PublishMessage(ctx context.Context, channel, event string, payload pubsub.MessagePayload) error {
	args := m.Called(ctx, channel, event, payload)
	return args.Error(0)
}
