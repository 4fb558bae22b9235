package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"connect-service/internal/models"
	"connect-service/internal/repositories"
)

type ConnectionRepositoryMock struct {
	mock.Mock
}

func (m *ConnectionRepositoryMock) CreatePair(ctx context.Context, fromUserID, toUserID string) (models.ConnectionPair, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	var pair models.ConnectionPair
	if val := args.Get(0); val != nil {
		pair = val.(models.ConnectionPair)
	}
	return pair, args.Error(1)
}

func (m *ConnectionRepositoryMock) GetByChatID(ctx context.Context, chatID string, fromUserID string) (models.Connection, error) {
	args := m.Called(ctx, chatID, fromUserID)
	var conn models.Connection
	if val := args.Get(0); val != nil {
		conn = val.(models.Connection)
	}
	return conn, args.Error(1)
}

func (m *ConnectionRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Connection, error) {
	args := m.Called(ctx, userID)
	var conns []models.Connection
	if val := args.Get(0); val != nil {
		conns = val.([]models.Connection)
	}
	return conns, args.Error(1)
}

func (m *ConnectionRepositoryMock) Exists(ctx context.Context, connectionID, chatID string) (bool, error) {
	args := m.Called(ctx, connectionID, chatID)
	return args.Bool(0), args.Error(1)
}

type MessageStoreMock struct {
	mock.Mock
}

func (m *MessageStoreMock) ListMessages(ctx context.Context, chatID string, limit int, before time.Time) ([]models.Message, error) {
	args := m.Called(ctx, chatID, limit, before)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageStoreMock) CreateMessage(ctx context.Context, chatID, connectionID, fromUserID, toUserID, text string) (models.Message, error) {
	args := m.Called(ctx, chatID, connectionID, fromUserID, toUserID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type InviteRepositoryMock struct {
	mock.Mock
}

func (m *InviteRepositoryMock) CreateInvite(ctx context.Context, fromUserID, toUserID string) (models.Invite, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	var inv models.Invite
	if val := args.Get(0); val != nil {
		inv = val.(models.Invite)
	}
	return inv, args.Error(1)
}

func (m *InviteRepositoryMock) ListSent(ctx context.Context, userID string) ([]models.Invite, error) {
	args := m.Called(ctx, userID)
	var invs []models.Invite
	if val := args.Get(0); val != nil {
		invs = val.([]models.Invite)
	}
	return invs, args.Error(1)
}

func (m *InviteRepositoryMock) ListReceived(ctx context.Context, userID string) ([]models.Invite, error) {
	args := m.Called(ctx, userID)
	var invs []models.Invite
	if val := args.Get(0); val != nil {
		invs = val.([]models.Invite)
	}
	return invs, args.Error(1)
}

func (m *InviteRepositoryMock) GetInvite(ctx context.Context, inviteID string) (models.Invite, error) {
	args := m.Called(ctx, inviteID)
	var inv models.Invite
	if val := args.Get(0); val != nil {
		inv = val.(models.Invite)
	}
	return inv, args.Error(1)
}

func (m *InviteRepositoryMock) UpdateStatus(ctx context.Context, inviteID string, status models.InviteStatus) (models.Invite, error) {
	args := m.Called(ctx, inviteID, status)
	var inv models.Invite
	if val := args.Get(0); val != nil {
		inv = val.(models.Invite)
	}
	return inv, args.Error(1)
}

func (m *InviteRepositoryMock) DeletePending(ctx context.Context, inviteID, fromUserID string) error {
	args := m.Called(ctx, inviteID, fromUserID)
	return args.Error(0)
}

type PushRepositoryMock struct {
	mock.Mock
}

func (m *PushRepositoryMock) SaveSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) (models.PushSubscription, error) {
	args := m.Called(ctx, userID, endpoint, p256dh, auth)
	var sub models.PushSubscription
	if val := args.Get(0); val != nil {
		sub = val.(models.PushSubscription)
	}
	return sub, args.Error(1)
}

func (m *PushRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	args := m.Called(ctx, userID)
	var subs []models.PushSubscription
	if val := args.Get(0); val != nil {
		subs = val.([]models.PushSubscription)
	}
	return subs, args.Error(1)
}

func (m *PushRepositoryMock) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	args := m.Called(ctx, endpoint)
	return args.Error(0)
}

var _ repositories.ConnectionRepository = (*ConnectionRepositoryMock)(nil)
var _ repositories.MessageStore = (*MessageStoreMock)(nil)
var _ repositories.InviteRepository = (*InviteRepositoryMock)(nil)
var _ repositories.PushRepository = (*PushRepositoryMock)(nil)
