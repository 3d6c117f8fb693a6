package service

import (
	"context"
	"errors"
	"testing"

	"Taskora/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeConversationRepo struct {
	created       []*model.Conversation
	lastMessages  []model.LastMessage
	applyErr      error
	resetCalls    int
	byUserCalls   int
	searchQueries []string
	setFlagCalls  int
	lastFlag      string
	lastFlagValue bool
}

func (f *fakeConversationRepo) CreateOrGet(_ context.Context, conv *model.Conversation) (*model.Conversation, error) {
	conv.ID = primitive.NewObjectID()
	f.created = append(f.created, conv)
	return conv, nil
}

func (f *fakeConversationRepo) ByUser(_ context.Context, _ string) ([]model.Conversation, error) {
	f.byUserCalls++
	return nil, nil
}

func (f *fakeConversationRepo) Search(_ context.Context, _ string, query string) ([]model.Conversation, error) {
	f.searchQueries = append(f.searchQueries, query)
	return nil, nil
}

func (f *fakeConversationRepo) ByID(_ context.Context, _ string) (*model.Conversation, error) {
	return nil, nil
}

func (f *fakeConversationRepo) SetFlag(_ context.Context, _ string, flag string, value bool) error {
	f.setFlagCalls++
	f.lastFlag = flag
	f.lastFlagValue = value
	return nil
}

func (f *fakeConversationRepo) ApplyLastMessage(_ context.Context, _ string, lm model.LastMessage) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.lastMessages = append(f.lastMessages, lm)
	return nil
}

func (f *fakeConversationRepo) ResetUnread(_ context.Context, _ string, _ string) error {
	f.resetCalls++
	return nil
}

type fakeMessageRepo struct {
	inserted      []*model.Message
	insertErr     error
	markReadCalls int
}

func (f *fakeMessageRepo) Insert(_ context.Context, msg *model.Message) (*model.Message, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	oid := primitive.NewObjectID()
	msg.ID = oid
	msg.MessageID = oid.Hex()
	f.inserted = append(f.inserted, msg)
	return msg, nil
}

func (f *fakeMessageRepo) Snapshot(_ context.Context, _ string) ([]model.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) MarkAllRead(_ context.Context, _ string, _ string) (int64, error) {
	f.markReadCalls++
	return 1, nil
}

func (f *fakeMessageRepo) AddReaction(_ context.Context, _ string, _ string, _ string) error {
	return nil
}

type fakeUserRepo struct {
	users    map[string]*model.User
	getErr   error
	upserted []*model.User
}

func (f *fakeUserRepo) GetUser(_ context.Context, userID string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.users[userID], nil
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	f.upserted = append(f.upserted, user)
	return nil
}

func newTestService() (ChatService, *fakeConversationRepo, *fakeMessageRepo, *fakeUserRepo) {
	conversations := &fakeConversationRepo{}
	messages := &fakeMessageRepo{}
	users := &fakeUserRepo{users: map[string]*model.User{
		"u1": {UserID: "u1", DisplayName: "Alice"},
	}}
	svc := NewChatService(conversations, messages, users, zap.NewNop())
	return svc, conversations, messages, users
}

func TestSendMessageValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.SendMessage(ctx, SendRequest{SenderID: "me", RecipientID: "u1", Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, _, err = svc.SendMessage(ctx, SendRequest{RecipientID: "u1", Content: "hi"})
	assert.ErrorIs(t, err, ErrEmptySender)

	_, _, err = svc.SendMessage(ctx, SendRequest{SenderID: "me", Content: "hi"})
	assert.ErrorIs(t, err, ErrEmptyRecipient)
}

func TestSendMessage(t *testing.T) {
	svc, conversations, messages, _ := newTestService()

	conv, msg, err := svc.SendMessage(context.Background(), SendRequest{
		SenderID:    "me",
		RecipientID: "u1",
		Content:     "  hello  ",
		ClientToken: "tok-1",
	})
	require.NoError(t, err)

	require.Len(t, messages.inserted, 1)
	assert.Equal(t, "hello", msg.Content, "content is trimmed")
	assert.Equal(t, "tok-1", msg.ClientToken)
	assert.Equal(t, conv.ID.Hex(), msg.ConversationID)

	require.Len(t, conversations.lastMessages, 1)
	assert.Equal(t, "hello", conversations.lastMessages[0].Content)
	assert.False(t, conversations.lastMessages[0].Read)

	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "hello", conv.LastMessage.Content)
}

func TestSendMessageSurvivesPreviewFailure(t *testing.T) {
	svc, conversations, _, _ := newTestService()
	conversations.applyErr = errors.New("update failed")

	conv, msg, err := svc.SendMessage(context.Background(), SendRequest{
		SenderID:    "me",
		RecipientID: "u1",
		Content:     "hello",
	})
	require.NoError(t, err, "a durable message with a stale preview is not a failed send")
	assert.NotNil(t, conv)
	assert.NotNil(t, msg)
}

func TestCreateOrGetConversationDenormalizesNames(t *testing.T) {
	svc, conversations, _, _ := newTestService()

	conv, err := svc.CreateOrGetConversation(context.Background(), "me", "u1", "job-1", "Sink repair")
	require.NoError(t, err)

	require.Len(t, conversations.created, 1)
	assert.Equal(t, []string{"me", "u1"}, conv.ParticipantIDs)
	assert.Equal(t, "Alice", conv.ParticipantNames["u1"])
	assert.NotContains(t, conv.ParticipantNames, "me", "unknown users get no entry")
	assert.Equal(t, "Sink repair", conv.JobTitle)
}

func TestCreateOrGetConversationToleratesLookupFailure(t *testing.T) {
	svc, _, _, users := newTestService()
	users.getErr = errors.New("user service down")

	conv, err := svc.CreateOrGetConversation(context.Background(), "me", "u1", "", "")
	require.NoError(t, err)
	assert.Empty(t, conv.ParticipantNames)
}

func TestCreateOrGetConversationRejectsSelf(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateOrGetConversation(context.Background(), "me", "me", "", "")
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestConversationsRoutesQueriesToSearch(t *testing.T) {
	svc, conversations, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Conversations(ctx, "me", "")
	require.NoError(t, err)
	assert.Equal(t, 1, conversations.byUserCalls)
	assert.Empty(t, conversations.searchQueries)

	_, err = svc.Conversations(ctx, "me", "sink repair")
	require.NoError(t, err)
	assert.Equal(t, []string{"sink repair"}, conversations.searchQueries)
	assert.Equal(t, 1, conversations.byUserCalls, "queries bypass the plain listing")

	_, err = svc.Conversations(ctx, "", "")
	assert.Error(t, err)
}

func TestSaveUser(t *testing.T) {
	svc, _, _, users := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.SaveUser(ctx, &model.User{UserID: "u9", DisplayName: "Nina"}))
	require.Len(t, users.upserted, 1)
	assert.Equal(t, "u9", users.upserted[0].UserID)

	assert.Error(t, svc.SaveUser(ctx, nil))
	assert.Error(t, svc.SaveUser(ctx, &model.User{DisplayName: "Nina"}))
	assert.ErrorIs(t, svc.SaveUser(ctx, &model.User{UserID: "u9", DisplayName: "  "}), ErrEmptyDisplayName)
}

func TestMarkAllReadTouchesMessagesAndCounter(t *testing.T) {
	svc, conversations, messages, _ := newTestService()

	require.NoError(t, svc.MarkAllRead(context.Background(), "c1", "me"))
	assert.Equal(t, 1, messages.markReadCalls)
	assert.Equal(t, 1, conversations.resetCalls)
}
