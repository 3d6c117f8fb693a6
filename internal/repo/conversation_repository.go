package repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"Taskora/internal/db"
	"Taskora/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Conversation flags that clients may toggle.
const (
	FlagPinned   = "is_pinned"
	FlagArchived = "is_archived"
	FlagMuted    = "is_muted"
)

var ErrUnknownFlag = errors.New("unknown conversation flag")

type conversationRepository struct {
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

type ConversationRepository interface {
	CreateOrGet(ctx context.Context, conv *model.Conversation) (*model.Conversation, error)
	ByUser(ctx context.Context, userID string) ([]model.Conversation, error)
	Search(ctx context.Context, userID, query string) ([]model.Conversation, error)
	ByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	SetFlag(ctx context.Context, conversationID, flag string, value bool) error
	ApplyLastMessage(ctx context.Context, conversationID string, lm model.LastMessage) error
	ResetUnread(ctx context.Context, conversationID, readerID string) error
}

func NewConversationRepository(repo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// CreateOrGet returns the existing conversation for the participant pair
// (and job, when set) or inserts a new one. Safe to call repeatedly with
// the same participants.
func (r *conversationRepository) CreateOrGet(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	if len(conv.ParticipantIDs) != 2 {
		return nil, fmt.Errorf("conversation requires exactly two participants, got %d", len(conv.ParticipantIDs))
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().AllOf("participant_ids", conv.ParticipantIDs)
	if conv.JobID != "" {
		filter = filter.Eq("job_id", conv.JobID)
	}

	existing, err := r.mongoRepo.FindOne(ctx, filter.Build())
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		r.logger.Error("conversation lookup failed", zap.Error(err))
		return nil, fmt.Errorf("conversation lookup failed: %w", err)
	}

	now := time.Now().UTC()
	conv.ID = primitive.NewObjectID()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	conv.LastMessageAt = now

	if _, err := r.mongoRepo.Create(ctx, *conv); err != nil {
		r.logger.Error("conversation insert failed", zap.Error(err))
		return nil, fmt.Errorf("conversation insert failed: %w", err)
	}

	r.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID.Hex()),
		zap.Strings("participants", conv.ParticipantIDs),
		zap.String("job_id", conv.JobID),
	)
	return conv, nil
}

// ByUser returns all conversations userID participates in, most recently
// active first.
func (r *conversationRepository) ByUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().In("participant_ids", []string{userID}).Build()
	conversations, err := r.mongoRepo.FindSorted(ctx, filter, "last_message_at", true, 0)
	if err != nil {
		r.logger.Error("failed to query conversations", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to get conversations: %w", err)
	}
	return conversations, nil
}

// Search returns userID's conversations whose job title or last message
// preview contains query, case-insensitively. An empty query behaves
// like ByUser.
func (r *conversationRepository) Search(ctx context.Context, userID, query string) ([]model.Conversation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.ByUser(ctx, userID)
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		In("participant_ids", []string{userID}).
		Or(
			db.NewFilter().Contains("job_title", regexp.QuoteMeta(query)).Build(),
			db.NewFilter().Contains("last_message.content", regexp.QuoteMeta(query)).Build(),
		).Build()

	conversations, err := r.mongoRepo.FindSorted(ctx, filter, "last_message_at", true, 0)
	if err != nil {
		r.logger.Error("conversation search failed",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("conversation search failed: %w", err)
	}
	return conversations, nil
}

// ByID fetches a conversation; returns nil without error when absent.
func (r *conversationRepository) ByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	conv, err := r.mongoRepo.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("conversation not found", zap.String("conversation_id", conversationID))
			return nil, nil
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	return conv, nil
}

// SetFlag persists a pinned/archived/muted toggle.
func (r *conversationRepository) SetFlag(ctx context.Context, conversationID, flag string, value bool) error {
	switch flag {
	case FlagPinned, FlagArchived, FlagMuted:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFlag, flag)
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().ObjectID("_id", conversationID).Build()
	update := bson.M{flag: value, "updated_at": time.Now().UTC()}
	if _, err := r.mongoRepo.Update(ctx, filter, update); err != nil {
		return fmt.Errorf("set %s failed: %w", flag, err)
	}
	return nil
}

// ApplyLastMessage updates the denormalized preview and bumps the unread
// counter for the recipient.
func (r *conversationRepository) ApplyLastMessage(ctx context.Context, conversationID string, lm model.LastMessage) error {
	objectID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err = r.mongoRepo.Collection().UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$set": bson.M{
				"last_message":    lm,
				"last_message_at": lm.SentAt,
				"updated_at":      lm.SentAt,
			},
			"$inc": bson.M{"unread_count": 1},
		},
	)
	if err != nil {
		r.logger.Error("apply last message failed",
			zap.Error(err),
			zap.String("conversation_id", conversationID),
		)
		return fmt.Errorf("apply last message failed: %w", err)
	}
	return nil
}

// ResetUnread zeroes the unread counter and, when the latest message was
// sent by the other party, marks the preview as read.
func (r *conversationRepository) ResetUnread(ctx context.Context, conversationID, readerID string) error {
	objectID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	col := r.mongoRepo.Collection()
	if _, err := col.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"unread_count": 0}},
	); err != nil {
		return fmt.Errorf("reset unread failed: %w", err)
	}

	// Do not flip the preview when the reader sent it themselves; the
	// read flag tracks whether the recipient has seen it.
	if _, err := col.UpdateOne(ctx,
		bson.M{"_id": objectID, "last_message.sender_id": bson.M{"$ne": readerID}},
		bson.M{"$set": bson.M{"last_message.read": true}},
	); err != nil {
		return fmt.Errorf("reset unread failed: %w", err)
	}
	return nil
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
