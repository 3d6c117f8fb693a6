package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Taskora/internal/db"
	"Taskora/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInvalidMessage        = errors.New("invalid message: message cannot be nil")
	ErrInvalidConversationID = errors.New("invalid conversation ID: cannot be empty")
	ErrOperationTimeout      = errors.New("operation timeout exceeded")
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 15 * time.Second

	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second

	// snapshotLimit caps the number of messages pushed per snapshot.
	snapshotLimit = 200
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) (*model.Message, error)
	Snapshot(ctx context.Context, conversationID string) ([]model.Message, error)
	MarkAllRead(ctx context.Context, conversationID, readerID string) (int64, error)
	AddReaction(ctx context.Context, messageID, emoji, userID string) error
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// Insert persists a message, assigning the server-side id and timestamp.
// The client token, if any, is stored verbatim so the sending client can
// reconcile its provisional entry from the next snapshot.
func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg == nil {
		return nil, ErrInvalidMessage
	}
	if msg.ConversationID == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	oid := primitive.NewObjectID()
	msg.ID = oid
	msg.MessageID = oid.Hex()
	msg.SentAt = time.Now().UTC()
	msg.Read = false
	if msg.Type == "" {
		msg.Type = model.MessageTypeText
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		_, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			m.logger.Info("message inserted",
				zap.String("message_id", msg.MessageID),
				zap.String("conversation_id", msg.ConversationID),
				zap.Int("attempt", attempt+1),
			)
			return msg, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("conversation_id", msg.ConversationID),
	)
	return nil, fmt.Errorf("insert message failed: %w", lastErr)
}

// Snapshot returns the conversation's messages in send order, capped at
// the snapshotLimit most recent.
func (m *messageRepository) Snapshot(ctx context.Context, conversationID string) ([]model.Message, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("conversation_id", conversationID).Build()

	// Query newest-first to apply the cap, then restore send order.
	msgs, err := m.mongoRepo.FindSorted(ctx, filter, "sent_at", true, snapshotLimit)
	if err != nil {
		return nil, m.handleReadError(err, conversationID)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkAllRead flips the read flag on every unread message sent to
// readerID and returns the number of messages affected.
func (m *messageRepository) MarkAllRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	if conversationID == "" {
		return 0, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("conversation_id", conversationID).
		Ne("sender_id", readerID).
		Eq("read", false).
		Build()

	result, err := m.mongoRepo.UpdateMany(ctx, filter, bson.M{"read": true})
	if err != nil {
		m.logger.Error("mark all read failed",
			zap.Error(err),
			zap.String("conversation_id", conversationID),
			zap.String("reader_id", readerID),
		)
		return 0, fmt.Errorf("mark all read failed: %w", err)
	}

	m.logger.Debug("messages marked read",
		zap.String("conversation_id", conversationID),
		zap.Int64("modified", result.ModifiedCount),
	)
	return result.ModifiedCount, nil
}

// AddReaction records userID's emoji reaction on a message. Reacting
// twice with the same emoji is a no-op ($addToSet).
func (m *messageRepository) AddReaction(ctx context.Context, messageID, emoji, userID string) error {
	if messageID == "" || emoji == "" || userID == "" {
		return ErrInvalidMessage
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := m.mongoRepo.Collection().UpdateOne(ctx,
		bson.M{"message_id": messageID},
		bson.M{"$addToSet": bson.M{"reactions." + emoji: userID}},
	)
	if err != nil {
		return fmt.Errorf("add reaction failed: %w", err)
	}
	return nil
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

func (m *messageRepository) handleReadError(err error, conversationID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("conversation_id", conversationID))
		return ErrOperationTimeout
	}
	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("conversation_id", conversationID))
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("conversation_id", conversationID))
	return fmt.Errorf("snapshot failed: %w", err)
}
