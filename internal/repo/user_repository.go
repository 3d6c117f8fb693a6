package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Taskora/internal/db"
	"Taskora/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var ErrInvalidUserID = errors.New("invalid user ID: cannot be empty")

type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	Upsert(ctx context.Context, user *model.User) error
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(repo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// GetUser fetches a user by its stable user_id; returns nil without
// error when absent so callers can fall back to a synthesized name.
func (r *userRepository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("user_id", userID).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error("failed to fetch user", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// Upsert creates or refreshes a user document keyed by user_id.
func (r *userRepository) Upsert(ctx context.Context, user *model.User) error {
	if user == nil || user.UserID == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"display_name": user.DisplayName,
		"email":        user.Email,
		"avatar":       user.Avatar,
		"is_active":    true,
		"updated_at":   now,
	}

	exists, err := r.mongoRepo.Exists(ctx, db.NewFilter().Eq("user_id", user.UserID).Build())
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}
	if exists {
		_, err = r.mongoRepo.Update(ctx, db.NewFilter().Eq("user_id", user.UserID).Build(), update)
		if err != nil {
			return fmt.Errorf("user update failed: %w", err)
		}
		return nil
	}

	user.IsActive = true
	user.CreatedAt = now
	if _, err := r.mongoRepo.Create(ctx, *user); err != nil {
		return fmt.Errorf("user insert failed: %w", err)
	}
	return nil
}
