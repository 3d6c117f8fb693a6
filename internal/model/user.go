package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a marketplace account document.
type User struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      string             `json:"userId" bson:"user_id"`
	DisplayName string             `json:"displayName" bson:"display_name"`
	Email       string             `json:"email" bson:"email"`
	Avatar      string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
	IsActive    bool               `json:"isActive" bson:"is_active"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   *time.Time         `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}
