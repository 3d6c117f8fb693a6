package call

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrEmptySecret = errors.New("token secret cannot be empty")

// TokenSigner mints short-lived HMAC room tokens. The secret stays
// server-side; clients only ever see signed tokens.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenSigner(secret string, ttl time.Duration) (*TokenSigner, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}, nil
}

// Mint signs a token granting userID access to roomID.
func (s *TokenSigner) Mint(roomID, userID, userName string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"room": roomID,
		"sub":  userID,
		"name": userName,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign room token: %w", err)
	}
	return signed, nil
}

// Verify parses a minted token and returns the room and user it grants.
func (s *TokenSigner) Verify(tokenString string) (roomID, userID string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("parse room token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid room token")
	}

	roomID, _ = claims["room"].(string)
	userID, _ = claims["sub"].(string)
	if roomID == "" || userID == "" {
		return "", "", errors.New("room token missing claims")
	}
	return roomID, userID, nil
}
