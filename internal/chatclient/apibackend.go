package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"Taskora/internal/event"
	"Taskora/internal/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// APIBackend implements Backend over the chat server's REST API and
// WebSocket push feed.
type APIBackend struct {
	baseURL   string
	socketURL string
	userID    string
	client    *http.Client
	logger    *zap.Logger
}

// NewAPIBackend builds a backend for one user. baseURL is the app
// server root (http://host:port), socketURL the full feed endpoint
// (ws://host:port/ws).
func NewAPIBackend(baseURL, socketURL, userID string, logger *zap.Logger) *APIBackend {
	return &APIBackend{
		baseURL:   baseURL,
		socketURL: socketURL,
		userID:    userID,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

func (b *APIBackend) Conversations(ctx context.Context) ([]model.Conversation, error) {
	var out struct {
		Conversations []model.Conversation `json:"conversations"`
	}
	path := "/tk/api/chat/conversations?userId=" + url.QueryEscape(b.userID)
	if err := b.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (b *APIBackend) ConversationByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	var out struct {
		Conversation *model.Conversation `json:"conversation"`
	}
	path := "/tk/api/chat/conversations/" + url.PathEscape(conversationID)
	if err := b.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		if isStatusError(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out.Conversation, nil
}

func (b *APIBackend) CreateConversation(ctx context.Context, recipientID, jobID, jobTitle string) (*model.Conversation, error) {
	body := map[string]string{
		"userId":      b.userID,
		"recipientId": recipientID,
		"jobId":       jobID,
		"jobTitle":    jobTitle,
	}
	var out struct {
		Conversation *model.Conversation `json:"conversation"`
	}
	if err := b.doJSON(ctx, http.MethodPost, "/tk/api/chat/conversations", body, &out); err != nil {
		return nil, err
	}
	return out.Conversation, nil
}

func (b *APIBackend) SendMessage(ctx context.Context, req SendRequest) (*model.Message, error) {
	body := map[string]string{
		"senderId":    b.userID,
		"recipientId": req.RecipientID,
		"content":     req.Content,
		"clientToken": req.ClientToken,
		"replyTo":     req.ReplyTo,
		"jobId":       req.JobID,
		"jobTitle":    req.JobTitle,
	}
	var out struct {
		Message *model.Message `json:"message"`
	}
	if err := b.doJSON(ctx, http.MethodPost, "/tk/api/chat/messages", body, &out); err != nil {
		return nil, err
	}
	return out.Message, nil
}

func (b *APIBackend) MarkAllRead(ctx context.Context, conversationID string) error {
	body := map[string]string{"userId": b.userID}
	path := "/tk/api/chat/conversations/" + url.PathEscape(conversationID) + "/read"
	return b.doJSON(ctx, http.MethodPost, path, body, nil)
}

// SubscribeMessages delivers the current snapshot, then relays every
// snapshot pushed over the feed until released.
func (b *APIBackend) SubscribeMessages(ctx context.Context, conversationID string, onSnapshot func([]model.Message)) (func(), error) {
	var initial struct {
		Messages []model.Message `json:"messages"`
	}
	path := "/tk/api/chat/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := b.doJSON(ctx, http.MethodGet, path, nil, &initial); err != nil {
		return nil, err
	}
	onSnapshot(initial.Messages)

	feedURL := fmt.Sprintf("%s?userId=%s&conversationId=%s",
		b.socketURL,
		url.QueryEscape(b.userID),
		url.QueryEscape(conversationID),
	)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	done := make(chan struct{})
	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() {
			_ = conn.Close()
			<-done
		})
	}

	go func() {
		defer close(done)
		defer conn.Close()

		for {
			var ev event.WsEvent
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() == nil {
					b.logger.Debug("feed closed",
						zap.String("conversation_id", conversationID),
						zap.Error(err),
					)
				}
				return
			}

			if ev.Event != event.EventSnapshot {
				continue
			}

			var payload event.SnapshotPayload
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				b.logger.Warn("malformed snapshot payload", zap.Error(err))
				continue
			}
			if payload.ConversationID != conversationID {
				continue
			}
			onSnapshot(payload.Messages)
		}
	}()

	// Release on context cancellation too, so no path leaks the feed.
	go func() {
		select {
		case <-ctx.Done():
			release()
		case <-done:
		}
	}()

	return release, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func isStatusError(err error, code int) bool {
	se, ok := err.(*statusError)
	return ok && se.code == code
}

func (b *APIBackend) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: string(raw)}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
