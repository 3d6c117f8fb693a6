package chatclient

import (
	"context"
	"sync"
	"time"

	"Taskora/internal/model"

	"go.uber.org/zap"
)

// DefaultReadDebounce is how long the stream waits after the last
// snapshot before marking the conversation read. Bursts of arriving
// messages collapse into a single mark-read call.
const DefaultReadDebounce = 750 * time.Millisecond

// StreamController owns the message state of one open conversation at a
// time. Snapshots from the push feed replace the message list
// wholesale; provisional sends that the snapshot does not confirm yet
// are carried over so they never flicker out of the view.
//
// Opening a conversation closes the previous one first, so at most one
// subscription is live and every subscription is released on every exit
// path.
type StreamController struct {
	backend  Backend
	userID   string
	logger   *zap.Logger
	debounce time.Duration

	mu             sync.Mutex
	conversationID string
	messages       []model.Message
	release        func()
	releaseOnce    *sync.Once
	ctx            context.Context
	timer          *time.Timer
	generation     uint64
	onChange       func([]model.Message)
}

// NewStreamController builds a controller. A debounce of 0 uses
// DefaultReadDebounce.
func NewStreamController(backend Backend, userID string, debounce time.Duration, logger *zap.Logger) *StreamController {
	if debounce <= 0 {
		debounce = DefaultReadDebounce
	}
	return &StreamController{
		backend:  backend,
		userID:   userID,
		logger:   logger,
		debounce: debounce,
	}
}

// SetOnChange registers a callback invoked with a copy of the message
// list after every change. Must be set before Open.
func (s *StreamController) SetOnChange(fn func([]model.Message)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Open subscribes to conversationID's push feed. Any previously open
// conversation is closed first, releasing its subscription.
func (s *StreamController) Open(ctx context.Context, conversationID string) error {
	s.Close()

	// State goes in before subscribing so a feed that delivers its first
	// snapshot immediately is not dropped.
	s.mu.Lock()
	s.conversationID = conversationID
	s.messages = nil
	s.releaseOnce = new(sync.Once)
	s.ctx = ctx
	s.mu.Unlock()

	release, err := s.backend.SubscribeMessages(ctx, conversationID, func(msgs []model.Message) {
		s.apply(conversationID, msgs)
	})
	if err != nil {
		s.mu.Lock()
		s.conversationID = ""
		s.releaseOnce = nil
		s.ctx = nil
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.release = release
	s.mu.Unlock()

	return nil
}

// Close releases the current subscription and stops any pending
// mark-read. Safe to call repeatedly and with nothing open.
func (s *StreamController) Close() {
	s.mu.Lock()
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	release := s.release
	once := s.releaseOnce
	s.release = nil
	s.releaseOnce = nil
	s.conversationID = ""
	s.messages = nil
	s.ctx = nil
	s.mu.Unlock()

	if release != nil {
		once.Do(release)
	}
}

// ConversationID returns the currently open conversation, "" when none.
func (s *StreamController) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Messages returns a copy of the current message list.
func (s *StreamController) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMessages(s.messages)
}

// AppendProvisional adds a not-yet-confirmed send to the view. It is
// reconciled away by the next snapshot that carries its client token.
func (s *StreamController) AppendProvisional(msg model.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	snapshot := copyMessages(s.messages)
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
}

// RemoveProvisional drops a provisional entry by id, typically after
// its send failed.
func (s *StreamController) RemoveProvisional(messageID string) {
	s.mu.Lock()
	s.messages = Filter(s.messages, func(m model.Message) bool {
		return m.MessageID != messageID
	})
	snapshot := copyMessages(s.messages)
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
}

// apply replaces the message state with an incoming snapshot. Pending
// provisional entries whose client token the snapshot does not confirm
// are re-appended, so an in-flight send survives a concurrent push.
func (s *StreamController) apply(conversationID string, msgs []model.Message) {
	s.mu.Lock()

	if s.conversationID != conversationID {
		// A snapshot for a conversation that was closed in the meantime.
		s.mu.Unlock()
		return
	}

	confirmed := make(map[string]struct{}, len(msgs))
	for i := range msgs {
		if msgs[i].ClientToken != "" {
			confirmed[msgs[i].ClientToken] = struct{}{}
		}
	}

	pending := Filter(s.messages, func(m model.Message) bool {
		if !m.Provisional() {
			return false
		}
		_, ok := confirmed[m.ClientToken]
		return !ok
	})

	s.messages = append(copyMessages(msgs), pending...)

	unseen := false
	for i := range msgs {
		if msgs[i].SenderID != s.userID && !msgs[i].Read {
			unseen = true
			break
		}
	}
	if unseen {
		s.armReadTimerLocked()
	}

	snapshot := copyMessages(s.messages)
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(snapshot)
	}
}

// armReadTimerLocked restarts the debounce window. Each new snapshot
// with unseen messages pushes the mark-read further out; only a quiet
// window triggers it. Caller holds s.mu.
func (s *StreamController) armReadTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}

	generation := s.generation
	conversationID := s.conversationID
	ctx := s.ctx

	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		stale := s.generation != generation
		s.mu.Unlock()
		if stale {
			return
		}

		if err := s.backend.MarkAllRead(ctx, conversationID); err != nil {
			// No rollback or retry; the next snapshot re-arms the timer.
			s.logger.Warn("debounced mark read failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
	})
}

func copyMessages(msgs []model.Message) []model.Message {
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}
