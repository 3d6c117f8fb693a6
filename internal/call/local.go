package call

import (
	"context"
	"sync"
)

// LocalProvider is an in-process Provider for development and tests. It
// mints real HMAC tokens but keeps rooms in memory instead of talking
// to a conferencing vendor.
type LocalProvider struct {
	signer *TokenSigner

	mu    sync.Mutex
	rooms map[string]int
}

func NewLocalProvider(signer *TokenSigner) *LocalProvider {
	return &LocalProvider{
		signer: signer,
		rooms:  make(map[string]int),
	}
}

func (p *LocalProvider) Token(_ context.Context, roomID, userID, userName string) (string, error) {
	return p.signer.Mint(roomID, userID, userName)
}

func (p *LocalProvider) Join(_ context.Context, req JoinRequest) (Session, error) {
	if _, _, err := p.signer.Verify(req.Token); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.rooms[req.RoomID]++
	p.mu.Unlock()

	return &localSession{provider: p, roomID: req.RoomID}, nil
}

// Occupancy reports how many sessions are currently in a room.
func (p *LocalProvider) Occupancy(roomID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rooms[roomID]
}

type localSession struct {
	provider *LocalProvider
	roomID   string
	once     sync.Once
}

func (s *localSession) Destroy() error {
	s.once.Do(func() {
		s.provider.mu.Lock()
		defer s.provider.mu.Unlock()
		if n := s.provider.rooms[s.roomID]; n <= 1 {
			delete(s.provider.rooms, s.roomID)
		} else {
			s.provider.rooms[s.roomID] = n - 1
		}
	})
	return nil
}
