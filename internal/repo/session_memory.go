package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/pkg/gerr"
)

// MemorySession is the process-local session store. All access goes through
// one mutex; reads copy out so callers never share state with the writer.
type MemorySession struct {
	mu       sync.Mutex
	counter  int
	sessions map[int]*model.ImportSession
}

func NewMemorySession() *MemorySession {
	return &MemorySession{
		sessions: make(map[int]*model.ImportSession),
	}
}

func (r *MemorySession) Create(ctx context.Context, session *model.ImportSession) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter++
	stored := session.Clone()
	stored.SessionID = r.counter
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.Status == "" {
		stored.Status = constant.SessionStatusRunning
	}
	for _, pull := range stored.Pulls {
		pull.SessionID = stored.SessionID
	}
	r.sessions[stored.SessionID] = stored

	session.SessionID = stored.SessionID
	session.CreatedAt = stored.CreatedAt
	return stored.SessionID, nil
}

func (r *MemorySession) Update(ctx context.Context, sessionID int, update SessionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return gerr.ErrNotFound
	}
	if update.Status != nil {
		session.Status = *update.Status
	}
	if update.Error != nil {
		session.Error = *update.Error
	}
	if update.Pulls != nil {
		session.Pulls = make([]*model.Pull, len(update.Pulls))
		for i, pull := range update.Pulls {
			clone := pull.Clone()
			clone.SessionID = sessionID
			session.Pulls[i] = clone
		}
	}
	return nil
}

func (r *MemorySession) Get(ctx context.Context, sessionID int) (*model.ImportSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, gerr.ErrNotFound
	}
	return session.Clone(), nil
}

func (r *MemorySession) ListRecent(ctx context.Context) ([]*model.ImportSession, error) {
	r.mu.Lock()
	sessions := make([]*model.ImportSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session.Clone())
	}
	r.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
		}
		return sessions[i].SessionID > sessions[j].SessionID
	})
	return sessions, nil
}

func (r *MemorySession) Latest(ctx context.Context) (*model.ImportSession, error) {
	sessions, err := r.ListRecent(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, gerr.ErrNotFound
	}
	return sessions[0], nil
}
