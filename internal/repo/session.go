package repo

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/endfieldpass/backend/internal/app/appconfig"
	"github.com/endfieldpass/backend/internal/model"
)

// SessionUpdate carries a partial session mutation. Nil fields are left
// untouched; a non-nil Pulls replaces the whole pull set.
type SessionUpdate struct {
	Status *string
	Error  *string
	Pulls  []*model.Pull
}

// SessionStore holds import sessions and their pulls. Exactly one background
// job ever writes to a given session id, so last-writer-wins merging is enough.
//
// Two implementations exist: a process-local in-memory store (default; history
// is lost on restart by design) and a bun-backed durable store where a session
// and its pulls are written inside one transaction.
type SessionStore interface {
	Create(ctx context.Context, session *model.ImportSession) (int, error)
	Update(ctx context.Context, sessionID int, update SessionUpdate) error
	Get(ctx context.Context, sessionID int) (*model.ImportSession, error)
	ListRecent(ctx context.Context) ([]*model.ImportSession, error)
	Latest(ctx context.Context) (*model.ImportSession, error)
}

// NewSessionStore picks the implementation selected by the store driver config.
func NewSessionStore(conf *appconfig.Config, db *bun.DB) SessionStore {
	if conf.StoreDriver == appconfig.StoreDriverPostgres {
		return NewPgSession(db)
	}
	return NewMemorySession()
}
