package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/repo/selector"
)

// PgSession is the durable session store. A session and its pulls are always
// written inside one transaction so a reader never observes a partial pull set.
type PgSession struct {
	db  *bun.DB
	sel selector.S[model.ImportSession]
}

func NewPgSession(db *bun.DB) *PgSession {
	return &PgSession{
		db:  db,
		sel: selector.New[model.ImportSession](db),
	}
}

func (r *PgSession) Create(ctx context.Context, session *model.ImportSession) (int, error) {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if session.Status == "" {
		session.Status = constant.SessionStatusRunning
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(session).
			Returning("session_id").
			Exec(ctx); err != nil {
			return err
		}
		if len(session.Pulls) == 0 {
			return nil
		}
		for _, pull := range session.Pulls {
			pull.SessionID = session.SessionID
		}
		_, err := tx.NewInsert().Model(&session.Pulls).Exec(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return session.SessionID, nil
}

func (r *PgSession) Update(ctx context.Context, sessionID int, update SessionUpdate) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*model.ImportSession)(nil)).
			Where("session_id = ?", sessionID)
		touched := false
		if update.Status != nil {
			q = q.Set("status = ?", *update.Status)
			touched = true
		}
		if update.Error != nil {
			q = q.Set("error = ?", *update.Error)
			touched = true
		}
		if touched {
			if _, err := q.Exec(ctx); err != nil {
				return err
			}
		}

		if update.Pulls == nil {
			return nil
		}
		if _, err := tx.NewDelete().
			Model((*model.Pull)(nil)).
			Where("session_id = ?", sessionID).
			Exec(ctx); err != nil {
			return err
		}
		if len(update.Pulls) == 0 {
			return nil
		}
		pulls := make([]*model.Pull, len(update.Pulls))
		for i, pull := range update.Pulls {
			clone := pull.Clone()
			clone.SessionID = sessionID
			pulls[i] = clone
		}
		_, err := tx.NewInsert().Model(&pulls).Exec(ctx)
		return err
	})
}

func (r *PgSession) Get(ctx context.Context, sessionID int) (*model.ImportSession, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Pulls").Where("session_id = ?", sessionID)
	})
}

func (r *PgSession) ListRecent(ctx context.Context) ([]*model.ImportSession, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Pulls").Order("created_at DESC", "session_id DESC")
	})
}

func (r *PgSession) Latest(ctx context.Context) (*model.ImportSession, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Pulls").Order("created_at DESC", "session_id DESC").Limit(1)
	})
}
