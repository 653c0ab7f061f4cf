package model

import (
	"time"

	"github.com/uptrace/bun"
)

// ImportSession is one ingestion attempt. It exclusively owns its pulls;
// deleting a session cascades to them.
type ImportSession struct {
	bun.BaseModel `bun:"import_sessions,alias:ims"`

	SessionID      int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	PageURL        string    `json:"page_url"`
	Token          string    `json:"-"`
	ServerID       string    `json:"server_id"`
	Lang           string    `json:"lang"`
	ImportKind     string    `json:"import_kind"`
	SelectedPoolID string    `json:"selected_pool_id,omitempty"`
	Status         string    `json:"status"`
	Error          string    `json:"error"`

	Pulls []*Pull `bun:"rel:has-many,join:session_id=session_id" json:"pulls,omitempty"`
}

// Clone returns a deep copy, pulls included, so readers of the in-memory store
// never share mutable state with the background job.
func (s *ImportSession) Clone() *ImportSession {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Pulls != nil {
		clone.Pulls = make([]*Pull, len(s.Pulls))
		for i, pull := range s.Pulls {
			clone.Pulls[i] = pull.Clone()
		}
	}
	return &clone
}
