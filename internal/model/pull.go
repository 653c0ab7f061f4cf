package model

import (
	"github.com/goccy/go-json"

	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"
)

// Pull is a single drop record captured during an import session. Never
// mutated after creation. Within one session (PoolID, SeqID) is unique.
type Pull struct {
	bun.BaseModel `bun:"pulls,alias:p"`

	PullID    int64 `bun:",pk,autoincrement" json:"-"`
	SessionID int   `json:"-"`

	PoolID   string `json:"pool_id"`
	PoolName string `json:"pool_name"`
	CharID   string `json:"char_id"`
	CharName string `json:"char_name"`
	Rarity   int    `json:"rarity"`
	IsFree   bool   `json:"is_free"`
	IsNew    bool   `json:"is_new"`

	// GachaTs is the drop time in epoch milliseconds. Invalid means the
	// upstream did not report a time; it is never stored as 0.
	GachaTs null.Int `bun:",nullzero" json:"gacha_ts"`

	// SeqID is the upstream-assigned monotonic id within a pool, used for
	// pagination cursoring and dedup.
	SeqID int64 `json:"seq_id"`

	SourcePoolType string `json:"source_pool_type"`
	ItemType       string `json:"item_type"`
	WeaponID       string `json:"weapon_id,omitempty"`
	WeaponName     string `json:"weapon_name,omitempty"`

	// Raw preserves the upstream record verbatim for forward compatibility.
	Raw json.RawMessage `bun:"type:jsonb" json:"raw,omitempty"`
}

// Clone returns a deep copy so store readers can never observe torn writes.
func (p *Pull) Clone() *Pull {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Raw != nil {
		clone.Raw = make(json.RawMessage, len(p.Raw))
		copy(clone.Raw, p.Raw)
	}
	return &clone
}
