package model

import (
	"time"

	"github.com/uptrace/bun"
)

// Banner is marketing metadata for one limited pool, consumed read-only by the
// stats engine. Pool ids follow the special_<major>_<minor>_<n> pattern.
// At most one banner per (major, minor) version is active at a time.
type Banner struct {
	bun.BaseModel `bun:"banners,alias:b"`

	BannerID     int    `bun:",pk,autoincrement" json:"id"`
	PoolID       string `json:"pool_id"`
	VersionMajor int    `json:"version_major"`
	VersionMinor int    `json:"version_minor"`
	Number       int    `json:"number"`

	TopCharacterCode      string   `json:"top_character_code"`
	SixStarCharacterCodes []string `bun:",array" json:"six_star_character_codes"`

	Active  bool       `json:"active"`
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
}
