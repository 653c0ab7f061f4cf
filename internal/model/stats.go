package model

// PityState is the position inside one pity cycle.
type PityState struct {
	Current   int `json:"current"`
	Remaining int `json:"remaining"`
}

// DashboardCard is one per-pool pity card on the dashboard.
type DashboardCard struct {
	Title          string        `json:"title"`
	SourcePoolType string        `json:"source_pool_type"`
	PoolIDFallback string        `json:"pool_id_fallback"`
	Total          int           `json:"total"`
	SixStarPity    int           `json:"six_star_pity"`
	SixStarLeft    int           `json:"six_star_left"`
	SixStarLimit   int           `json:"six_star_limit"`
	FiveStarPity   int           `json:"five_star_pity"`
	FiveStarLeft   int           `json:"five_star_left"`
	FiveStarLimit  int           `json:"five_star_limit"`
	HistoryRows    []*HistoryRow `json:"history_rows"`
}

// HistoryRow is one dashboard table row with the pity index the pull landed on.
type HistoryRow struct {
	Name      string `json:"name"`
	GachaTs   int64  `json:"gacha_ts,omitempty"`
	Rarity    int    `json:"rarity"`
	Guarantee int    `json:"guarantee"`
}

// VersionTopStats aggregates top-character drops for the latest version that
// has banners.
type VersionTopStats struct {
	VersionLabel           string           `json:"version_label"`
	TotalTopDrops          int              `json:"total_top_drops"`
	TrackedCharactersCount int              `json:"tracked_characters_count"`
	Stats                  []*VersionTopRow `json:"stats"`
}

type VersionTopRow struct {
	CharacterCode string `json:"character_code"`
	CharacterName string `json:"character_name"`
	IconURL       string `json:"icon_url"`
	DropCount     int    `json:"drop_count"`
	// CurrentBannerDropCount restricts the count to the character's own
	// banner pool id; DropCount credits the whole version.
	CurrentBannerDropCount int     `json:"current_banner_drop_count"`
	SharePercent           float64 `json:"share_percent"`
}
