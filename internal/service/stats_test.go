package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/repo"
)

func TestPityState(t *testing.T) {
	// most recent first: 4, 4, 6, 5, 4
	rarities := []int{4, 4, 6, 5, 4}

	six := PityState(rarities, sixStarResets, 80)
	assert.Equal(t, 2, six.Current)
	assert.Equal(t, 78, six.Remaining)

	five := PityState(rarities, fiveStarOrBetterResets, 10)
	assert.Equal(t, 2, five.Current)
	assert.Equal(t, 8, five.Remaining)
}

func TestPityStateNoResetFound(t *testing.T) {
	state := PityState([]int{4, 4, 4}, sixStarResets, 80)
	assert.Equal(t, 3, state.Current)
	assert.Equal(t, 77, state.Remaining)
}

func TestPityStateRemainingNeverNegative(t *testing.T) {
	rarities := make([]int, 15)
	for i := range rarities {
		rarities[i] = 4
	}
	state := PityState(rarities, fiveStarOrBetterResets, 10)
	assert.Equal(t, 15, state.Current)
	assert.Zero(t, state.Remaining)
}

func TestBuildHistoryRowsTripleCounters(t *testing.T) {
	// newest first; chronological order is 4, 5, 4, 6
	pulls := NormalizeRecords([]FetchedRecord{
		record(`{"pool_id":"special_1_0_1","seq_id":4,"rarity":6,"gacha_ts":400}`),
		record(`{"pool_id":"special_1_0_1","seq_id":3,"rarity":4,"gacha_ts":300}`),
		record(`{"pool_id":"special_1_0_1","seq_id":2,"rarity":5,"gacha_ts":200}`),
		record(`{"pool_id":"special_1_0_1","seq_id":1,"rarity":4,"gacha_ts":100}`),
	})
	require.Len(t, pulls, 4)

	rows := BuildHistoryRows(pulls)
	require.Len(t, rows, 4)

	// rows stay newest first, guarantee counters walk chronologically:
	// 4* lands on pity4=1; 5* on pity5=2; 4* on pity4=1 (reset by the 5*);
	// 6* on pity6=4.
	assert.Equal(t, 4, rows[0].Guarantee)
	assert.Equal(t, 1, rows[1].Guarantee)
	assert.Equal(t, 2, rows[2].Guarantee)
	assert.Equal(t, 1, rows[3].Guarantee)
}

func newStatsService(t *testing.T) (*StatsService, repo.SessionStore, repo.BannerCatalog) {
	t.Helper()
	sessions := repo.NewMemorySession()
	banners := repo.NewMemoryBannerCatalog()
	return NewStatsService(sessions, banners, repo.NewCharacterCatalog()), sessions, banners
}

func TestDashboardZeroState(t *testing.T) {
	svc, _, _ := newStatsService(t)

	cards, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, len(constant.DashboardPools))

	for _, card := range cards {
		assert.Zero(t, card.Total)
		assert.Zero(t, card.SixStarPity)
		assert.Equal(t, card.SixStarLimit, card.SixStarLeft)
		assert.Empty(t, card.HistoryRows)
	}
	assert.Equal(t, 80, cards[0].SixStarLimit)
	assert.Equal(t, 40, cards[3].SixStarLimit)
}

func TestDashboardComputesPityPerPool(t *testing.T) {
	svc, sessions, _ := newStatsService(t)
	ctx := context.Background()

	session := sessionWithPulls(t, []string{
		`{"pool_id":"special_1_0_1","source_pool_type":"E_CharacterGachaPoolType_Special","seq_id":5,"rarity":4,"gacha_ts":500}`,
		`{"pool_id":"special_1_0_1","source_pool_type":"E_CharacterGachaPoolType_Special","seq_id":4,"rarity":6,"gacha_ts":400}`,
		`{"pool_id":"weponbox_1","source_pool_type":"E_WeaponGachaPoolType_Weapon","seq_id":3,"rarity":5,"gacha_ts":300}`,
	})
	_, err := sessions.Create(ctx, session)
	require.NoError(t, err)

	cards, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	special := cards[0]
	assert.Equal(t, 2, special.Total)
	assert.Equal(t, 1, special.SixStarPity)
	assert.Equal(t, 79, special.SixStarLeft)

	weapon := cards[3]
	assert.Equal(t, 1, weapon.Total)
	assert.Zero(t, weapon.FiveStarPity)
	assert.Equal(t, 10, weapon.FiveStarLeft)

	standard := cards[1]
	assert.Zero(t, standard.Total)
}

func TestDashboardPoolIDFallback(t *testing.T) {
	svc, sessions, _ := newStatsService(t)
	ctx := context.Background()

	// pulls restored from a legacy payload carry no source pool type
	session := sessionWithPulls(t, []string{
		`{"pool_id":"standard","seq_id":1,"rarity":5,"gacha_ts":100}`,
	})
	_, err := sessions.Create(ctx, session)
	require.NoError(t, err)

	cards, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cards[1].Total)
}

func TestVersionTopNoBanners(t *testing.T) {
	svc, _, _ := newStatsService(t)

	stats, err := svc.VersionTop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestVersionTopTracksAtMostThreeBanners(t *testing.T) {
	svc, sessions, banners := newStatsService(t)
	ctx := context.Background()

	codes := []string{"laevatain", "ember", "yvonne", "gilberta"}
	for i, code := range codes {
		require.NoError(t, banners.Put(ctx, &model.Banner{
			PoolID:           "special_1_2_" + strconv.Itoa(i+1),
			TopCharacterCode: code,
		}))
	}

	session := sessionWithPulls(t, []string{
		`{"pool_id":"special_1_2_1","char_name":"Лэватейн","rarity":6,"seq_id":1,"gacha_ts":100}`,
		`{"pool_id":"special_1_2_2","char_name":"Ember","rarity":6,"seq_id":2,"gacha_ts":200}`,
		`{"pool_id":"special_1_2_3","char_name":"Yvonne","rarity":6,"seq_id":3,"gacha_ts":300}`,
		`{"pool_id":"special_1_2_4","char_name":"Gilberta","rarity":6,"seq_id":4,"gacha_ts":400}`,
	})
	_, err := sessions.Create(ctx, session)
	require.NoError(t, err)

	stats, err := svc.VersionTop(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, "1.2", stats.VersionLabel)
	assert.Equal(t, 3, stats.TrackedCharactersCount)
	require.Len(t, stats.Stats, 3)
	assert.Equal(t, 3, stats.TotalTopDrops)
	for _, row := range stats.Stats {
		assert.NotEqual(t, "gilberta", row.CharacterCode)
	}
}

func TestVersionTopCrossBannerCrediting(t *testing.T) {
	svc, sessions, banners := newStatsService(t)
	ctx := context.Background()

	require.NoError(t, banners.Put(ctx, &model.Banner{PoolID: "special_1_0_1", TopCharacterCode: "laevatain"}))
	require.NoError(t, banners.Put(ctx, &model.Banner{PoolID: "special_1_0_2", TopCharacterCode: "ember"}))

	// every Laevatain drop is tagged with Ember's banner pool
	session := sessionWithPulls(t, []string{
		`{"pool_id":"special_1_0_2","char_name":"Laevatain","rarity":6,"seq_id":1,"gacha_ts":100}`,
		`{"pool_id":"special_1_0_2","char_name":"Лэватейн","rarity":6,"seq_id":2,"gacha_ts":200}`,
		`{"pool_id":"special_1_0_2","char_name":"laevatain","rarity":6,"seq_id":3,"gacha_ts":300}`,
	})
	_, err := sessions.Create(ctx, session)
	require.NoError(t, err)

	stats, err := svc.VersionTop(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats)
	require.Len(t, stats.Stats, 2)

	// rows are ordered by drop count
	top := stats.Stats[0]
	assert.Equal(t, "laevatain", top.CharacterCode)
	assert.Equal(t, 3, top.DropCount)
	assert.Zero(t, top.CurrentBannerDropCount)
	assert.InDelta(t, 100.0, top.SharePercent, 0.001)

	assert.Zero(t, stats.Stats[1].DropCount)
	assert.Zero(t, stats.Stats[1].SharePercent)
}

func TestVersionTopPicksLatestVersion(t *testing.T) {
	svc, _, banners := newStatsService(t)
	ctx := context.Background()

	require.NoError(t, banners.Put(ctx, &model.Banner{PoolID: "special_1_0_1", TopCharacterCode: "ember"}))
	require.NoError(t, banners.Put(ctx, &model.Banner{PoolID: "special_1_2_1", TopCharacterCode: "yvonne"}))

	stats, err := svc.VersionTop(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, "1.2", stats.VersionLabel)
	require.Len(t, stats.Stats, 1)
	assert.Equal(t, "yvonne", stats.Stats[0].CharacterCode)
}

func TestNormalizeCharacterKey(t *testing.T) {
	assert.Equal(t, "chenqianyu", normalizeCharacterKey("Chen-Qianyu"))
	assert.Equal(t, "chenqianyu", normalizeCharacterKey("  chen qianyu "))
	assert.Equal(t, "лэватейн", normalizeCharacterKey("Лэватейн"))
	assert.Empty(t, normalizeCharacterKey("--__--"))
}

func TestParseSpecialPoolID(t *testing.T) {
	version, ok := parseSpecialPoolID("special_2_11_3")
	require.True(t, ok)
	assert.Equal(t, poolVersion{major: 2, minor: 11, n: 3}, version)

	_, ok = parseSpecialPoolID("weponbox_1")
	assert.False(t, ok)
	_, ok = parseSpecialPoolID("special_x_1_1")
	assert.False(t, ok)
	_, ok = parseSpecialPoolID("special_1_1")
	assert.False(t, ok)
}
