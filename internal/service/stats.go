package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/pkg/gerr"
	"github.com/endfieldpass/backend/internal/repo"
)

// PityCounter counts pulls since the latest reset-rarity hit in a
// newest-first rarity sequence. The resetting pull itself is not counted;
// with no hit the count is the full length.
func PityCounter(raritiesDesc []int, resetRarities map[int]struct{}) int {
	counter := 0
	for _, rarity := range raritiesDesc {
		if _, ok := resetRarities[rarity]; ok {
			return counter
		}
		counter++
	}
	return counter
}

// PityState pairs the current counter with the distance to the hard ceiling.
func PityState(raritiesDesc []int, resetRarities map[int]struct{}, hardLimit int) model.PityState {
	current := PityCounter(raritiesDesc, resetRarities)
	remaining := hardLimit - current
	if remaining < 0 {
		remaining = 0
	}
	return model.PityState{Current: current, Remaining: remaining}
}

var (
	sixStarResets          = map[int]struct{}{6: {}}
	fiveStarOrBetterResets = map[int]struct{}{5: {}, 6: {}}
)

// StatsService computes read-side statistics over the latest completed
// session. All computation is in-memory and deterministic; the repos only
// supply inputs.
type StatsService struct {
	sessions   repo.SessionStore
	banners    repo.BannerCatalog
	characters *repo.CharacterCatalog
}

func NewStatsService(sessions repo.SessionStore, banners repo.BannerCatalog, characters *repo.CharacterCatalog) *StatsService {
	return &StatsService{
		sessions:   sessions,
		banners:    banners,
		characters: characters,
	}
}

// latestDone returns the newest session with status done, or nil when none
// exists yet.
func (s *StatsService) latestDone(ctx context.Context) (*model.ImportSession, error) {
	sessions, err := s.sessions.ListRecent(ctx)
	if err != nil {
		if errors.Is(err, gerr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	for _, session := range sessions {
		if session.Status == constant.SessionStatusDone {
			return session, nil
		}
	}
	return nil, nil
}

// Dashboard builds the per-pool pity cards. Pools with no completed session
// keep their zero state so the page renders the same shape regardless.
func (s *StatsService) Dashboard(ctx context.Context) ([]*model.DashboardCard, error) {
	session, err := s.latestDone(ctx)
	if err != nil {
		return nil, err
	}

	cards := make([]*model.DashboardCard, 0, len(constant.DashboardPools))
	for _, spec := range constant.DashboardPools {
		card := &model.DashboardCard{
			Title:          spec.Title,
			SourcePoolType: spec.SourcePoolType,
			PoolIDFallback: spec.PoolIDFallback,
			SixStarLeft:    spec.SixStarLimit,
			SixStarLimit:   spec.SixStarLimit,
			FiveStarLeft:   spec.FiveStarLimit,
			FiveStarLimit:  spec.FiveStarLimit,
			HistoryRows:    []*model.HistoryRow{},
		}
		if session != nil {
			pulls := matchPoolPulls(session.Pulls, spec)
			rarities := make([]int, len(pulls))
			for i, pull := range pulls {
				rarities[i] = pull.Rarity
			}

			six := PityState(rarities, sixStarResets, spec.SixStarLimit)
			five := PityState(rarities, fiveStarOrBetterResets, spec.FiveStarLimit)

			card.Total = len(pulls)
			card.SixStarPity = six.Current
			card.SixStarLeft = six.Remaining
			card.FiveStarPity = five.Current
			card.FiveStarLeft = five.Remaining
			card.HistoryRows = BuildHistoryRows(pulls)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// matchPoolPulls selects the session pulls belonging to one dashboard pool,
// preferring the source pool type and falling back to a pool id substring
// for records imported from payloads that never carried a source type.
func matchPoolPulls(pulls []*model.Pull, spec constant.DashboardPool) []*model.Pull {
	var matched []*model.Pull
	fallback := strings.ToLower(spec.PoolIDFallback)
	for _, pull := range pulls {
		if pull.SourcePoolType == spec.SourcePoolType {
			matched = append(matched, pull)
			continue
		}
		if pull.SourcePoolType == "" && fallback != "" &&
			strings.Contains(strings.ToLower(pull.PoolID), fallback) {
			matched = append(matched, pull)
		}
	}
	return matched
}

// BuildHistoryRows walks newest-first pulls in chronological order keeping
// three simultaneous pity counters; each row records the counter value its
// rarity tier landed on. 6-star pulls reset every counter, 5-star pulls the
// five and four tier, 4-star pulls only their own.
func BuildHistoryRows(pulls []*model.Pull) []*model.HistoryRow {
	rows := make([]*model.HistoryRow, len(pulls))

	pity6, pity5, pity4 := 0, 0, 0
	for i := len(pulls) - 1; i >= 0; i-- {
		pull := pulls[i]
		pity6++
		pity5++
		pity4++

		guarantee := pity4
		switch pull.Rarity {
		case 6:
			guarantee = pity6
			pity6, pity5, pity4 = 0, 0, 0
		case 5:
			guarantee = pity5
			pity5, pity4 = 0, 0
		case 4:
			guarantee = pity4
			pity4 = 0
		}

		name := pull.CharName
		if name == "" {
			name = pull.CharID
		}
		rows[i] = &model.HistoryRow{
			Name:      name,
			GachaTs:   pull.GachaTs.ValueOrZero(),
			Rarity:    pull.Rarity,
			Guarantee: guarantee,
		}
	}
	return rows
}

// poolVersion is a (major, minor, n) triple parsed from a special pool id.
type poolVersion struct {
	major, minor, n int
}

// parseSpecialPoolID parses pool ids shaped special_<major>_<minor>_<n>.
func parseSpecialPoolID(poolID string) (poolVersion, bool) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(poolID)), "_")
	if len(parts) != 4 || parts[0] != "special" {
		return poolVersion{}, false
	}
	major, err := strconv.Atoi(parts[1])
	if err != nil {
		return poolVersion{}, false
	}
	minor, err := strconv.Atoi(parts[2])
	if err != nil {
		return poolVersion{}, false
	}
	n, err := strconv.Atoi(parts[3])
	if err != nil {
		return poolVersion{}, false
	}
	return poolVersion{major: major, minor: minor, n: n}, true
}

// normalizeCharacterKey lowercases and strips punctuation, underscores and
// spaces so upstream name variants collapse to one key.
func normalizeCharacterKey(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// characterKeys builds every matching key for one catalog character.
func characterKeys(character *model.StaticCharacter) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, name := range character.AllNames() {
		if key := normalizeCharacterKey(name); key != "" {
			keys[key] = struct{}{}
		}
	}
	if key := normalizeCharacterKey(character.Code); key != "" {
		keys[key] = struct{}{}
	}
	return keys
}

// VersionTop aggregates top-character drop counts for the newest version
// that has banners. Returns nil when the catalog holds no parseable banner;
// the controller renders a zero-filled card in that case.
func (s *StatsService) VersionTop(ctx context.Context) (*model.VersionTopStats, error) {
	banners, err := s.banners.List(ctx)
	if err != nil && !errors.Is(err, gerr.ErrNotFound) {
		return nil, err
	}

	type versionedBanner struct {
		banner  *model.Banner
		version poolVersion
	}
	var parsed []versionedBanner
	for _, banner := range banners {
		version, ok := parseSpecialPoolID(banner.PoolID)
		if !ok {
			if banner.VersionMajor == 0 && banner.VersionMinor == 0 {
				continue
			}
			version = poolVersion{major: banner.VersionMajor, minor: banner.VersionMinor, n: banner.Number}
		}
		parsed = append(parsed, versionedBanner{banner: banner, version: version})
	}
	if len(parsed) == 0 {
		return nil, nil
	}

	latest := parsed[0].version
	for _, vb := range parsed[1:] {
		if vb.version.major > latest.major ||
			(vb.version.major == latest.major && vb.version.minor > latest.minor) {
			latest = vb.version
		}
	}

	var tracked []versionedBanner
	for _, vb := range parsed {
		if vb.version.major == latest.major && vb.version.minor == latest.minor {
			tracked = append(tracked, vb)
		}
	}
	sort.SliceStable(tracked, func(i, j int) bool {
		return tracked[i].version.n < tracked[j].version.n
	})
	if len(tracked) > constant.VersionTopTrackedBanners {
		tracked = tracked[:constant.VersionTopTrackedBanners]
	}

	session, err := s.latestDone(ctx)
	if err != nil {
		return nil, err
	}

	// versionPulls carries every pull whose pool belongs to the latest
	// version, banner boundaries ignored.
	var versionPulls []*model.Pull
	if session != nil {
		for _, pull := range session.Pulls {
			if version, ok := parseSpecialPoolID(pull.PoolID); ok &&
				version.major == latest.major && version.minor == latest.minor {
				versionPulls = append(versionPulls, pull)
			}
		}
	}

	stats := &model.VersionTopStats{
		VersionLabel:           strconv.Itoa(latest.major) + "." + strconv.Itoa(latest.minor),
		TrackedCharactersCount: len(tracked),
		Stats:                  make([]*model.VersionTopRow, 0, len(tracked)),
	}

	for _, vb := range tracked {
		character := s.characters.ByCode(vb.banner.TopCharacterCode)
		row := &model.VersionTopRow{
			CharacterCode: vb.banner.TopCharacterCode,
		}
		keys := map[string]struct{}{}
		if character != nil {
			row.CharacterName = character.Name
			row.IconURL = character.IconURL
			keys = characterKeys(character)
		} else {
			row.CharacterName = vb.banner.TopCharacterCode
			if key := normalizeCharacterKey(vb.banner.TopCharacterCode); key != "" {
				keys[key] = struct{}{}
			}
		}

		for _, pull := range versionPulls {
			if !matchesCharacter(pull, keys) {
				continue
			}
			row.DropCount++
			if strings.EqualFold(strings.TrimSpace(pull.PoolID), strings.TrimSpace(vb.banner.PoolID)) {
				row.CurrentBannerDropCount++
			}
		}

		stats.TotalTopDrops += row.DropCount
		stats.Stats = append(stats.Stats, row)
	}

	for _, row := range stats.Stats {
		if stats.TotalTopDrops > 0 {
			row.SharePercent = float64(row.DropCount) / float64(stats.TotalTopDrops) * 100
		}
	}
	sort.SliceStable(stats.Stats, func(i, j int) bool {
		return stats.Stats[i].DropCount > stats.Stats[j].DropCount
	})
	return stats, nil
}

func matchesCharacter(pull *model.Pull, keys map[string]struct{}) bool {
	for _, candidate := range []string{pull.CharName, pull.CharID} {
		key := normalizeCharacterKey(candidate)
		if key == "" {
			continue
		}
		if _, ok := keys[key]; ok {
			return true
		}
	}
	return false
}
