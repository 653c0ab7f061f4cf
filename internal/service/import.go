package service

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/model/types"
	"github.com/endfieldpass/backend/internal/pkg/gerr"
	"github.com/endfieldpass/backend/internal/repo"
)

// PageURLDetails are the import parameters recoverable from a pasted game
// history page URL.
type PageURLDetails struct {
	Token      string
	ServerID   string
	Lang       string
	ImportKind string
	PoolID     string
}

// ParsePageURL extracts token/server/lang/kind/pool from the webview URL the
// game hands out. Unparseable URLs degrade to defaults rather than failing;
// the caller still validates that a token and server id came from somewhere.
func ParsePageURL(pageURL string) PageURLDetails {
	details := PageURLDetails{
		Lang:       constant.DefaultLang,
		ImportKind: constant.ImportKindCharacter,
	}
	if pageURL == "" {
		return details
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return details
	}
	query := parsed.Query()

	if strings.Contains(strings.ToLower(parsed.Path), "gacha_weapon") {
		details.ImportKind = constant.ImportKindWeapon
	}
	details.Token = firstQuery(query, "u8_token", "token")
	details.ServerID = firstQuery(query, "server", "server_id")
	if lang := firstQuery(query, "lang"); lang != "" {
		details.Lang = lang
	}
	details.PoolID = firstQuery(query, "pool_id")
	return details
}

func firstQuery(query url.Values, keys ...string) string {
	for _, key := range keys {
		if value := query.Get(key); value != "" {
			return value
		}
	}
	return ""
}

// ImportService owns the ingestion lifecycle: session creation, the
// background fetch job, and the status/pull read APIs.
type ImportService struct {
	aggregator *Aggregator
	sessions   repo.SessionStore
	progress   *repo.ProgressTracker
}

func NewImportService(aggregator *Aggregator, sessions repo.SessionStore, progress *repo.ProgressTracker) *ImportService {
	return &ImportService{
		aggregator: aggregator,
		sessions:   sessions,
		progress:   progress,
	}
}

// CreateSession validates the request, records a running session and spawns
// the background job.
func (s *ImportService) CreateSession(ctx context.Context, req *types.CreateSessionRequest) (*types.CreateSessionResponse, error) {
	token := strings.TrimSpace(req.Token)
	serverID := strings.TrimSpace(req.ServerID)
	pageURL := strings.TrimSpace(req.PageURL)
	lang := strings.TrimSpace(req.Lang)
	importKind := strings.ToLower(strings.TrimSpace(req.ImportKind))
	selectedPoolID := ""

	if pageURL != "" {
		details := ParsePageURL(pageURL)
		if importKind == "" {
			importKind = details.ImportKind
		}
		selectedPoolID = details.PoolID
		if token == "" {
			token = details.Token
		}
		if serverID == "" {
			serverID = details.ServerID
		}
		if lang == "" {
			lang = details.Lang
		}
	}
	if lang == "" {
		lang = constant.DefaultLang
	}
	if importKind != constant.ImportKindCharacter && importKind != constant.ImportKindWeapon {
		importKind = constant.ImportKindCharacter
	}
	if token == "" || serverID == "" {
		return nil, gerr.ErrInvalidReq.Msg("missing token/server_id")
	}

	session := &model.ImportSession{
		PageURL:        pageURL,
		Token:          token,
		ServerID:       serverID,
		Lang:           lang,
		ImportKind:     importKind,
		SelectedPoolID: selectedPoolID,
		Status:         constant.SessionStatusRunning,
		Pulls:          []*model.Pull{},
	}
	sessionID, err := s.sessions.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	s.progress.Set(sessionID, repo.ProgressUpdate{
		Status:   lo.ToPtr(constant.SessionStatusRunning),
		Progress: lo.ToPtr(1),
		Message:  lo.ToPtr("Preparing import."),
	})

	go s.runJob(sessionID, session)

	return &types.CreateSessionResponse{
		SessionID: sessionID,
		Status:    session.Status,
	}, nil
}

// runJob fetches character and weapon history in one pass, normalizes and
// dedups it, then lands the result in the session store. It runs detached
// from the request that spawned it.
func (s *ImportService) runJob(sessionID int, session *model.ImportSession) {
	ctx := context.Background()
	l := log.With().Str("service", "import").Int("sessionID", sessionID).Logger()

	s.setProgress(sessionID, 3, "Preparing import.")

	onCharacterProgress := func(p PoolProgress) {
		s.poolProgress(sessionID, p, 5, 55)
	}
	onWeaponProgress := func(p PoolProgress) {
		s.poolProgress(sessionID, p, 65, 25)
	}

	characterItems, err := s.aggregator.FetchAllCharacterRecords(ctx, session.Token, session.ServerID, session.Lang, onCharacterProgress)
	if err == nil {
		var weaponItems []FetchedRecord
		weaponItems, err = s.aggregator.FetchAllWeaponRecords(ctx, session.Token, session.ServerID, session.Lang, session.SelectedPoolID, onWeaponProgress)
		if err == nil {
			pulls := NormalizeRecords(append(characterItems, weaponItems...))

			s.setProgress(sessionID, 92, "Processing records.")
			if len(pulls) > 0 {
				s.setProgress(sessionID, 99, "Saving records.")
			}

			err = s.sessions.Update(ctx, sessionID, repo.SessionUpdate{
				Status: lo.ToPtr(constant.SessionStatusDone),
				Error:  lo.ToPtr(""),
				Pulls:  pulls,
			})
			if err == nil {
				s.progress.Set(sessionID, repo.ProgressUpdate{
					Status:   lo.ToPtr(constant.SessionStatusDone),
					Progress: lo.ToPtr(100),
					Message:  lo.ToPtr("Import finished."),
				})
				l.Info().Int("pulls", len(pulls)).Msg("import session finished")
				return
			}
		}
	}

	l.Error().Err(err).Msg("import session failed")
	if updateErr := s.sessions.Update(ctx, sessionID, repo.SessionUpdate{
		Status: lo.ToPtr(constant.SessionStatusError),
		Error:  lo.ToPtr(err.Error()),
		Pulls:  []*model.Pull{},
	}); updateErr != nil {
		l.Error().Err(updateErr).Msg("failed to record import failure")
	}
	s.progress.Set(sessionID, repo.ProgressUpdate{
		Status:   lo.ToPtr(constant.SessionStatusError),
		Progress: lo.ToPtr(100),
		Message:  lo.ToPtr("Import failed."),
		Error:    lo.ToPtr(err.Error()),
	})
}

// NormalizeRecords converts raw records to canonical pulls, drops duplicates
// by (pool_id, seq_id) and sorts newest-first by (gacha_ts, seq_id).
func NormalizeRecords(records []FetchedRecord) []*model.Pull {
	pulls := make([]*model.Pull, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		pull := NormalizePull(record)
		key := dedupKey(pull)
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		pulls = append(pulls, pull)
	}

	sort.SliceStable(pulls, func(i, j int) bool {
		a, b := pulls[i], pulls[j]
		if a.GachaTs.ValueOrZero() != b.GachaTs.ValueOrZero() {
			return a.GachaTs.ValueOrZero() > b.GachaTs.ValueOrZero()
		}
		return a.SeqID > b.SeqID
	})
	return pulls
}

func dedupKey(pull *model.Pull) string {
	poolID := strings.TrimSpace(pull.PoolID)
	if poolID == "" || pull.SeqID == 0 {
		return ""
	}
	return poolID + ":" + strconv.FormatInt(pull.SeqID, 10)
}

func (s *ImportService) poolProgress(sessionID int, p PoolProgress, base, span int) {
	total := p.Total
	if total < 1 {
		total = 1
	}
	var percent int
	var message string
	if p.Stage == StageStart {
		percent = base + (p.Index-1)*span/total
		message = "Loading " + poolLabel(p) + "."
	} else {
		percent = base + p.Index*span/total
		message = "Processing records."
	}
	s.setProgress(sessionID, percent, message)
}

func poolLabel(p PoolProgress) string {
	for _, pool := range constant.DashboardPools {
		if pool.SourcePoolType == p.PoolType && p.PoolID == "" {
			return pool.Title
		}
	}
	if p.PoolName != "" {
		return p.PoolName
	}
	if p.PoolID != "" {
		return p.PoolID
	}
	if strings.Contains(strings.ToLower(p.PoolType), "weapon") {
		return "Weapon"
	}
	return "Banner"
}

func (s *ImportService) setProgress(sessionID, percent int, message string) {
	s.progress.Set(sessionID, repo.ProgressUpdate{
		Status:   lo.ToPtr(constant.SessionStatusRunning),
		Progress: lo.ToPtr(percent),
		Message:  lo.ToPtr(message),
	})
}

// Status reports session progress for the polling endpoint. Progress is
// forced to 100 once the session is done; sessions with no tracked progress
// report 100 when terminal and 0 otherwise.
func (s *ImportService) Status(ctx context.Context, sessionID int) (*model.SessionStatus, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snapshot := s.progress.Get(sessionID)

	percent := snapshot.Progress
	if snapshot.Status == "" {
		if session.Status == constant.SessionStatusDone || session.Status == constant.SessionStatusError {
			percent = 100
		} else {
			percent = 0
		}
	}
	if session.Status == constant.SessionStatusDone {
		percent = 100
	}
	message := snapshot.Message
	if message == "" {
		message = "Processing records."
	}

	status := session.Status
	if status == "" {
		status = constant.SessionStatusRunning
	}
	return &model.SessionStatus{
		SessionID: sessionID,
		Status:    status,
		Progress:  percent,
		Message:   message,
		Error:     session.Error,
		PullCount: len(session.Pulls),
	}, nil
}

// Sessions lists recent sessions, newest first, without pull bodies.
func (s *ImportService) Sessions(ctx context.Context) ([]*model.ImportSession, error) {
	sessions, err := s.sessions.ListRecent(ctx)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		session.Pulls = nil
	}
	return sessions, nil
}

// SessionPulls returns every pull of one session.
func (s *ImportService) SessionPulls(ctx context.Context, sessionID int) (*model.ImportSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// PullsQuery filters the pull listing endpoint. SessionID nil selects the
// latest session; Limit nil takes the default cap.
type PullsQuery struct {
	SessionID *int
	PoolID    string
	Limit     *int
}

// PullsResult is the pull listing payload. SessionID stays null when no
// session exists at all.
type PullsResult struct {
	SessionID *int          `json:"session_id"`
	PoolID    *string       `json:"pool_id"`
	Count     int           `json:"count"`
	Items     []*model.Pull `json:"items"`
}

const (
	pullsLimitDefault = 5000
	pullsLimitMax     = 5000
)

// Pulls lists pulls of one session (the latest when unspecified), optionally
// filtered by pool, sorted seq_id descending.
func (s *ImportService) Pulls(ctx context.Context, query PullsQuery) (*PullsResult, error) {
	limit := pullsLimitDefault
	if query.Limit != nil {
		limit = *query.Limit
		if limit < 1 {
			limit = 1
		}
		if limit > pullsLimitMax {
			limit = pullsLimitMax
		}
	}

	var (
		session *model.ImportSession
		err     error
	)
	if query.SessionID != nil {
		session, err = s.sessions.Get(ctx, *query.SessionID)
	} else {
		session, err = s.sessions.Latest(ctx)
		if errors.Is(err, gerr.ErrNotFound) {
			return &PullsResult{Count: 0, Items: []*model.Pull{}}, nil
		}
	}
	if err != nil {
		return nil, err
	}

	items := make([]*model.Pull, len(session.Pulls))
	copy(items, session.Pulls)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SeqID > items[j].SeqID
	})

	if query.PoolID != "" {
		filtered := items[:0]
		for _, item := range items {
			if item.PoolID == query.PoolID {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	count := len(items)
	if len(items) > limit {
		items = items[:limit]
	}

	result := &PullsResult{
		SessionID: &session.SessionID,
		Count:     count,
		Items:     items,
	}
	if query.PoolID != "" {
		result.PoolID = &query.PoolID
	}
	return result, nil
}
