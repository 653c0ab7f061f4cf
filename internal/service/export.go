package service

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/pkg/gerr"
	"github.com/endfieldpass/backend/internal/repo"
)

// CodecService round-trips the canonical history snapshot. The same payload
// backs the file download/upload endpoints and cloud sync.
type CodecService struct {
	sessions repo.SessionStore
}

func NewCodecService(sessions repo.SessionStore) *CodecService {
	return &CodecService{sessions: sessions}
}

// ExportPayload snapshots the whole session store.
func (s *CodecService) ExportPayload(ctx context.Context) (*model.ExportPayload, error) {
	sessions, err := s.sessions.ListRecent(ctx)
	if err != nil {
		return nil, err
	}

	payload := &model.ExportPayload{
		SchemaVersion: constant.ExportSchemaVersion,
		ExportedAt:    time.Now().UTC(),
		SessionCount:  len(sessions),
		Sessions:      make([]*model.ExportSession, 0, len(sessions)),
	}
	for _, session := range sessions {
		pulls := session.Pulls
		if pulls == nil {
			pulls = []*model.Pull{}
		}
		payload.PullCount += len(pulls)
		payload.Sessions = append(payload.Sessions, &model.ExportSession{
			SourceSessionID: session.SessionID,
			CreatedAt:       session.CreatedAt.UTC().Format(time.RFC3339),
			ServerID:        session.ServerID,
			Lang:            session.Lang,
			Status:          session.Status,
			Error:           session.Error,
			Pulls:           pulls,
		})
	}
	return payload, nil
}

// ExportFilename names the download attachment with a UTC timestamp.
func ExportFilename(now time.Time) string {
	return "endfieldpass-history-" + now.UTC().Format("20060102-150405") + ".json"
}

// ImportPayload restores history from a canonical or legacy snapshot,
// creating sessions additively. Malformed individual entries are skipped;
// only a payload with no recognizable shape fails.
func (s *CodecService) ImportPayload(ctx context.Context, raw []byte) (*model.ImportResult, error) {
	if !gjson.ValidBytes(raw) {
		return nil, gerr.ErrBadPayload
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return nil, gerr.ErrBadPayload
	}

	sessionPayloads, err := buildSessionPayloads(parsed)
	if err != nil {
		return nil, err
	}

	result := &model.ImportResult{}
	for _, sessionPayload := range sessionPayloads {
		if !sessionPayload.IsObject() {
			continue
		}
		session := decodeSessionPayload(sessionPayload)
		if _, err := s.sessions.Create(ctx, session); err != nil {
			return nil, err
		}
		result.SessionCount++
		result.PullCount += len(session.Pulls)
	}
	return result, nil
}

// buildSessionPayloads accepts the canonical {sessions: [...]} shape and the
// legacy single-session {items: [...]} shape.
func buildSessionPayloads(parsed gjson.Result) ([]gjson.Result, error) {
	if sessions := parsed.Get("sessions"); sessions.IsArray() {
		return sessions.Array(), nil
	}

	if items := parsed.Get("items"); items.IsArray() {
		legacy := map[string]any{
			"server_id": stringOr(parsed.Get("server_id"), constant.DefaultServerID),
			"lang":      stringOr(parsed.Get("lang"), constant.DefaultLang),
			"status":    constant.SessionStatusDone,
			"pulls":     json.RawMessage(items.Raw),
		}
		encoded, err := json.Marshal(legacy)
		if err != nil {
			return nil, err
		}
		return []gjson.Result{gjson.ParseBytes(encoded)}, nil
	}
	return nil, gerr.ErrBadFormat
}

func decodeSessionPayload(payload gjson.Result) *model.ImportSession {
	session := &model.ImportSession{
		ServerID:   stringOr(payload.Get("server_id"), constant.DefaultServerID),
		Lang:       stringOr(payload.Get("lang"), constant.DefaultLang),
		Status:     stringOr(payload.Get("status"), constant.SessionStatusDone),
		Error:      payload.Get("error").String(),
		ImportKind: stringOr(payload.Get("import_kind"), constant.ImportKindCharacter),
		Pulls:      []*model.Pull{},
	}
	if createdAt, ok := parseSessionTimestamp(payload.Get("created_at").String()); ok {
		session.CreatedAt = createdAt
	}

	pulls := payload.Get("pulls")
	if !pulls.IsArray() {
		pulls = payload.Get("items")
	}
	if pulls.IsArray() {
		for _, item := range pulls.Array() {
			if !item.IsObject() {
				continue
			}
			session.Pulls = append(session.Pulls, NormalizePull(FetchedRecord{
				Data: json.RawMessage(item.Raw),
			}))
		}
	}
	return session
}

// parseSessionTimestamp accepts ISO-8601 with or without a zone offset.
// Offset-less timestamps are pinned to UTC instead of being dropped.
func parseSessionTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if createdAt, err := time.Parse(time.RFC3339, raw); err == nil {
		return createdAt, true
	}
	if createdAt, err := time.ParseInLocation("2006-01-02T15:04:05", raw, time.UTC); err == nil {
		return createdAt, true
	}
	return time.Time{}, false
}

func stringOr(result gjson.Result, fallback string) string {
	if value := result.String(); value != "" {
		return value
	}
	return fallback
}
