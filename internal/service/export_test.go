package service

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/pkg/gerr"
	"github.com/endfieldpass/backend/internal/repo"
)

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "endfieldpass-history-20240307-150405.json", ExportFilename(now))
}

func TestImportPayloadCanonicalshape(t *testing.T) {
	sessions := repo.NewMemorySession()
	svc := NewCodecService(sessions)

	payload := `{
		"schema_version": 1,
		"sessions": [
			{
				"server_id": "4",
				"lang": "en-us",
				"status": "done",
				"pulls": [
					{"pool_id": "standard", "char_name": "Bob", "rarity": 5, "seq_id": 2}
				]
			}
		]
	}`

	result, err := svc.ImportPayload(context.Background(), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SessionCount)
	assert.Equal(t, 1, result.PullCount)

	session, err := sessions.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4", session.ServerID)
	assert.Equal(t, "en-us", session.Lang)
	assert.Equal(t, constant.SessionStatusDone, session.Status)
	require.Len(t, session.Pulls, 1)
	assert.Equal(t, "Bob", session.Pulls[0].CharName)
	assert.Equal(t, 5, session.Pulls[0].Rarity)
	assert.Equal(t, int64(2), session.Pulls[0].SeqID)
}

func TestImportPayloadLegacyItemsShape(t *testing.T) {
	sessions := repo.NewMemorySession()
	svc := NewCodecService(sessions)

	payload := `{"items": [{"pool_id": "special_1_0_1", "char_name": "Перлика", "rarity": 6, "seq_id": 9}]}`

	result, err := svc.ImportPayload(context.Background(), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SessionCount)
	assert.Equal(t, 1, result.PullCount)

	session, err := sessions.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, constant.DefaultServerID, session.ServerID)
	assert.Equal(t, constant.DefaultLang, session.Lang)
	assert.Equal(t, constant.SessionStatusDone, session.Status)
	require.Len(t, session.Pulls, 1)
	assert.Equal(t, "Перлика", session.Pulls[0].CharName)
}

func TestImportPayloadNaiveCreatedAt(t *testing.T) {
	sessions := repo.NewMemorySession()
	svc := NewCodecService(sessions)

	payload := `{"sessions": [{"created_at": "2024-01-01T12:00:00", "pulls": []}]}`

	_, err := svc.ImportPayload(context.Background(), []byte(payload))
	require.NoError(t, err)

	session, err := sessions.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), session.CreatedAt)
}

func TestParseSessionTimestamp(t *testing.T) {
	got, ok := parseSessionTimestamp("2024-03-07T15:04:05+03:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 7, 12, 4, 5, 0, time.UTC), got.UTC())

	got, ok = parseSessionTimestamp("2024-03-07T15:04:05")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC), got)

	_, ok = parseSessionTimestamp("")
	assert.False(t, ok)
	_, ok = parseSessionTimestamp("yesterday")
	assert.False(t, ok)
}

func TestImportPayloadSkipsMalformedEntries(t *testing.T) {
	sessions := repo.NewMemorySession()
	svc := NewCodecService(sessions)

	payload := `{"sessions": ["not an object", {"pulls": [42, {"char_name": "Антал", "rarity": 4, "seq_id": 1}]}]}`

	result, err := svc.ImportPayload(context.Background(), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SessionCount)
	assert.Equal(t, 1, result.PullCount)
}

func TestImportPayloadBadPayload(t *testing.T) {
	svc := NewCodecService(repo.NewMemorySession())

	for _, raw := range []string{`not json at all`, `[1, 2, 3]`, `"a string"`} {
		_, err := svc.ImportPayload(context.Background(), []byte(raw))
		assert.ErrorIs(t, err, gerr.ErrBadPayload, raw)
	}
}

func TestImportPayloadBadFormat(t *testing.T) {
	svc := NewCodecService(repo.NewMemorySession())

	_, err := svc.ImportPayload(context.Background(), []byte(`{"schema_version": 1}`))
	assert.ErrorIs(t, err, gerr.ErrBadFormat)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := repo.NewMemorySession()
	_, err := source.Create(ctx, sessionWithPulls(t, []string{
		`{"pool_id":"special_1_0_1","char_name":"Лэватейн","rarity":6,"seq_id":2,"gacha_ts":200}`,
		`{"pool_id":"standard","char_name":"Антал","rarity":4,"seq_id":1,"gacha_ts":100}`,
	}))
	require.NoError(t, err)

	payload, err := NewCodecService(source).ExportPayload(ctx)
	require.NoError(t, err)
	assert.Equal(t, constant.ExportSchemaVersion, payload.SchemaVersion)
	assert.Equal(t, 1, payload.SessionCount)
	assert.Equal(t, 2, payload.PullCount)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)

	target := repo.NewMemorySession()
	result, err := NewCodecService(target).ImportPayload(ctx, encoded)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SessionCount)
	assert.Equal(t, 2, result.PullCount)

	restored, err := target.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, restored.Pulls, 2)
	assert.Equal(t, "Лэватейн", restored.Pulls[0].CharName)
	assert.Equal(t, int64(200), restored.Pulls[0].GachaTs.ValueOrZero())
	assert.Equal(t, "Антал", restored.Pulls[1].CharName)
}

func TestExportPayloadEmptyStore(t *testing.T) {
	payload, err := NewCodecService(repo.NewMemorySession()).ExportPayload(context.Background())
	require.NoError(t, err)
	assert.Zero(t, payload.SessionCount)
	assert.Zero(t, payload.PullCount)
	assert.NotNil(t, payload.Sessions)
}
