package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/model/types"
	"github.com/endfieldpass/backend/internal/pkg/gerr"
	"github.com/endfieldpass/backend/internal/repo"
)

func TestParsePageURL(t *testing.T) {
	details := ParsePageURL("https://ef-webview.gryphline.com/gacha_char/index.html?u8_token=tok123&server=3&lang=en-us&pool_id=special_1_2_1")
	assert.Equal(t, "tok123", details.Token)
	assert.Equal(t, "3", details.ServerID)
	assert.Equal(t, "en-us", details.Lang)
	assert.Equal(t, constant.ImportKindCharacter, details.ImportKind)
	assert.Equal(t, "special_1_2_1", details.PoolID)

	details = ParsePageURL("https://ef-webview.gryphline.com/gacha_weapon/index.html?token=tok&server_id=4")
	assert.Equal(t, constant.ImportKindWeapon, details.ImportKind)
	assert.Equal(t, "tok", details.Token)
	assert.Equal(t, "4", details.ServerID)
	assert.Equal(t, constant.DefaultLang, details.Lang)

	details = ParsePageURL("")
	assert.Empty(t, details.Token)
	assert.Equal(t, constant.ImportKindCharacter, details.ImportKind)
}

func TestNormalizeRecordsDedupAndOrder(t *testing.T) {
	records := []FetchedRecord{
		record(`{"pool_id":"standard","seq_id":1,"gacha_ts":100}`),
		record(`{"pool_id":"standard","seq_id":1,"gacha_ts":100}`),
		record(`{"pool_id":"special_1_0_1","seq_id":1,"gacha_ts":300}`),
		record(`{"pool_id":"standard","seq_id":2,"gacha_ts":200}`),
		record(`{"pool_id":"standard","seq_id":3}`),
	}

	pulls := NormalizeRecords(records)
	require.Len(t, pulls, 4)

	// same seq id in different pools is not a duplicate
	assert.Equal(t, "special_1_0_1", pulls[0].PoolID)
	assert.Equal(t, int64(200), pulls[1].GachaTs.ValueOrZero())
	assert.Equal(t, int64(100), pulls[2].GachaTs.ValueOrZero())
	// missing timestamp sorts last, by seq id
	assert.Equal(t, int64(3), pulls[3].SeqID)
}

func newImportService(upstreamURL string) (*ImportService, repo.SessionStore) {
	sessions := repo.NewMemorySession()
	fetcher := NewFetcher(testConfig(upstreamURL))
	return NewImportService(NewAggregator(fetcher), sessions, repo.NewProgressTracker()), sessions
}

func TestCreateSessionRequiresCredentials(t *testing.T) {
	svc, _ := newImportService("http://127.0.0.1:0")

	_, err := svc.CreateSession(context.Background(), &types.CreateSessionRequest{
		PageURL: "https://ef-webview.gryphline.com/gacha_char/index.html?lang=en-us",
	})
	require.Error(t, err)

	var e *gerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, gerr.CodeInvalidRequest, e.ErrorCode)
}

func TestCreateSessionRunsJobToCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/record/char":
			if r.URL.Query().Get("pool_type") == constant.PoolTypeCharacterSpecial {
				fmt.Fprint(w, `{"code":0,"data":{"list":[{"seqId":2,"poolId":"special_1_0_1","charName":"Лэватейн","rarity":6,"gachaTs":200},{"seqId":1,"poolId":"special_1_0_1","charName":"Антал","rarity":4,"gachaTs":100}],"hasMore":false}}`)
				return
			}
			fmt.Fprint(w, `{"code":0,"data":{"list":[],"hasMore":false}}`)
		case "/api/record/weapon/pool":
			fmt.Fprint(w, `{"code":0,"data":[]}`)
		case "/api/record/weapon":
			fmt.Fprint(w, `{"code":0,"data":{"list":[{"seqId":9,"poolId":"weponbox_1","weaponName":"Jiminy 12","rarity":5,"gachaTs":150}],"hasMore":false}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	svc, sessions := newImportService(server.URL)
	resp, err := svc.CreateSession(context.Background(), &types.CreateSessionRequest{
		Token:    "tok",
		ServerID: "3",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.SessionStatusRunning, resp.Status)

	require.Eventually(t, func() bool {
		session, err := sessions.Get(context.Background(), resp.SessionID)
		return err == nil && session.Status == constant.SessionStatusDone
	}, 5*time.Second, 10*time.Millisecond)

	session, err := sessions.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.Len(t, session.Pulls, 3)
	// newest first by gacha_ts
	assert.Equal(t, "Лэватейн", session.Pulls[0].CharName)
	assert.Equal(t, "Jiminy 12", session.Pulls[1].CharName)
	assert.Equal(t, constant.ItemTypeWeapon, session.Pulls[1].ItemType)

	status, err := svc.Status(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, constant.SessionStatusDone, status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, 3, status.PullCount)
}

func TestStatusUnknownSession(t *testing.T) {
	svc, _ := newImportService("http://127.0.0.1:0")

	_, err := svc.Status(context.Background(), 404)
	assert.ErrorIs(t, err, gerr.ErrNotFound)
}

func TestPullsFiltersAndLimits(t *testing.T) {
	svc, sessions := newImportService("http://127.0.0.1:0")
	ctx := context.Background()

	session := sessionWithPulls(t, []string{
		`{"pool_id":"standard","seq_id":1,"rarity":4}`,
		`{"pool_id":"special_1_0_1","seq_id":2,"rarity":6}`,
		`{"pool_id":"standard","seq_id":3,"rarity":5}`,
	})
	_, err := sessions.Create(ctx, session)
	require.NoError(t, err)

	result, err := svc.Pulls(ctx, PullsQuery{PoolID: "standard"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	// seq_id descending
	assert.Equal(t, int64(3), result.Items[0].SeqID)

	result, err = svc.Pulls(ctx, PullsQuery{Limit: lo.ToPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Len(t, result.Items, 1)

	// an explicit zero or negative limit clamps to one item, it never falls
	// back to the default cap
	result, err = svc.Pulls(ctx, PullsQuery{Limit: lo.ToPtr(0)})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)

	result, err = svc.Pulls(ctx, PullsQuery{Limit: lo.ToPtr(-3)})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}

func TestPullsNoSessions(t *testing.T) {
	svc, _ := newImportService("http://127.0.0.1:0")

	result, err := svc.Pulls(context.Background(), PullsQuery{})
	require.NoError(t, err)
	assert.Nil(t, result.SessionID)
	assert.Zero(t, result.Count)
	assert.Empty(t, result.Items)
}

func sessionWithPulls(t *testing.T, items []string) *model.ImportSession {
	t.Helper()
	records := make([]FetchedRecord, len(items))
	for i, item := range items {
		records[i] = FetchedRecord{Data: json.RawMessage(item)}
	}
	return &model.ImportSession{
		Status: constant.SessionStatusDone,
		Pulls:  NormalizeRecords(records),
	}
}
