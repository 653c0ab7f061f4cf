package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endfieldpass/backend/internal/app/appconfig"
	"github.com/endfieldpass/backend/internal/constant"
)

func testConfig(baseURL string) *appconfig.Config {
	return &appconfig.Config{
		ConfigSpec: appconfig.ConfigSpec{
			UpstreamBaseURL:   baseURL,
			UpstreamTimeout:   5 * time.Second,
			UpstreamPageDelay: time.Millisecond,
		},
	}
}

func TestFetchCharacterPagesPagination(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("seq_id") == "" {
			fmt.Fprint(w, `{"code":0,"data":{"list":[{"seqId":12,"charName":"A","rarity":6},{"seqId":11,"charName":"B","rarity":4}],"hasMore":true}}`)
			return
		}
		assert.Equal(t, "11", r.URL.Query().Get("seq_id"))
		fmt.Fprint(w, `{"code":0,"data":{"list":[{"seqId":10,"charName":"C","rarity":5}],"hasMore":false}}`)
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(server.URL))
	records, err := fetcher.FetchCharacterPages(context.Background(), "tok", "3", "ru-ru", constant.PoolTypeCharacterSpecial)
	require.NoError(t, err)

	assert.Len(t, records, 3)
	assert.Len(t, requests, 2)
	for _, record := range records {
		assert.Equal(t, constant.PoolTypeCharacterSpecial, record.SourcePoolType)
	}
}

func TestFetchCharacterPagesDedupsSeqIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":{"list":[{"seqId":5},{"seqId":5},{"seqId":0}],"hasMore":false}}`)
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(server.URL))
	records, err := fetcher.FetchCharacterPages(context.Background(), "tok", "3", "ru-ru", constant.PoolTypeCharacterStandard)
	require.NoError(t, err)
	// duplicate and missing seqIds are both skipped
	assert.Len(t, records, 1)
}

func TestFetchCharacterPagesBenignStops(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
		},
		{
			name: "non-zero envelope code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"code":10001,"data":null}`)
			},
		},
		{
			name: "empty list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"code":0,"data":{"list":[],"hasMore":true}}`)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			fetcher := NewFetcher(testConfig(server.URL))
			records, err := fetcher.FetchCharacterPages(context.Background(), "tok", "3", "ru-ru", constant.PoolTypeCharacterBeginner)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestFetchWeaponPools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/record/weapon/pool", r.URL.Path)
		fmt.Fprint(w, `{"code":0,"data":[{"poolId":"weponbox_1","poolName":"Weapons I"},{"poolId":""},{"poolName":"nameless"}]}`)
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(server.URL))
	pools, err := fetcher.FetchWeaponPools(context.Background(), "tok", "3", "ru-ru")
	require.NoError(t, err)

	require.Len(t, pools, 1)
	assert.Equal(t, "weponbox_1", pools[0].PoolID)
	assert.Equal(t, "Weapons I", pools[0].PoolName)
}

func TestFetchWeaponPagesPoolScoped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "weponbox_1", r.URL.Query().Get("pool_id"))
		fmt.Fprint(w, `{"code":0,"data":{"list":[{"seqId":3,"poolId":"weponbox_1","weaponName":"Jiminy 12"},{"seqId":3,"poolId":"weponbox_1"}],"hasMore":false}}`)
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(server.URL))
	records, err := fetcher.FetchWeaponPages(context.Background(), "tok", "3", "ru-ru", "weponbox_1")
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, constant.PoolTypeWeapon, records[0].SourcePoolType)
}
