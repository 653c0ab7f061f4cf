package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/endfieldpass/backend/internal/app/appconfig"
	"github.com/endfieldpass/backend/internal/constant"
)

// FetchedRecord is one upstream pull record, kept verbatim. The source pool
// type is carried alongside because the upstream payload does not include it.
type FetchedRecord struct {
	SourcePoolType string
	Data           json.RawMessage
}

// WeaponPool is one entry of the upstream weapon pool listing.
type WeaponPool struct {
	PoolID   string
	PoolName string
}

type pageEnvelope struct {
	Code int `json:"code"`
	Data struct {
		List    []json.RawMessage `json:"list"`
		HasMore bool              `json:"hasMore"`
	} `json:"data"`
}

type poolListEnvelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// Fetcher talks to the official gacha history endpoints. Pagination follows
// the webview client: cursor on the last seqId of a page, a short fixed delay
// between pages, and a benign stop (partial result, no error) on a non-200
// status, a non-zero envelope code or an empty page.
type Fetcher struct {
	conf   *appconfig.Config
	client *http.Client
}

func NewFetcher(conf *appconfig.Config) *Fetcher {
	return &Fetcher{
		conf: conf,
		client: &http.Client{
			Timeout: conf.UpstreamTimeout,
		},
	}
}

// FetchCharacterPages drains one character pool type page by page.
func (f *Fetcher) FetchCharacterPages(ctx context.Context, token, serverID, lang, poolType string) ([]FetchedRecord, error) {
	var (
		cursor int64
		paged  bool
		seen   = map[int64]struct{}{}
		out    []FetchedRecord
	)

	for {
		params := url.Values{}
		params.Set("lang", lang)
		params.Set("pool_type", poolType)
		params.Set("token", token)
		params.Set("server_id", serverID)
		if paged {
			params.Set("seq_id", strconv.FormatInt(cursor, 10))
		}

		page, ok, err := f.fetchPage(ctx, "/api/record/char", params)
		if err != nil {
			return nil, err
		}
		if !ok || len(page.Data.List) == 0 {
			return out, nil
		}

		for _, item := range page.Data.List {
			seqID := gjson.GetBytes(item, "seqId").Int()
			if seqID == 0 {
				continue
			}
			if _, dup := seen[seqID]; dup {
				continue
			}
			seen[seqID] = struct{}{}
			out = append(out, FetchedRecord{SourcePoolType: poolType, Data: item})
		}

		if !page.Data.HasMore {
			return out, nil
		}
		cursor = gjson.GetBytes(page.Data.List[len(page.Data.List)-1], "seqId").Int()
		if cursor == 0 {
			return out, nil
		}
		paged = true

		if err := f.pageDelay(ctx); err != nil {
			return out, err
		}
	}
}

// FetchWeaponPools lists the weapon pools available to the account. Upstream
// failures degrade to an empty listing; callers fall back to the generic feed.
func (f *Fetcher) FetchWeaponPools(ctx context.Context, token, serverID, lang string) ([]WeaponPool, error) {
	params := url.Values{}
	params.Set("lang", lang)
	params.Set("token", token)
	params.Set("server_id", serverID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.conf.UpstreamBaseURL+"/api/record/weapon/pool?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build weapon pool request")
	}
	setUpstreamHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch weapon pools")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var envelope poolListEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.Wrap(err, "decode weapon pool response")
	}
	if envelope.Code != 0 {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(envelope.Data, &items); err != nil {
		return nil, nil
	}

	var pools []WeaponPool
	for _, item := range items {
		poolID := strings.TrimSpace(gjson.GetBytes(item, "poolId").String())
		if poolID == "" {
			continue
		}
		pools = append(pools, WeaponPool{
			PoolID:   poolID,
			PoolName: strings.TrimSpace(gjson.GetBytes(item, "poolName").String()),
		})
	}
	return pools, nil
}

// FetchWeaponPages drains the weapon feed, either pool-scoped or generic
// when poolID is empty.
func (f *Fetcher) FetchWeaponPages(ctx context.Context, token, serverID, lang, poolID string) ([]FetchedRecord, error) {
	poolID = strings.TrimSpace(poolID)

	var (
		cursor int64
		paged  bool
		seen   = map[string]struct{}{}
		out    []FetchedRecord
	)

	for {
		params := url.Values{}
		params.Set("lang", lang)
		params.Set("token", token)
		params.Set("server_id", serverID)
		if poolID != "" {
			params.Set("pool_id", poolID)
		}
		if paged {
			params.Set("seq_id", strconv.FormatInt(cursor, 10))
		}

		page, ok, err := f.fetchPage(ctx, "/api/record/weapon", params)
		if err != nil {
			return nil, err
		}
		if !ok || len(page.Data.List) == 0 {
			return out, nil
		}

		for _, item := range page.Data.List {
			seqID := strings.TrimSpace(gjson.GetBytes(item, "seqId").String())
			itemPoolID := strings.TrimSpace(gjson.GetBytes(item, "poolId").String())
			if itemPoolID == "" {
				itemPoolID = poolID
			}
			if seqID != "" {
				key := itemPoolID + ":" + seqID
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, FetchedRecord{SourcePoolType: constant.PoolTypeWeapon, Data: item})
		}

		if !page.Data.HasMore {
			return out, nil
		}
		cursor = gjson.GetBytes(page.Data.List[len(page.Data.List)-1], "seqId").Int()
		if cursor == 0 {
			return out, nil
		}
		paged = true

		if err := f.pageDelay(ctx); err != nil {
			return out, err
		}
	}
}

// fetchPage performs one page request. ok is false on the benign stop
// conditions; err is reserved for transport and decode failures.
func (f *Fetcher) fetchPage(ctx context.Context, path string, params url.Values) (*pageEnvelope, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.conf.UpstreamBaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "build page request")
	}
	setUpstreamHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, errors.Wrapf(err, "fetch %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, nil
	}

	var envelope pageEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, false, errors.Wrapf(err, "decode %s response", path)
	}
	if envelope.Code != 0 {
		return nil, false, nil
	}
	return &envelope, true, nil
}

func (f *Fetcher) pageDelay(ctx context.Context) error {
	timer := time.NewTimer(f.conf.UpstreamPageDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func setUpstreamHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json, text/plain, */*")
}
