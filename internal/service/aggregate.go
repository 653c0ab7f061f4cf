package service

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/endfieldpass/backend/internal/constant"
)

// PoolProgress is one aggregator progress event. Index is 1-based; Stage is
// either "start" or "done".
type PoolProgress struct {
	Index    int
	Total    int
	PoolType string
	Stage    string

	PoolID   string
	PoolName string

	PoolItems  int
	TotalItems int
}

const (
	StageStart = "start"
	StageDone  = "done"
)

// ProgressFn receives per-pool aggregation progress. A nil callback is fine.
type ProgressFn func(PoolProgress)

// Aggregator walks the upstream pools through the Fetcher and flattens the
// results into one record slice per import kind.
type Aggregator struct {
	fetcher *Fetcher
}

func NewAggregator(fetcher *Fetcher) *Aggregator {
	return &Aggregator{fetcher: fetcher}
}

// FetchAllCharacterRecords drains every character pool type in client order.
func (a *Aggregator) FetchAllCharacterRecords(ctx context.Context, token, serverID, lang string, onProgress ProgressFn) ([]FetchedRecord, error) {
	var out []FetchedRecord
	total := len(constant.CharacterPoolTypes)

	for i, poolType := range constant.CharacterPoolTypes {
		emit(onProgress, PoolProgress{
			Index: i + 1, Total: total, PoolType: poolType, Stage: StageStart,
		})

		poolItems, err := a.fetcher.FetchCharacterPages(ctx, token, serverID, lang, poolType)
		if err != nil {
			return nil, err
		}
		out = append(out, poolItems...)

		emit(onProgress, PoolProgress{
			Index: i + 1, Total: total, PoolType: poolType, Stage: StageDone,
			PoolItems: len(poolItems), TotalItems: len(out),
		})
	}
	return out, nil
}

// FetchAllWeaponRecords iterates the account's weapon pools, with two
// fallbacks mirroring the webview client: the generic feed when no pool
// listing is available, and again when pool-scoped requests yield nothing.
func (a *Aggregator) FetchAllWeaponRecords(ctx context.Context, token, serverID, lang, selectedPoolID string, onProgress ProgressFn) ([]FetchedRecord, error) {
	selectedPoolID = strings.TrimSpace(selectedPoolID)

	pools, err := a.fetcher.FetchWeaponPools(ctx, token, serverID, lang)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(pools))
	for _, pool := range pools {
		known[pool.PoolID] = struct{}{}
	}
	if selectedPoolID != "" {
		if _, ok := known[selectedPoolID]; !ok {
			pools = append([]WeaponPool{{PoolID: selectedPoolID, PoolName: selectedPoolID}}, pools...)
		}
	}

	if len(pools) == 0 {
		emit(onProgress, PoolProgress{
			Index: 1, Total: 1, PoolType: constant.PoolTypeWeapon, Stage: StageStart,
		})
		items, err := a.fetcher.FetchWeaponPages(ctx, token, serverID, lang, selectedPoolID)
		if err != nil {
			return nil, err
		}
		emit(onProgress, PoolProgress{
			Index: 1, Total: 1, PoolType: constant.PoolTypeWeapon, Stage: StageDone,
			PoolItems: len(items), TotalItems: len(items),
		})
		return items, nil
	}

	var out []FetchedRecord
	seen := map[string]struct{}{}
	total := len(pools)

	for i, pool := range pools {
		emit(onProgress, PoolProgress{
			Index: i + 1, Total: total, PoolType: constant.PoolTypeWeapon, Stage: StageStart,
			PoolID: pool.PoolID, PoolName: pool.PoolName,
		})

		poolItems, err := a.fetcher.FetchWeaponPages(ctx, token, serverID, lang, pool.PoolID)
		if err != nil {
			return nil, err
		}
		for _, item := range poolItems {
			seqID := strings.TrimSpace(gjson.GetBytes(item.Data, "seqId").String())
			itemPoolID := strings.TrimSpace(gjson.GetBytes(item.Data, "poolId").String())
			if itemPoolID == "" {
				itemPoolID = pool.PoolID
			}
			if seqID != "" {
				key := itemPoolID + ":" + seqID
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, item)
		}

		emit(onProgress, PoolProgress{
			Index: i + 1, Total: total, PoolType: constant.PoolTypeWeapon, Stage: StageDone,
			PoolID: pool.PoolID, PoolName: pool.PoolName,
			PoolItems: len(poolItems), TotalItems: len(out),
		})
	}

	if len(out) > 0 {
		return out, nil
	}
	return a.fetcher.FetchWeaponPages(ctx, token, serverID, lang, selectedPoolID)
}

func emit(onProgress ProgressFn, progress PoolProgress) {
	if onProgress != nil {
		onProgress(progress)
	}
}
