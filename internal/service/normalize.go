package service

import (
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/guregu/null.v3"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/pkg/coerce"
)

// pick returns the first existing field among the given paths. Upstream and
// exported payloads disagree on casing, so every field reads snake_case with
// a camelCase fallback.
func pick(data []byte, paths ...string) gjson.Result {
	for _, path := range paths {
		if result := gjson.GetBytes(data, path); result.Exists() {
			return result
		}
	}
	return gjson.Result{}
}

// NormalizePull converts one raw upstream record into the canonical pull
// shape. Total: any input yields a pull, defaulting field by field.
func NormalizePull(record FetchedRecord) *model.Pull {
	data := record.Data

	poolID := pick(data, "pool_id", "poolId").String()
	if poolID == "" {
		poolID = "UNKNOWN"
	}
	sourcePoolType := pick(data, "source_pool_type", "_source_pool_type").String()
	if sourcePoolType == "" {
		sourcePoolType = record.SourcePoolType
	}

	weaponID := pick(data, "weapon_id", "weaponId").String()
	weaponName := pick(data, "weapon_name", "weaponName").String()
	charID := pick(data, "char_id", "charId").String()
	if charID == "" {
		charID = weaponID
	}
	charName := pick(data, "char_name", "charName").String()
	if charName == "" {
		charName = weaponName
	}

	itemType := inferItemType(
		strings.ToLower(strings.TrimSpace(pick(data, "item_type", "itemType").String())),
		sourcePoolType, poolID, weaponID, weaponName,
	)

	// zero means "not reported", stored as null rather than epoch
	var gachaTs null.Int
	if ts := coerce.ToInt64(pick(data, "gacha_ts", "gachaTs").Value(), 0); ts != 0 {
		gachaTs = null.IntFrom(ts)
	}

	return &model.Pull{
		PoolID:         poolID,
		PoolName:       pick(data, "pool_name", "poolName").String(),
		CharID:         charID,
		CharName:       charName,
		Rarity:         coerce.ToInt(pick(data, "rarity").Value(), 0),
		IsFree:         coerce.ToBool(pick(data, "is_free", "isFree").Value()),
		IsNew:          coerce.ToBool(pick(data, "is_new", "isNew").Value()),
		GachaTs:        gachaTs,
		SeqID:          coerce.ToInt64(pick(data, "seq_id", "seqId").Value(), 0),
		SourcePoolType: sourcePoolType,
		ItemType:       itemType,
		WeaponID:       weaponID,
		WeaponName:     weaponName,
		Raw:            record.Data,
	}
}

// inferItemType falls back to heuristics when the record does not carry a
// valid item type. The "wepon" token matters: the live weapon pool ids are
// misspelled that way.
func inferItemType(rawItemType, sourcePoolType, poolID, weaponID, weaponName string) string {
	if rawItemType == constant.ItemTypeCharacter || rawItemType == constant.ItemTypeWeapon {
		return rawItemType
	}
	sourceHint := strings.ToLower(sourcePoolType)
	poolHint := strings.ToLower(poolID)
	if weaponID != "" || weaponName != "" ||
		strings.Contains(sourceHint, "weapon") ||
		strings.Contains(poolHint, "wepon") || strings.Contains(poolHint, "weapon") {
		return constant.ItemTypeWeapon
	}
	return constant.ItemTypeCharacter
}
