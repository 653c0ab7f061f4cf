package service

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/endfieldpass/backend/internal/constant"
)

func record(body string) FetchedRecord {
	return FetchedRecord{Data: json.RawMessage(body)}
}

func TestNormalizePullCamelCaseFallback(t *testing.T) {
	pull := NormalizePull(record(`{"poolId":"standard","poolName":"Standard","charId":"c1","charName":"Перлика","rarity":5,"isNew":true,"gachaTs":1700000000000,"seqId":42}`))

	assert.Equal(t, "standard", pull.PoolID)
	assert.Equal(t, "Standard", pull.PoolName)
	assert.Equal(t, "c1", pull.CharID)
	assert.Equal(t, "Перлика", pull.CharName)
	assert.Equal(t, 5, pull.Rarity)
	assert.True(t, pull.IsNew)
	assert.Equal(t, int64(1700000000000), pull.GachaTs.ValueOrZero())
	assert.Equal(t, int64(42), pull.SeqID)
}

func TestNormalizePullSnakeCaseWins(t *testing.T) {
	pull := NormalizePull(record(`{"pool_id":"snake","poolId":"camel","seq_id":1,"seqId":2}`))

	assert.Equal(t, "snake", pull.PoolID)
	assert.Equal(t, int64(1), pull.SeqID)
}

func TestNormalizePullDefaults(t *testing.T) {
	pull := NormalizePull(record(`{}`))

	assert.Equal(t, "UNKNOWN", pull.PoolID)
	assert.Zero(t, pull.Rarity)
	assert.False(t, pull.GachaTs.Valid)
	assert.Equal(t, constant.ItemTypeCharacter, pull.ItemType)
}

func TestNormalizePullZeroTimestampIsNull(t *testing.T) {
	pull := NormalizePull(record(`{"gacha_ts":0}`))
	assert.False(t, pull.GachaTs.Valid)

	pull = NormalizePull(record(`{"gacha_ts":"1700000000000"}`))
	assert.Equal(t, int64(1700000000000), pull.GachaTs.ValueOrZero())
}

func TestNormalizePullWeaponInference(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"explicit item type kept", `{"item_type":"character","weapon_id":"w1"}`, constant.ItemTypeCharacter},
		{"weapon id implies weapon", `{"weapon_id":"w1"}`, constant.ItemTypeWeapon},
		{"weapon name implies weapon", `{"weaponName":"Jiminy 12"}`, constant.ItemTypeWeapon},
		{"source pool type hint", `{"source_pool_type":"E_WeaponGachaPoolType_Weapon"}`, constant.ItemTypeWeapon},
		{"misspelled pool marker", `{"pool_id":"weponbox_1"}`, constant.ItemTypeWeapon},
		{"plain pull stays character", `{"pool_id":"standard"}`, constant.ItemTypeCharacter},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePull(record(tc.body)).ItemType)
		})
	}
}

func TestNormalizePullWeaponNameFallbacks(t *testing.T) {
	pull := NormalizePull(record(`{"weapon_id":"w9","weapon_name":"Long Road"}`))

	assert.Equal(t, "w9", pull.CharID)
	assert.Equal(t, "Long Road", pull.CharName)
	assert.Equal(t, "w9", pull.WeaponID)
	assert.Equal(t, "Long Road", pull.WeaponName)
}

func TestNormalizePullCoercesLooseScalars(t *testing.T) {
	pull := NormalizePull(record(`{"rarity":"6","is_free":"yes","seq_id":"7"}`))

	assert.Equal(t, 6, pull.Rarity)
	assert.True(t, pull.IsFree)
	assert.Equal(t, int64(7), pull.SeqID)
}
