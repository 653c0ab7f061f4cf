package repo

import (
	"strings"

	"github.com/endfieldpass/backend/internal/model"
)

// CharacterCatalog serves the built-in playable character roster. The roster
// ships with the binary: it changes only on game version updates, which always
// come with a backend release anyway.
type CharacterCatalog struct {
	characters []*model.StaticCharacter
	byCode     map[string]*model.StaticCharacter
}

func NewCharacterCatalog() *CharacterCatalog {
	c := &CharacterCatalog{
		characters: staticCharacters,
		byCode:     make(map[string]*model.StaticCharacter, len(staticCharacters)),
	}
	for _, character := range staticCharacters {
		c.byCode[character.Code] = character
	}
	return c
}

// All returns the full roster in catalog order.
func (c *CharacterCatalog) All() []*model.StaticCharacter {
	return c.characters
}

// ByCode returns the character with the given code, or nil.
func (c *CharacterCatalog) ByCode(code string) *model.StaticCharacter {
	return c.byCode[strings.ToLower(strings.TrimSpace(code))]
}

// staticCharacters is the shipped roster. Canonical names are the Russian
// in-game spellings; official names follow the game's interface languages.
var staticCharacters = []*model.StaticCharacter{
	{
		Code: "akekuri", Name: "Акэкури", Rarity: 4,
		IconURL: "img/characters/akekuri.png",
		Aliases: []string{"Akekuri"},
		OfficialNames: map[string]string{
			"ru": "Акэкури", "en": "Akekuri", "de": "Akekuri", "zh-hans": "红栗", "ja": "アケクリ",
		},
	},
	{
		Code: "alesh", Name: "Алеш", Rarity: 5,
		IconURL: "img/characters/alesh.png",
		Aliases: []string{"Alesh"},
		OfficialNames: map[string]string{
			"ru": "Алеш", "en": "Alesh", "de": "Alesh", "zh-hans": "阿列什", "ja": "アレッシュ",
		},
	},
	{
		Code: "antal", Name: "Антал", Rarity: 4,
		IconURL: "img/characters/antal.png",
		Aliases: []string{"Antal"},
		OfficialNames: map[string]string{
			"ru": "Антал", "en": "Antal", "de": "Antal", "zh-hans": "安塔尔", "ja": "アンタル",
		},
	},
	{
		Code: "arclight", Name: "Арклайт", Rarity: 5,
		IconURL: "img/characters/arclight.png",
		Aliases: []string{"Arclight"},
		OfficialNames: map[string]string{
			"ru": "Арклайт", "en": "Arclight", "de": "Arclight", "zh-hans": "弧光", "ja": "アークライト",
		},
	},
	{
		Code: "ardelia", Name: "Арделия", Rarity: 6,
		IconURL: "img/characters/Ardelia.png",
		Aliases: []string{"Ardelia"},
		OfficialNames: map[string]string{
			"ru": "Арделия", "en": "Ardelia", "de": "Ardelia", "zh-hans": "艾尔黛拉", "ja": "アルデリア",
		},
	},
	{
		Code: "avywenna", Name: "Авивенна", Rarity: 5,
		IconURL: "img/characters/avywenna.png",
		Aliases: []string{"Avywenna"},
		OfficialNames: map[string]string{
			"ru": "Авивенна", "en": "Avywenna", "de": "Avywenna", "zh-hans": "艾维文娜", "ja": "アイヴィーエナ",
		},
	},
	{
		Code: "catcher", Name: "Кэтчер", Rarity: 4,
		IconURL: "img/characters/catcher.png",
		Aliases: []string{"Catcher"},
		OfficialNames: map[string]string{
			"ru": "Кэтчер", "en": "Catcher", "de": "Catcher", "zh-hans": "卡契尔", "ja": "キャッチャー",
		},
	},
	{
		Code: "chen_qianyu", Name: "Чэнь Цяньюй", Rarity: 5,
		IconURL: "img/characters/Chen-Qianyu.png",
		Aliases: []string{"Chen Qianyu", "Chen-Qianyu"},
		OfficialNames: map[string]string{
			"ru": "Чэнь Цяньюй", "en": "Chen Qianyu", "de": "Chen Qianyu", "zh-hans": "陈千语", "ja": "チェン・センユー",
		},
	},
	{
		Code: "da_pan", Name: "Да Пан", Rarity: 5,
		IconURL: "img/characters/da-pan.png",
		Aliases: []string{"Da Pan", "Da-Pan"},
		OfficialNames: map[string]string{
			"ru": "Да Пан", "en": "Da Pan", "de": "Da Pan", "zh-hans": "大潘", "ja": "ダパン",
		},
	},
	{
		Code: "ember", Name: "Эмбер", Rarity: 6,
		IconURL: "img/characters/ember.png",
		Aliases: []string{"Ember"},
		OfficialNames: map[string]string{
			"ru": "Эмбер", "en": "Ember", "de": "Ember", "zh-hans": "余烬", "ja": "エンバー",
		},
	},
	{
		Code: "endministrator", Name: "Эндминистратор", Rarity: 6,
		IconURL: "img/characters/Endministrator.png",
		Aliases: []string{"Endministrator"},
		OfficialNames: map[string]string{
			"ru": "Эндминистратор", "en": "Endministrator", "de": "Endministrator", "zh-hans": "管理员", "ja": "管理人",
		},
	},
	{
		Code: "estella", Name: "Эстелла", Rarity: 4,
		IconURL: "img/characters/estella.png",
		Aliases: []string{"Estella"},
		OfficialNames: map[string]string{
			"ru": "Эстелла", "en": "Estella", "de": "Estella", "zh-hans": "埃特拉", "ja": "エステーラ",
		},
	},
	{
		Code: "fluorite", Name: "Флюорит", Rarity: 4,
		IconURL: "img/characters/fluorite.png",
		Aliases: []string{"Fluorite", "Фрюорит"},
		OfficialNames: map[string]string{
			"ru": "Флюорит", "en": "Fluorite", "de": "Fluorite", "zh-hans": "萤石", "ja": "フローライト",
		},
	},
	{
		Code: "gilberta", Name: "Гилберта", Rarity: 6,
		IconURL: "img/characters/gilberta.png",
		Aliases: []string{"Gilberta"},
		OfficialNames: map[string]string{
			"ru": "Гилберта", "en": "Gilberta", "de": "Gilberta", "zh-hans": "洁尔佩塔", "ja": "ギルベルタ",
		},
	},
	{
		Code: "laevatain", Name: "Лэватейн", Rarity: 6,
		IconURL: "img/characters/laevatain.png",
		Aliases: []string{"Laevatain"},
		OfficialNames: map[string]string{
			"ru": "Лэватейн", "en": "Laevatain", "de": "Laevatain", "zh-hans": "莱万汀", "ja": "レーヴァティン",
		},
	},
	{
		Code: "last_rite", Name: "Панихида", Rarity: 6,
		IconURL: "img/characters/last-rite.png",
		Aliases: []string{"Last Rite", "Last-Rite"},
		OfficialNames: map[string]string{
			"ru": "Панихида", "en": "Last Rite", "de": "Last Rite", "zh-hans": "别礼", "ja": "ラストライト",
		},
	},
	{
		Code: "lifeng", Name: "Лифэн", Rarity: 6,
		IconURL: "img/characters/lifeng.png",
		Aliases: []string{"Lifeng"},
		OfficialNames: map[string]string{
			"ru": "Лифэн", "en": "Lifeng", "de": "Lifeng", "zh-hans": "黎风", "ja": "リーフォン",
		},
	},
	{
		Code: "perlica", Name: "Перлика", Rarity: 5,
		IconURL: "img/characters/perlica.png",
		Aliases: []string{"Perlica"},
		OfficialNames: map[string]string{
			"ru": "Перлика", "en": "Perlica", "de": "Perlica", "zh-hans": "佩丽卡", "ja": "ペリカ",
		},
	},
	{
		Code: "pogranichnik", Name: "Пограничник", Rarity: 6,
		IconURL: "img/characters/pogranichnik.png",
		Aliases: []string{"Pogranichnik"},
		OfficialNames: map[string]string{
			"ru": "Пограничник", "en": "Pogranichnik", "de": "Pogranichnik", "zh-hans": "骏卫", "ja": "ポグラニチニク",
		},
	},
	{
		Code: "snowshine", Name: "Светоснежка", Rarity: 5,
		IconURL: "img/characters/snowshine.png",
		Aliases: []string{"Snowshine"},
		OfficialNames: map[string]string{
			"ru": "Светоснежка", "en": "Snowshine", "de": "Snowshine", "zh-hans": "昼雪", "ja": "スノーシャイン",
		},
	},
	{
		Code: "wulfgard", Name: "Вулфгард", Rarity: 5,
		IconURL: "img/characters/wulfgard.png",
		Aliases: []string{"Wulfgard"},
		OfficialNames: map[string]string{
			"ru": "Вулфгард", "en": "Wulfgard", "de": "Wulfgard", "zh-hans": "狼卫", "ja": "ウルフガード",
		},
	},
	{
		Code: "xaihi", Name: "Сайхи", Rarity: 5,
		IconURL: "img/characters/xaihi.png",
		Aliases: []string{"Xaihi"},
		OfficialNames: map[string]string{
			"ru": "Сайхи", "en": "Xaihi", "de": "Xaihi", "zh-hans": "赛希", "ja": "ザイヒ",
		},
	},
	{
		Code: "yvonne", Name: "Ивонна", Rarity: 6,
		IconURL: "img/characters/yvonne.png",
		Aliases: []string{"Yvonne"},
		OfficialNames: map[string]string{
			"ru": "Ивонна", "en": "Yvonne", "de": "Yvonne", "zh-hans": "伊冯", "ja": "イヴォンヌ",
		},
	},
}
