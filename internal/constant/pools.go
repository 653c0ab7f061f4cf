package constant

// Upstream pool type tags, exactly as the official webview API spells them.
const (
	PoolTypeCharacterStandard = "E_CharacterGachaPoolType_Standard"
	PoolTypeCharacterSpecial  = "E_CharacterGachaPoolType_Special"
	PoolTypeCharacterBeginner = "E_CharacterGachaPoolType_Beginner"
	PoolTypeWeapon            = "E_WeaponGachaPoolType_Weapon"
)

// CharacterPoolTypes lists every character pool the aggregator walks, in the
// order the official client does.
var CharacterPoolTypes = []string{
	PoolTypeCharacterStandard,
	PoolTypeCharacterSpecial,
	PoolTypeCharacterBeginner,
}

const (
	ImportKindCharacter = "character"
	ImportKindWeapon    = "weapon"
)

const (
	SessionStatusRunning = "running"
	SessionStatusDone    = "done"
	SessionStatusError   = "error"
)

const (
	ItemTypeCharacter = "character"
	ItemTypeWeapon    = "weapon"
)

const (
	DefaultLang     = "ru-ru"
	DefaultServerID = "3"
)

// DashboardPool is one pity card spec. Limits are fixed game rules, not
// configuration.
type DashboardPool struct {
	Title          string
	SourcePoolType string
	PoolIDFallback string
	SixStarLimit   int
	FiveStarLimit  int
}

var DashboardPools = []DashboardPool{
	{Title: "Character Event", SourcePoolType: PoolTypeCharacterSpecial, PoolIDFallback: "special", SixStarLimit: 80, FiveStarLimit: 10},
	{Title: "Standard", SourcePoolType: PoolTypeCharacterStandard, PoolIDFallback: "standard", SixStarLimit: 80, FiveStarLimit: 10},
	{Title: "Beginner", SourcePoolType: PoolTypeCharacterBeginner, PoolIDFallback: "beginner", SixStarLimit: 80, FiveStarLimit: 10},
	{Title: "Weapon", SourcePoolType: PoolTypeWeapon, PoolIDFallback: "weponbox", SixStarLimit: 40, FiveStarLimit: 10},
}

// VersionTopTrackedBanners caps how many banners of one version are tracked
// individually on the version stats card.
const VersionTopTrackedBanners = 3

// ExportSchemaVersion is the canonical history snapshot schema version.
const ExportSchemaVersion = 1
