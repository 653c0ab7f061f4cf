package model

// StaticCharacter is one entry of the built-in character catalog. Names vary
// between interface languages upstream, so matching runs over the canonical
// name plus every alias and official localized name.
type StaticCharacter struct {
	Code    string            `json:"code"`
	Name    string            `json:"name"`
	Rarity  int               `json:"rarity"`
	IconURL string            `json:"icon_url"`
	Aliases []string          `json:"aliases,omitempty"`
	// OfficialNames maps a language code (ru, en, de, zh-hans, ja) to the
	// in-game character name for that language.
	OfficialNames map[string]string `json:"official_names,omitempty"`
}

// AllNames returns the canonical name, aliases and localized official names,
// deduplicated, for identity matching.
func (c *StaticCharacter) AllNames() []string {
	values := make([]string, 0, 2+len(c.Aliases)+len(c.OfficialNames))
	values = append(values, c.Name)
	values = append(values, c.Aliases...)
	for _, name := range c.OfficialNames {
		values = append(values, name)
	}

	seen := make(map[string]struct{}, len(values))
	unique := values[:0]
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}
	return unique
}
