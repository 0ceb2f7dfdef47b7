package types

import "slices"

// RarityTier is the catalog rarity label of an item.
type RarityTier string

// Rarity tiers, lowest to highest.
const (
	RarityCommon      RarityTier = "Common"
	RarityRare        RarityTier = "Rare"
	RarityEpic        RarityTier = "Epic"
	RarityLegendary   RarityTier = "Legendary"
	RarityMythical    RarityTier = "Mythical"
	RarityBrainrotGod RarityTier = "Brainrot God"
	RaritySecret      RarityTier = "Secret"
)

// OrDefault returns r, or RarityCommon when r is empty.
func (r RarityTier) OrDefault() RarityTier {
	if r == "" {
		return RarityCommon
	}
	return r
}

// Item is one collectible type from the catalog. Items are immutable after
// the catalog is loaded; ID is stable across catalog updates, Name is not.
type Item struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Rarity    RarityTier `json:"rarity,omitempty"`
	Value     float64    `json:"value"`
	Image     string     `json:"image,omitempty"`
	FixedSets []SetTag   `json:"fixed_sets,omitempty"`
}

// InSet reports whether the item's fixed sets contain tag.
func (it Item) InSet(tag SetTag) bool {
	return slices.Contains(it.FixedSets, tag)
}
