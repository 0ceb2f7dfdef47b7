package types

import "slices"

// Variant is a cosmetic tag a user marks as collected or held per item.
type Variant string

// Known variants in canonical display order.
const (
	VariantNormal      Variant = "Normal"
	VariantGold        Variant = "Gold"
	VariantDiamond     Variant = "Diamond"
	VariantRainbow     Variant = "Rainbow"
	VariantRadioactive Variant = "Radioactive"
	VariantCursed      Variant = "Cursed"
	VariantCandy       Variant = "Candy"
	VariantLava        Variant = "Lava"
	VariantGalaxy      Variant = "Galaxy"
	VariantYinYang     Variant = "YinYang"
	VariantDivine      Variant = "Divine"
)

// Variants lists every known variant in canonical order. Tabs are shown in
// this order and variant sets are normalised to it.
var Variants = []Variant{
	VariantNormal,
	VariantGold,
	VariantDiamond,
	VariantRainbow,
	VariantRadioactive,
	VariantCursed,
	VariantCandy,
	VariantLava,
	VariantGalaxy,
	VariantYinYang,
	VariantDivine,
}

var variantRank = func() map[Variant]int {
	m := make(map[Variant]int, len(Variants))
	for i, v := range Variants {
		m[v] = i
	}
	return m
}()

// Known reports whether v is one of the enumerated variants.
func (v Variant) Known() bool {
	_, ok := variantRank[v]
	return ok
}

// ParseVariant returns the variant named s. Matching is exact; it returns
// ErrUnknownVariant for anything outside the enumeration.
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if !v.Known() {
		return "", ErrUnknownVariant
	}
	return v, nil
}

// SetTag is the subset of variants that also gate catalog visibility.
type SetTag = Variant

// SetTags lists the set tags in cumulative order: every Candy item is also
// shown under Lava, and every Lava item under Galaxy.
var SetTags = []SetTag{VariantCandy, VariantLava, VariantGalaxy}

// IsSetTag reports whether v is one of Candy, Lava or Galaxy.
func (v Variant) IsSetTag() bool {
	return slices.Contains(SetTags, v)
}

// compareVariants orders known variants canonically and unknown ones after
// them, lexically.
func compareVariants(a, b Variant) int {
	ra, aok := variantRank[a]
	rb, bok := variantRank[b]
	switch {
	case aok && bok:
		return ra - rb
	case aok:
		return -1
	case bok:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
