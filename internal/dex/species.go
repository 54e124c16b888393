// internal/dex/species.go
//
// Canonical species record shared by the fetch adapter, the quiz engine and
// the HTTP layer. A Species is immutable once fetched for a round.

package dex

import "strings"

// Stat is a single (name, base value) pair as reported by the data provider.
// Order is the provider's order and is never re-sorted.
type Stat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Species is the normalized record for one Pokémon.
type Species struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`          // lowercase canonical name
	Stats         []Stat   `json:"stats"`         // provider order
	BaseStatTotal int      `json:"baseStatTotal"` // always SumStats(Stats)
	Generation    int      `json:"generation"`    // derived from ID, see Classify
	Abilities     []string `json:"abilities"`     // hyphens replaced with spaces
	Types         []string `json:"types"`         // capitalized, 1–2 entries
	SpriteURL     string   `json:"spriteUrl"`
}

// SumStats returns the base stat total for a stat list.
func SumStats(stats []Stat) int {
	total := 0
	for _, s := range stats {
		total += s.Value
	}
	return total
}

// DisplayName returns the name with its first letter upper-cased ("pikachu" → "Pikachu").
func (s *Species) DisplayName() string {
	return Capitalize(s.Name)
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
