// internal/pokeapi/types.go
//
// Raw upstream payload shapes and their normalization into dex.Species.
// Only the fields the quiz needs are decoded; everything else in the
// (large) /pokemon/{id} document is skipped by encoding/json.

package pokeapi

import (
	"strings"

	"github.com/robalobadob/dexscope/internal/dex"
)

type namedRef struct {
	Name string `json:"name"`
}

type rawStat struct {
	BaseStat int      `json:"base_stat"`
	Stat     namedRef `json:"stat"`
}

type rawAbility struct {
	Ability namedRef `json:"ability"`
}

type rawType struct {
	Type namedRef `json:"type"`
}

type rawArtwork struct {
	FrontDefault *string `json:"front_default"`
}

type rawSprites struct {
	Other map[string]rawArtwork `json:"other"`
}

// rawPokemon mirrors GET {base}/pokemon/{idOrName}.
type rawPokemon struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Stats     []rawStat    `json:"stats"`
	Abilities []rawAbility `json:"abilities"`
	Types     []rawType    `json:"types"`
	Sprites   rawSprites   `json:"sprites"`
}

const artworkKey = "official-artwork"

// normalize converts a raw record into the canonical species record.
// The generation is always derived from the id; the provider is never asked.
func normalize(raw *rawPokemon) *dex.Species {
	stats := make([]dex.Stat, 0, len(raw.Stats))
	for _, s := range raw.Stats {
		stats = append(stats, dex.Stat{Name: s.Stat.Name, Value: s.BaseStat})
	}

	abilities := make([]string, 0, len(raw.Abilities))
	for _, a := range raw.Abilities {
		abilities = append(abilities, strings.ReplaceAll(a.Ability.Name, "-", " "))
	}

	types := make([]string, 0, len(raw.Types))
	for _, t := range raw.Types {
		types = append(types, dex.Capitalize(t.Type.Name))
	}

	sprite := ""
	if art, ok := raw.Sprites.Other[artworkKey]; ok && art.FrontDefault != nil {
		sprite = *art.FrontDefault
	}

	return &dex.Species{
		ID:            raw.ID,
		Name:          strings.ToLower(raw.Name),
		Stats:         stats,
		BaseStatTotal: dex.SumStats(stats),
		Generation:    dex.Classify(raw.ID),
		Abilities:     abilities,
		Types:         types,
		SpriteURL:     sprite,
	}
}
