// internal/game/snapshot.go
//
// Read-only view of State for the presentation layer. Fields are gated by
// progress so the browser never learns more than the player has unlocked:
//   - stats + base stat total: always
//   - abilities:               HintLevel >= HintAbilities
//   - types:                   HintLevel >= HintTypes
//   - letter mask:             HintLevel == HintLetters
//   - name/id/sprite/gen:      only once Revealed

package game

import (
	"strings"

	"github.com/robalobadob/dexscope/internal/dex"
)

// Answer is the identity of the target, exposed after reveal.
type Answer struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Generation  int    `json:"generation"`
	SpriteURL   string `json:"spriteUrl"`
}

// Snapshot is a copy of the visible state; mutating it has no effect on State.
type Snapshot struct {
	Round            uint64     `json:"round"`
	HasTarget        bool       `json:"hasTarget"`
	Revealed         bool       `json:"revealed"`
	HintLevel        HintLevel  `json:"hintLevel"`
	RevealedLetters  int        `json:"revealedLetters"`
	ConfirmPending   bool       `json:"confirmLetterReveal"`
	LettersExhausted bool       `json:"lettersExhausted"`
	GuessCount       int        `json:"guessCount"`
	Feedback         *Feedback  `json:"feedback,omitempty"`
	Stats            []dex.Stat `json:"stats,omitempty"`
	BaseStatTotal    int        `json:"baseStatTotal,omitempty"`
	Abilities        []string   `json:"abilities,omitempty"`
	Types            []string   `json:"types,omitempty"`
	LetterHint       string     `json:"letterHint,omitempty"`
	Answer           *Answer    `json:"answer,omitempty"`
}

// Snapshot returns the gated view of s.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Round:            s.Token,
		HasTarget:        s.Target != nil,
		Revealed:         s.Revealed,
		HintLevel:        s.HintLevel,
		RevealedLetters:  s.RevealedLetters,
		ConfirmPending:   s.PendingConfirm,
		LettersExhausted: s.LettersExhausted(),
		GuessCount:       s.GuessCount,
	}
	if s.Feedback != nil {
		fb := *s.Feedback
		snap.Feedback = &fb
	}

	t := s.Target
	if t == nil {
		return snap
	}
	snap.Stats = append([]dex.Stat(nil), t.Stats...)
	snap.BaseStatTotal = t.BaseStatTotal
	if s.HintLevel >= HintAbilities || s.Revealed {
		snap.Abilities = append([]string(nil), t.Abilities...)
	}
	if s.HintLevel >= HintTypes || s.Revealed {
		snap.Types = append([]string(nil), t.Types...)
	}
	if s.HintLevel == HintLetters {
		snap.LetterHint = LetterMask(t.Name, s.RevealedLetters)
	}
	if s.Revealed {
		snap.Answer = &Answer{
			ID:          t.ID,
			Name:        t.Name,
			DisplayName: t.DisplayName(),
			Generation:  t.Generation,
			SpriteURL:   t.SpriteURL,
		}
	}
	return snap
}

// LetterMask shows the first n letters of name upper-cased and the rest as
// underscores, space separated: LetterMask("eevee", 2) == "E E _ _ _".
func LetterMask(name string, n int) string {
	runes := []rune(strings.ToUpper(name))
	parts := make([]string, len(runes))
	for i, r := range runes {
		if i < n {
			parts[i] = string(r)
		} else {
			parts[i] = "_"
		}
	}
	return strings.Join(parts, " ")
}
