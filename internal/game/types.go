// internal/game/types.go
//
// Core type definitions for the quiz engine.
// Defines:
//   - HintLevel: how much of the target has been unlocked (abilities/types/letters).
//   - Feedback:  outcome text for the most recent wrong guess.
//   - State:     per-player quiz state (round fields + the guess counter).

package game

import "github.com/robalobadob/dexscope/internal/dex"

// HintLevel is the hint progression inside a round. It never decreases
// within a round and resets on NewRound.
type HintLevel int

const (
	HintNone      HintLevel = iota // stats only
	HintAbilities                  // abilities shown
	HintTypes                      // type badges shown
	HintLetters                    // letter reveal active
)

// HintStep tells the caller what a RequestHint call did.
type HintStep string

const (
	HintStepAbilities HintStep = "abilities" // 0 → 1
	HintStepTypes     HintStep = "types"     // 1 → 2
	HintStepConfirm   HintStep = "confirm"   // 2: letter reveal awaits yes/no
	HintStepLetter    HintStep = "letter"    // 3: one more letter shown
)

// FeedbackKind classifies a wrong guess.
type FeedbackKind string

const (
	FeedbackNewer   FeedbackKind = "newer"   // guessed species is from an older generation
	FeedbackOlder   FeedbackKind = "older"   // guessed species is from a newer generation
	FeedbackSame    FeedbackKind = "same"    // right generation, wrong species
	FeedbackInvalid FeedbackKind = "invalid" // guess is not a known species
	FeedbackUnknown FeedbackKind = "unknown" // lookup failed; direction unknown
)

// Feedback is shown for the most recent wrong guess.
type Feedback struct {
	Kind     FeedbackKind `json:"kind"`
	Message  string       `json:"message"`
	Guess    string       `json:"guess"`
	NearMiss bool         `json:"nearMiss,omitempty"` // spelling within 2 edits of the answer
}

// State holds one player's quiz state. The zero value is a valid
// "loading" state with no target.
//
// All fields are mutated only through the transition methods in engine.go.
type State struct {
	Token           uint64       // incremented by every NewRound
	Target          *dex.Species // nil while the first round loads
	Revealed        bool         // terminal for the round
	HintLevel       HintLevel
	RevealedLetters int  // meaningful only at HintLetters
	PendingConfirm  bool // letter-reveal prompt is open
	GuessCount      int  // survives NewRound; cleared by ResetCounter
	Feedback        *Feedback
}

// GuessOutcome describes an accepted guess.
// For a wrong guess the caller resolves the guessed species' generation and
// hands the result back through ApplyFeedback with Token.
type GuessOutcome struct {
	Correct          bool
	Guess            string
	Token            uint64
	TargetGeneration int
	NearMiss         bool
}
