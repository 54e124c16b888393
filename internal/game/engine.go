// internal/game/engine.go
//
// Quiz state machine for a single player.
// Responsibilities:
//   - Start rounds (NewRound) while keeping the guess counter.
//   - Evaluate guesses with IsMatch and count every accepted attempt.
//   - Advance hints: abilities → types → (confirmed) letter reveal.
//   - Reveal the answer on a correct guess or on request.
//   - Accept asynchronous wrong-guess feedback only for the round it was
//     produced for (ApplyFeedback + Token).
//
// Once Revealed is true the round is terminal: guesses and hints are rejected
// with ErrRoundOver and leave the state untouched.
package game

import (
	"errors"
	"strings"

	"github.com/robalobadob/dexscope/internal/dex"
)

var (
	ErrNoTarget        = errors.New("no round loaded")
	ErrRoundOver       = errors.New("round already revealed")
	ErrBlankGuess      = errors.New("blank guess")
	ErrNoPendingReveal = errors.New("no letter reveal awaiting confirmation")
	ErrHintsExhausted  = errors.New("all letters already revealed")
)

// NewRound installs target and clears every per-round field.
// GuessCount is left alone.
func (s *State) NewRound(target *dex.Species) {
	s.Token++
	s.Target = target
	s.Revealed = false
	s.HintLevel = HintNone
	s.RevealedLetters = 0
	s.PendingConfirm = false
	s.Feedback = nil
}

// SubmitGuess counts and evaluates a guess.
// A correct guess reveals the round and clears feedback. A wrong guess
// returns an outcome whose Token must accompany the feedback later applied.
func (s *State) SubmitGuess(guess string) (GuessOutcome, error) {
	if s.Target == nil {
		return GuessOutcome{}, ErrNoTarget
	}
	if s.Revealed {
		return GuessOutcome{}, ErrRoundOver
	}
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return GuessOutcome{}, ErrBlankGuess
	}

	s.GuessCount++
	if IsMatch(guess, s.Target.Name) {
		s.Revealed = true
		s.PendingConfirm = false
		s.Feedback = nil
		return GuessOutcome{Correct: true, Guess: guess, Token: s.Token}, nil
	}
	return GuessOutcome{
		Guess:            guess,
		Token:            s.Token,
		TargetGeneration: s.Target.Generation,
		NearMiss:         NearMiss(guess, s.Target.Name),
	}, nil
}

// RequestHint advances the hint progression by one step.
//
//	HintNone      → HintAbilities
//	HintAbilities → HintTypes
//	HintTypes     → opens the letter-reveal prompt (no level change until confirmed)
//	HintLetters   → one more letter, capped at the name length
func (s *State) RequestHint() (HintStep, error) {
	if s.Target == nil {
		return "", ErrNoTarget
	}
	if s.Revealed {
		return "", ErrRoundOver
	}

	switch s.HintLevel {
	case HintNone:
		s.HintLevel = HintAbilities
		return HintStepAbilities, nil
	case HintAbilities:
		s.HintLevel = HintTypes
		return HintStepTypes, nil
	case HintTypes:
		s.PendingConfirm = true
		return HintStepConfirm, nil
	default:
		if s.RevealedLetters >= nameLen(s.Target) {
			return "", ErrHintsExhausted
		}
		s.RevealedLetters++
		return HintStepLetter, nil
	}
}

// ConfirmLetterReveal answers "yes" to the letter-reveal prompt.
func (s *State) ConfirmLetterReveal() error {
	if s.Target == nil {
		return ErrNoTarget
	}
	if s.Revealed {
		return ErrRoundOver
	}
	if !s.PendingConfirm {
		return ErrNoPendingReveal
	}
	s.PendingConfirm = false
	s.HintLevel = HintLetters
	s.RevealedLetters = 1
	return nil
}

// CancelLetterReveal answers "no" to the letter-reveal prompt.
func (s *State) CancelLetterReveal() error {
	if !s.PendingConfirm {
		return ErrNoPendingReveal
	}
	s.PendingConfirm = false
	return nil
}

// ShowAnswer reveals the round regardless of hint level.
func (s *State) ShowAnswer() error {
	if s.Target == nil {
		return ErrNoTarget
	}
	s.Revealed = true
	s.PendingConfirm = false
	return nil
}

// ResetCounter zeroes the guess counter.
func (s *State) ResetCounter() { s.GuessCount = 0 }

// ApplyFeedback installs feedback produced for round token.
// It reports false, leaving the state untouched, when the round has since
// advanced or been revealed.
func (s *State) ApplyFeedback(token uint64, fb Feedback) bool {
	if s.Target == nil || token != s.Token || s.Revealed {
		return false
	}
	s.Feedback = &fb
	return true
}

// LettersExhausted reports whether every letter of the name is showing.
func (s *State) LettersExhausted() bool {
	return s.Target != nil && s.HintLevel == HintLetters && s.RevealedLetters >= nameLen(s.Target)
}

func nameLen(sp *dex.Species) int { return len([]rune(sp.Name)) }
