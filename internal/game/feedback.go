// internal/game/feedback.go
//
// Messages and constructors for wrong-guess feedback.
// The direction compares generations: a lower guessed generation means
// "try newer", a higher one means "try older".

package game

const (
	msgNewer   = "❌ Wrong! Try a newer generation."
	msgOlder   = "❌ Wrong! Try an older generation."
	msgSame    = "❌ Wrong! But you're in the right generation!"
	msgInvalid = "❌ Wrong! That's not a valid Pokémon name."
	msgUnknown = "❌ Wrong!"
)

// DirectionalFeedback compares the guessed species' generation with the target's.
func DirectionalFeedback(guess string, guessGen, targetGen int) Feedback {
	switch {
	case guessGen < targetGen:
		return Feedback{Kind: FeedbackNewer, Message: msgNewer, Guess: guess}
	case guessGen > targetGen:
		return Feedback{Kind: FeedbackOlder, Message: msgOlder, Guess: guess}
	default:
		return Feedback{Kind: FeedbackSame, Message: msgSame, Guess: guess}
	}
}

// InvalidNameFeedback is used when the guess names no known species.
func InvalidNameFeedback(guess string) Feedback {
	return Feedback{Kind: FeedbackInvalid, Message: msgInvalid, Guess: guess}
}

// UnknownFeedback is used when the lookup itself failed.
func UnknownFeedback(guess string) Feedback {
	return Feedback{Kind: FeedbackUnknown, Message: msgUnknown, Guess: guess}
}
