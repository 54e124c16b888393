// internal/session/session.go
//
// Round orchestrator for one browser session.
// Responsibilities:
//   - Own the player's game.State and the active filters.
//   - Load rounds through a Fetcher, discarding results of superseded loads.
//   - Resolve wrong-guess feedback in the background (second lookup of the
//     guessed name) and apply it only to the round it was produced for.
//   - Push a View to subscribers after every transition.
//
// Notes:
//   - A single mutex serializes transitions; network calls never run under it.
//   - While a load is in flight, or after it failed, the previous round is
//     display-only: player actions return ErrLoading until a round loads.
//   - A failed load keeps the previous round and the guess counter as they
//     were and only sets LoadError.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/robalobadob/dexscope/internal/daily"
	"github.com/robalobadob/dexscope/internal/dex"
	"github.com/robalobadob/dexscope/internal/game"
	"github.com/robalobadob/dexscope/internal/pokeapi"
)

// LoadErrorMessage is shown when a round could not be fetched.
const LoadErrorMessage = "Failed to load Pokémon. Please try again."

const (
	defaultStrongMinBST  = 450
	defaultLookupTimeout = 5 * time.Second
)

var (
	ErrStaleRound        = errors.New("round load superseded")
	ErrLoading           = errors.New("round is loading")
	ErrInvalidGeneration = errors.New("generation must be 1-9 or 0 for all")
)

// Fetcher is the part of the data fetch adapter a session needs.
// *pokeapi.Client satisfies it.
type Fetcher interface {
	FetchRandom(ctx context.Context, f pokeapi.Filter) (*dex.Species, error)
	FetchByName(ctx context.Context, name string) (*dex.Species, error)
}

// Options tune a session. Zero values fall back to defaults.
type Options struct {
	StrongMinBST  int           // minimum base stat total for the strong-only filter
	LookupTimeout time.Duration // bound on each post-guess lookup
	DailySalt     string
	Now           func() time.Time
}

// Filters are the player's round constraints.
type Filters struct {
	Generation int  `json:"generation"` // 0 = all generations
	StrongOnly bool `json:"strongOnly"`
	Daily      bool `json:"daily"`
}

// View is what the presentation layer renders.
type View struct {
	game.Snapshot
	Loading   bool    `json:"loading"`
	LoadError string  `json:"loadError,omitempty"`
	Filters   Filters `json:"filters"`
}

// Session is one player's quiz. Safe for concurrent use.
type Session struct {
	ID string

	fetch Fetcher
	opts  Options

	mu       sync.Mutex
	state    game.State
	filters  Filters
	loading  bool
	loadErr  string
	loadSeq  uint64
	lastSeen time.Time
	closed   bool

	subs    map[int]chan View
	nextSub int

	lookups conc.WaitGroup
}

// New creates a session with no round loaded. Call NextRound to load one.
func New(id string, f Fetcher, opts Options) *Session {
	if opts.StrongMinBST <= 0 {
		opts.StrongMinBST = defaultStrongMinBST
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = defaultLookupTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		ID:       id,
		fetch:    f,
		opts:     opts,
		subs:     make(map[int]chan View),
		lastSeen: opts.Now(),
	}
}

// ------------------------------ rounds -------------------------------------

// NextRound fetches a target under the current filters and installs it.
// If another NextRound started meanwhile, the result is dropped and
// ErrStaleRound is returned.
func (s *Session) NextRound(ctx context.Context) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.loading = true
	s.loadErr = ""
	filter := s.filterLocked()
	s.touchLocked()
	s.broadcastLocked()
	s.mu.Unlock()

	sp, err := s.fetch.FetchRandom(ctx, filter)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loadSeq {
		log.Debug().Str("session", s.ID).Uint64("seq", seq).Msg("stale round result discarded")
		return ErrStaleRound
	}
	s.loading = false
	if err != nil {
		s.loadErr = LoadErrorMessage
		s.broadcastLocked()
		log.Warn().Err(err).Str("session", s.ID).Msg("round load failed")
		return err
	}
	s.state.NewRound(sp)
	s.broadcastLocked()
	log.Debug().Str("session", s.ID).Int("id", sp.ID).Int("generation", sp.Generation).Msg("round loaded")
	return nil
}

func (s *Session) filterLocked() pokeapi.Filter {
	f := pokeapi.Filter{Generation: s.filters.Generation}
	if s.filters.StrongOnly {
		f.MinBaseStatTotal = s.opts.StrongMinBST
	}
	if s.filters.Daily {
		scope := fmt.Sprintf("gen=%d;strong=%t", s.filters.Generation, s.filters.StrongOnly)
		f.Seed = daily.Seed(s.opts.Now(), s.opts.DailySalt, scope)
	}
	return f
}

// SetGenerationFilter restricts targets to gen (0 = all) and starts a new round.
func (s *Session) SetGenerationFilter(ctx context.Context, gen int) error {
	if gen != 0 && !dex.ValidGeneration(gen) {
		return ErrInvalidGeneration
	}
	s.mu.Lock()
	s.filters.Generation = gen
	s.mu.Unlock()
	return s.NextRound(ctx)
}

// SetStrengthFilter toggles the strong-only filter and starts a new round.
func (s *Session) SetStrengthFilter(ctx context.Context, strong bool) error {
	s.mu.Lock()
	s.filters.StrongOnly = strong
	s.mu.Unlock()
	return s.NextRound(ctx)
}

// SetDailyFilter toggles the daily challenge and starts a new round.
func (s *Session) SetDailyFilter(ctx context.Context, on bool) error {
	s.mu.Lock()
	s.filters.Daily = on
	s.mu.Unlock()
	return s.NextRound(ctx)
}

// ResetCounter zeroes the guess counter and starts a new round.
func (s *Session) ResetCounter(ctx context.Context) error {
	s.mu.Lock()
	s.state.ResetCounter()
	s.mu.Unlock()
	return s.NextRound(ctx)
}

// ------------------------------ guesses ------------------------------------

var closedDone = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// SubmitGuess evaluates text against the current target.
// The returned channel closes once feedback for a wrong guess has been
// resolved (immediately for a correct guess). On error the channel is nil and
// the state is unchanged.
func (s *Session) SubmitGuess(text string) (View, <-chan struct{}, error) {
	s.mu.Lock()
	if err := s.interactiveLocked(); err != nil {
		v := s.viewLocked()
		s.mu.Unlock()
		return v, nil, err
	}
	out, err := s.state.SubmitGuess(text)
	if err != nil {
		v := s.viewLocked()
		s.mu.Unlock()
		return v, nil, err
	}
	s.touchLocked()
	s.broadcastLocked()
	v := s.viewLocked()
	s.mu.Unlock()

	if out.Correct {
		return v, closedDone, nil
	}
	done := make(chan struct{})
	s.lookups.Go(func() {
		defer close(done)
		s.resolveFeedback(out)
	})
	return v, done, nil
}

// interactiveLocked rejects player actions while the displayed round is not
// the current one.
func (s *Session) interactiveLocked() error {
	if s.loading || s.loadErr != "" {
		return ErrLoading
	}
	return nil
}

// resolveFeedback looks the guess up to find its generation and applies the
// result. A panicking lookup is logged and shown as plain feedback.
func (s *Session) resolveFeedback(out game.GuessOutcome) {
	fb := game.UnknownFeedback(out.Guess)
	var pc panics.Catcher
	pc.Try(func() { fb = s.lookupFeedback(out) })
	if r := pc.Recovered(); r != nil {
		log.Error().Str("session", s.ID).Str("guess", out.Guess).
			Str("panic", r.String()).Msg("guess lookup panicked")
		fb = game.UnknownFeedback(out.Guess)
	}
	fb.NearMiss = out.NearMiss

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.ApplyFeedback(out.Token, fb) {
		log.Debug().Str("session", s.ID).Uint64("round", out.Token).Msg("stale guess feedback discarded")
		return
	}
	s.broadcastLocked()
}

// lookupFeedback maps the lookup result to feedback.
// Lookup failures only change which message is shown.
func (s *Session) lookupFeedback(out game.GuessOutcome) game.Feedback {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.LookupTimeout)
	defer cancel()

	sp, err := s.fetch.FetchByName(ctx, out.Guess)
	switch {
	case err == nil:
		return game.DirectionalFeedback(out.Guess, sp.Generation, out.TargetGeneration)
	case errors.Is(err, pokeapi.ErrNotFound):
		return game.InvalidNameFeedback(out.Guess)
	default:
		log.Warn().Err(err).Str("session", s.ID).Str("guess", out.Guess).Msg("guess lookup failed")
		return game.UnknownFeedback(out.Guess)
	}
}

// Wait blocks until every in-flight guess lookup has finished.
func (s *Session) Wait() { s.lookups.Wait() }

// ------------------------------- hints -------------------------------------

// RequestHint advances the hint progression.
func (s *Session) RequestHint() (game.HintStep, View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.interactiveLocked(); err != nil {
		return "", s.viewLocked(), err
	}
	step, err := s.state.RequestHint()
	if err == nil {
		s.touchLocked()
		s.broadcastLocked()
	}
	return step, s.viewLocked(), err
}

// ConfirmLetterReveal accepts the letter-reveal prompt.
func (s *Session) ConfirmLetterReveal() (View, error) {
	return s.apply(s.state.ConfirmLetterReveal)
}

// CancelLetterReveal dismisses the letter-reveal prompt.
func (s *Session) CancelLetterReveal() (View, error) {
	return s.apply(s.state.CancelLetterReveal)
}

// ShowAnswer reveals the current target.
func (s *Session) ShowAnswer() (View, error) {
	return s.apply(s.state.ShowAnswer)
}

func (s *Session) apply(fn func() error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.interactiveLocked(); err != nil {
		return s.viewLocked(), err
	}
	err := fn()
	if err == nil {
		s.touchLocked()
		s.broadcastLocked()
	}
	return s.viewLocked(), err
}

// ------------------------------- views -------------------------------------

// View returns the current view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	return View{
		Snapshot:  s.state.Snapshot(),
		Loading:   s.loading,
		LoadError: s.loadErr,
		Filters:   s.filters,
	}
}

// Subscribe returns a channel that receives the latest View after each
// transition. Slow readers only ever see the most recent one. The channel is
// closed by cancel or Close.
func (s *Session) Subscribe() (<-chan View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan View, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.viewLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) broadcastLocked() {
	if len(s.subs) == 0 {
		return
	}
	v := s.viewLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Close disconnects all subscribers. Further transitions are still allowed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// ------------------------------ activity -----------------------------------

// Touch records activity without a transition (e.g. a read).
func (s *Session) Touch() {
	s.mu.Lock()
	s.touchLocked()
	s.mu.Unlock()
}

func (s *Session) touchLocked() { s.lastSeen = s.opts.Now() }

// LastSeen reports the time of the last player action.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
