// internal/httpserver/routes_round.go
//
// Round endpoints (session required):
//   - GET  /round               → current view
//   - POST /round/next          → load a new round under the current filters
//   - POST /round/guess         → submit a guess {guess}
//   - POST /round/hint          → next hint step
//   - POST /round/hint/confirm  → accept the letter-reveal prompt
//   - POST /round/hint/cancel   → dismiss the letter-reveal prompt
//   - POST /round/answer        → reveal the answer

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/dexscope/internal/game"
	"github.com/robalobadob/dexscope/internal/pokeapi"
	"github.com/robalobadob/dexscope/internal/session"
)

type guessReq struct {
	Guess string `json:"guess"`
}

type guessRes struct {
	Correct bool         `json:"correct"`
	View    session.View `json:"view"`
}

type hintRes struct {
	Step game.HintStep `json:"step"`
	View session.View  `json:"view"`
}

func (s *Server) mountRound(r chi.Router) {
	r.Route("/round", func(r chi.Router) {
		r.Get("/", s.handleGetRound)
		r.Post("/next", s.handleNextRound)
		r.Post("/guess", s.handleGuess)
		r.Post("/hint", s.handleHint)
		r.Post("/hint/confirm", s.viewAction((*session.Session).ConfirmLetterReveal))
		r.Post("/hint/cancel", s.viewAction((*session.Session).CancelLetterReveal))
		r.Post("/answer", s.viewAction((*session.Session).ShowAnswer))
	})
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Touch()
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	s.writeLoadResult(w, sessionFrom(r), sessionFrom(r).NextRound(r.Context()))
}

// loadStatus maps a round-load error to a status and error code.
// A superseded load is not an error for the caller: the newer load owns the
// round. Upstream failures are 502, anything else 500.
func loadStatus(err error) (int, string) {
	switch {
	case err == nil, errors.Is(err, session.ErrStaleRound):
		return http.StatusOK, ""
	case pokeapi.IsFetchFailure(err), errors.Is(err, pokeapi.ErrNoCandidateFound):
		return http.StatusBadGateway, "load_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeLoadResult reports the outcome of a round load with the current view.
func (s *Server) writeLoadResult(w http.ResponseWriter, sess *session.Session, err error) {
	if errors.Is(err, session.ErrInvalidGeneration) {
		writeGameError(w, err)
		return
	}
	status, code := loadStatus(err)
	if status == http.StatusOK {
		writeJSON(w, status, sess.View())
		return
	}
	writeJSON(w, status, map[string]any{
		"error": code,
		"view":  sess.View(),
	})
}

// handleGuess submits a guess and, for a wrong guess, waits up to the lookup
// timeout so the directional feedback usually arrives in the same response.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess := sessionFrom(r)
	v, done, err := sess.SubmitGuess(req.Guess)
	if err != nil {
		writeGameError(w, err)
		return
	}
	correct := v.Revealed

	timer := time.NewTimer(s.opts.Session.LookupTimeout)
	defer timer.Stop()
	select {
	case <-done:
		v = sess.View()
	case <-timer.C:
	case <-r.Context().Done():
		return
	}
	writeJSON(w, http.StatusOK, guessRes{Correct: correct, View: v})
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	step, v, err := sessionFrom(r).RequestHint()
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hintRes{Step: step, View: v})
}

// viewAction adapts a session transition returning (View, error) to a handler.
func (s *Server) viewAction(fn func(*session.Session) (session.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(sessionFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
