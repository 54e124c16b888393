// internal/httpserver/routes_filters.go
//
// Filter and counter endpoints (session required). Each one starts a new
// round, like changing the selector in the game UI:
//   - PUT  /filters/generation {generation: "all" | 1..9}
//   - PUT  /filters/strength   {strongOnly: bool}
//   - PUT  /filters/daily      {daily: bool}
//   - POST /counter/reset

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type generationReq struct {
	Generation json.RawMessage `json:"generation"`
}

type strengthReq struct {
	StrongOnly bool `json:"strongOnly"`
}

type dailyReq struct {
	Daily bool `json:"daily"`
}

func (s *Server) mountFilters(r chi.Router) {
	r.Route("/filters", func(r chi.Router) {
		r.Put("/generation", s.handleGenerationFilter)
		r.Put("/strength", s.handleStrengthFilter)
		r.Put("/daily", s.handleDailyFilter)
	})
	r.Post("/counter/reset", s.handleResetCounter)
}

// parseGeneration accepts "all", a number, or a numeric string. 0 means all.
func parseGeneration(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, false
	}
	str = strings.TrimSpace(strings.ToLower(str))
	if str == "all" || str == "" {
		return 0, true
	}
	n, err := strconv.Atoi(str)
	return n, err == nil
}

func (s *Server) handleGenerationFilter(w http.ResponseWriter, r *http.Request) {
	var req generationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	gen, ok := parseGeneration(req.Generation)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_generation")
		return
	}
	sess := sessionFrom(r)
	s.writeLoadResult(w, sess, sess.SetGenerationFilter(r.Context(), gen))
}

func (s *Server) handleStrengthFilter(w http.ResponseWriter, r *http.Request) {
	var req strengthReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess := sessionFrom(r)
	s.writeLoadResult(w, sess, sess.SetStrengthFilter(r.Context(), req.StrongOnly))
}

func (s *Server) handleDailyFilter(w http.ResponseWriter, r *http.Request) {
	var req dailyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess := sessionFrom(r)
	s.writeLoadResult(w, sess, sess.SetDailyFilter(r.Context(), req.Daily))
}

func (s *Server) handleResetCounter(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.writeLoadResult(w, sess, sess.ResetCounter(r.Context()))
}
