// internal/httpserver/server.go
//
// HTTP server wiring for the dexscope quiz.
// Responsibilities:
//   - Router + middleware (request IDs, request logging, panic recovery,
//     timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health", POST /session.
//   - Session-gated quiz endpoints (see routes_round.go, routes_filters.go).
//   - Websocket snapshot stream (stream.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled so the session cookie works.
//   - Round state lives server-side; responses only carry the gated View, so
//     the answer never reaches the browser before it is revealed.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/dexscope/internal/game"
	"github.com/robalobadob/dexscope/internal/session"
	"github.com/robalobadob/dexscope/internal/store"
)

const defaultHandlerTimeout = 15 * time.Second

// Options configure the server.
type Options struct {
	ClientOrigin   string
	Production     bool // Secure + SameSite=None cookies
	HandlerTimeout time.Duration
	SessionSecret  string
	CookieName     string
	Session        session.Options
}

// Server bundles router, session store and the species fetcher.
type Server struct {
	r     *chi.Mux
	store store.Store
	fetch session.Fetcher
	opts  Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, f session.Fetcher, opts Options) *Server {
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = defaultHandlerTimeout
	}
	if opts.CookieName == "" {
		opts.CookieName = "dexscope_session"
	}
	if opts.Session.LookupTimeout <= 0 {
		opts.Session.LookupTimeout = 5 * time.Second
	}
	s := &Server{r: chi.NewRouter(), store: st, fetch: f, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// websocket stream: long-lived, so no handler timeout
	s.r.With(s.requireSession).Get("/round/stream", s.handleStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.HandlerTimeout))
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"dexscope","endpoints":["/health","POST /session","/round/*","/filters/*","POST /counter/reset"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Post("/session", s.handleNewSession)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			s.mountRound(r)
			s.mountFilters(r)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (used by main and tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": code}.
func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeGameError maps state machine and orchestrator errors to HTTP.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrBlankGuess):
		writeError(w, http.StatusBadRequest, "blank_guess")
	case errors.Is(err, game.ErrNoTarget):
		writeError(w, http.StatusConflict, "no_round")
	case errors.Is(err, game.ErrRoundOver):
		writeError(w, http.StatusConflict, "round_over")
	case errors.Is(err, game.ErrNoPendingReveal):
		writeError(w, http.StatusConflict, "no_pending_reveal")
	case errors.Is(err, game.ErrHintsExhausted):
		writeError(w, http.StatusConflict, "hints_exhausted")
	case errors.Is(err, session.ErrLoading):
		writeError(w, http.StatusConflict, "loading")
	case errors.Is(err, session.ErrInvalidGeneration):
		writeError(w, http.StatusBadRequest, "invalid_generation")
	default:
		log.Error().Err(err).Msg("unhandled quiz error")
		writeError(w, http.StatusInternalServerError, "internal")
	}
}
