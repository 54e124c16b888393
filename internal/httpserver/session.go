// internal/httpserver/session.go
//
// Session creation and lookup.
//   - POST /session creates a quiz session, loads its first round and issues
//     an HS256 JWT whose subject is the session ID.
//   - requireSession accepts the token as a bearer header, the session
//     cookie, or (for websocket clients) a ?token= query parameter.
//
// The token only binds a browser to its session; there are no user accounts.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/dexscope/internal/session"
)

const tokenLifetime = 7 * 24 * time.Hour

type ctxSessionKey struct{}

type newSessionRes struct {
	Error     string       `json:"error,omitempty"`
	SessionID string       `json:"sessionId"`
	Token     string       `json:"token"`
	View      session.View `json:"view"`
}

// handleNewSession creates a session and loads its first round.
// A failed first load answers with the same status as POST /round/next but
// still returns the session and token, so the client can retry with
// /round/next; the view carries LoadError.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	sess := session.New(id, s.fetch, s.opts.Session)
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	tok, exp, err := s.signToken(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setSessionCookie(w, tok, exp)
	log.Info().Str("session", id).Msg("session created")

	res := newSessionRes{SessionID: id, Token: tok}
	status, code := loadStatus(sess.NextRound(r.Context()))
	if status == http.StatusOK {
		status = http.StatusCreated
	}
	res.Error = code
	res.View = sess.View()
	writeJSON(w, status, res)
}

// requireSession resolves the caller's session or responds 401.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := s.tokenFrom(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "no_session")
			return
		}
		id, err := s.parseToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		sess, err := s.store.Get(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "session_expired")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(ctxSessionKey{}).(*session.Session)
	return sess
}

// ------------------------------ JWT & cookies ------------------------------

func (s *Server) signToken(sessionID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(tokenLifetime)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString([]byte(s.opts.SessionSecret))
	return ss, exp, err
}

func (s *Server) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no session")
	}
	return claims.Subject, nil
}

// setSessionCookie writes the token cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.opts.Production {
		sameSite = http.SameSiteNoneMode // required for cross-site use when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Production,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// tokenFrom extracts the token from the Authorization header, the cookie or
// the token query parameter, in that order.
func (s *Server) tokenFrom(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}
