package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/dexscope/internal/dex"
	"github.com/robalobadob/dexscope/internal/game"
	"github.com/robalobadob/dexscope/internal/pokeapi"
	"github.com/robalobadob/dexscope/internal/session"
	"github.com/robalobadob/dexscope/internal/store"
)

const testOrigin = "http://localhost:5173"

// fakeFetcher always serves lucario (gen 4) for random draws and knows a few
// names for post-guess lookups.
type fakeFetcher struct {
	mu      sync.Mutex
	filters []pokeapi.Filter
	fail    bool
}

var known = map[string]*dex.Species{
	"pikachu":  {ID: 25, Name: "pikachu", Generation: 1},
	"garchomp": {ID: 445, Name: "garchomp", Generation: 4},
}

func (f *fakeFetcher) FetchRandom(_ context.Context, flt pokeapi.Filter) (*dex.Species, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, flt)
	if f.fail {
		return nil, &pokeapi.FetchError{Op: "get", Target: "1", StatusCode: 500}
	}
	return &dex.Species{
		ID:            448,
		Name:          "lucario",
		Stats:         []dex.Stat{{Name: "hp", Value: 70}, {Name: "attack", Value: 110}},
		BaseStatTotal: 180,
		Generation:    4,
		Abilities:     []string{"steadfast", "inner focus"},
		Types:         []string{"Fighting", "Steel"},
		SpriteURL:     "https://img/448.png",
	}, nil
}

func (f *fakeFetcher) FetchByName(_ context.Context, name string) (*dex.Species, error) {
	if sp, ok := known[name]; ok {
		return sp, nil
	}
	return nil, &pokeapi.FetchError{Op: "get", Target: name, StatusCode: 404, Err: pokeapi.ErrNotFound}
}

func newTestServer(t *testing.T, f *fakeFetcher) *Server {
	t.Helper()
	return New(store.NewMemoryStore(), f, Options{
		ClientOrigin:  testOrigin,
		SessionSecret: "test-secret",
		CookieName:    "dexscope_session",
		Session:       session.Options{LookupTimeout: 2 * time.Second},
	})
}

func do(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func startSession(t *testing.T, s *Server) newSessionRes {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/session", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /session: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[newSessionRes](t, rec)
	if res.Token == "" || res.SessionID == "" {
		t.Fatalf("missing token or id: %+v", res)
	}
	return res
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})
	rec := do(t, s, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewSessionLoadsRoundAndHidesAnswer(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})
	rec := do(t, s, http.MethodPost, "/session", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d", rec.Code)
	}
	if c := rec.Result().Cookies(); len(c) == 0 || c[0].Name != "dexscope_session" || !c[0].HttpOnly {
		t.Fatalf("session cookie missing: %+v", c)
	}
	body := rec.Body.String()
	if strings.Contains(body, "lucario") || strings.Contains(body, "steadfast") {
		t.Fatalf("answer or hints leaked: %s", body)
	}
	res := decode[newSessionRes](t, rec)
	if !res.View.HasTarget || res.View.BaseStatTotal != 180 {
		t.Fatalf("view=%+v", res.View)
	}
}

func TestRequireSession(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})

	if rec := do(t, s, http.MethodGet, "/round", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/round", "garbage", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}

	other := New(store.NewMemoryStore(), &fakeFetcher{}, Options{SessionSecret: "other"})
	tok, _, err := other.signToken("abc")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if rec := do(t, s, http.MethodGet, "/round", tok, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign token: %d", rec.Code)
	}

	// well-signed token for a session the store does not know
	tok, _, _ = s.signToken("missing")
	rec := do(t, s, http.MethodGet, "/round", tok, "")
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "session_expired") {
		t.Fatalf("unknown session: %d %s", rec.Code, rec.Body.String())
	}
}

func TestCookieAuth(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})
	sess := startSession(t, s)

	req := httptest.NewRequest(http.MethodGet, "/round", nil)
	req.AddCookie(&http.Cookie{Name: "dexscope_session", Value: sess.Token})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie auth: %d %s", rec.Code, rec.Body.String())
	}
}

func TestGuessFlow(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})
	tok := startSession(t, s).Token

	rec := do(t, s, http.MethodPost, "/round/guess", tok, `{"guess":"pikachu"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("guess: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[guessRes](t, rec)
	if res.Correct || res.View.Feedback == nil || res.View.Feedback.Kind != game.FeedbackNewer {
		t.Fatalf("wrong guess response %+v", res)
	}

	res = decode[guessRes](t, do(t, s, http.MethodPost, "/round/guess", tok, `{"guess":"garchomp"}`))
	if res.View.Feedback == nil || res.View.Feedback.Kind != game.FeedbackSame {
		t.Fatalf("same-generation feedback %+v", res.View.Feedback)
	}

	res = decode[guessRes](t, do(t, s, http.MethodPost, "/round/guess", tok, `{"guess":"xyzzy"}`))
	if res.View.Feedback == nil || res.View.Feedback.Kind != game.FeedbackInvalid {
		t.Fatalf("invalid-name feedback %+v", res.View.Feedback)
	}

	if rec := do(t, s, http.MethodPost, "/round/guess", tok, `{"guess":"   "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank guess: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/round/guess", tok, `{`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rec.Code)
	}

	res = decode[guessRes](t, do(t, s, http.MethodPost, "/round/guess", tok, `{"guess":"Lucarioo"}`))
	if !res.Correct || res.View.Answer == nil || res.View.Answer.Name != "lucario" {
		t.Fatalf("correct guess %+v", res)
	}
	if res.View.GuessCount != 4 {
		t.Fatalf("guessCount=%d want=4", res.View.GuessCount)
	}
	if rec := do(t, s, http.MethodPost, "/round/guess", tok, `{"guess":"lucario"}`); rec.Code != http.StatusConflict {
		t.Fatalf("guess after reveal: %d", rec.Code)
	}
}

func TestHintFlow(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})
	tok := startSession(t, s).Token

	steps := []game.HintStep{game.HintStepAbilities, game.HintStepTypes, game.HintStepConfirm}
	var last hintRes
	for _, want := range steps {
		rec := do(t, s, http.MethodPost, "/round/hint", tok, "")
		last = decode[hintRes](t, rec)
		if last.Step != want {
			t.Fatalf("step=%s want=%s", last.Step, want)
		}
	}
	if !last.View.ConfirmPending || len(last.View.Types) != 2 {
		t.Fatalf("view=%+v", last.View)
	}

	rec := do(t, s, http.MethodPost, "/round/hint/confirm", tok, "")
	v := decode[session.View](t, rec)
	if v.LetterHint != "L _ _ _ _ _ _" {
		t.Fatalf("letterHint=%q", v.LetterHint)
	}
	if rec := do(t, s, http.MethodPost, "/round/hint/cancel", tok, ""); rec.Code != http.StatusConflict {
		t.Fatalf("cancel without prompt: %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/round/answer", tok, "")
	v = decode[session.View](t, rec)
	if !v.Revealed || v.Answer == nil || v.Answer.SpriteURL != "https://img/448.png" {
		t.Fatalf("answer view=%+v", v)
	}
	if rec := do(t, s, http.MethodPost, "/round/hint", tok, ""); rec.Code != http.StatusConflict {
		t.Fatalf("hint after reveal: %d", rec.Code)
	}
}

func TestFiltersAndCounter(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestServer(t, f)
	tok := startSession(t, s).Token

	rec := do(t, s, http.MethodPut, "/filters/generation", tok, `{"generation":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("generation: %d %s", rec.Code, rec.Body.String())
	}
	if v := decode[session.View](t, rec); v.Filters.Generation != 4 || v.Round != 2 {
		t.Fatalf("view=%+v", v)
	}
	if rec := do(t, s, http.MethodPut, "/filters/generation", tok, `{"generation":"all"}`); rec.Code != http.StatusOK {
		t.Fatalf("generation all: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/filters/generation", tok, `{"generation":12}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("generation 12: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/filters/generation", tok, `{"generation":"x"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("generation x: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/filters/strength", tok, `{"strongOnly":true}`); rec.Code != http.StatusOK {
		t.Fatalf("strength: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/filters/daily", tok, `{"daily":true}`); rec.Code != http.StatusOK {
		t.Fatalf("daily: %d", rec.Code)
	}

	f.mu.Lock()
	last := f.filters[len(f.filters)-1]
	f.mu.Unlock()
	if last.MinBaseStatTotal != 450 || last.Seed == 0 || last.Generation != 0 {
		t.Fatalf("last filter=%+v", last)
	}

	_ = do(t, s, http.MethodPost, "/round/guess", tok, `{"guess":"pikachu"}`)
	rec = do(t, s, http.MethodPost, "/counter/reset", tok, "")
	if v := decode[session.View](t, rec); v.GuessCount != 0 || v.HintLevel != game.HintNone {
		t.Fatalf("after reset view=%+v", v)
	}
}

func TestNextRoundLoadFailure(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestServer(t, f)
	tok := startSession(t, s).Token

	f.mu.Lock()
	f.fail = true
	f.mu.Unlock()

	rec := do(t, s, http.MethodPost, "/round/next", tok, "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
	res := decode[struct {
		Error string       `json:"error"`
		View  session.View `json:"view"`
	}](t, rec)
	if res.Error != "load_failed" || res.View.LoadError != session.LoadErrorMessage || !res.View.HasTarget {
		t.Fatalf("res=%+v", res)
	}
}

func TestStreamPushesViews(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})
	tok := startSession(t, s).Token

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/round/stream"
	hdr := http.Header{"Authorization": {"Bearer " + tok}}
	conn, _, err := websocket.DefaultDialer.Dial(url, hdr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var v session.View
	if err := conn.ReadJSON(&v); err != nil {
		t.Fatalf("initial view: %v", err)
	}
	if v.HintLevel != game.HintNone {
		t.Fatalf("initial hint level %d", v.HintLevel)
	}

	if rec := do(t, s, http.MethodPost, "/round/hint", tok, ""); rec.Code != http.StatusOK {
		t.Fatalf("hint: %d", rec.Code)
	}
	if err := conn.ReadJSON(&v); err != nil {
		t.Fatalf("pushed view: %v", err)
	}
	if v.HintLevel != game.HintAbilities || len(v.Abilities) != 2 {
		t.Fatalf("pushed view=%+v", v)
	}
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	s := newTestServer(t, &fakeFetcher{})
	tok := startSession(t, s).Token

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/round/stream?token=" + tok
	hdr := http.Header{"Origin": {"http://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, hdr); err == nil {
		t.Fatalf("expected handshake failure for foreign origin")
	}
}

func TestNewSessionLoadFailureMatchesNextRound(t *testing.T) {
	f := &fakeFetcher{fail: true}
	s := newTestServer(t, f)

	rec := do(t, s, http.MethodPost, "/session", "", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d want %d", rec.Code, http.StatusBadGateway)
	}
	res := decode[newSessionRes](t, rec)
	if res.Error != "load_failed" || res.Token == "" || res.View.LoadError != session.LoadErrorMessage {
		t.Fatalf("res=%+v", res)
	}

	// the session is usable for a retry but not for play
	if rec := do(t, s, http.MethodPost, "/round/guess", res.Token, `{"guess":"pikachu"}`); rec.Code != http.StatusConflict ||
		!strings.Contains(rec.Body.String(), `"loading"`) {
		t.Fatalf("guess before a round loaded: %d %s", rec.Code, rec.Body.String())
	}

	f.mu.Lock()
	f.fail = false
	f.mu.Unlock()
	if rec := do(t, s, http.MethodPost, "/round/next", res.Token, ""); rec.Code != http.StatusOK {
		t.Fatalf("retry: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, s, http.MethodPost, "/round/hint", res.Token, ""); rec.Code != http.StatusOK {
		t.Fatalf("hint after retry: %d", rec.Code)
	}
}

func TestLoadStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "ok", err: nil, status: http.StatusOK},
		{name: "superseded", err: session.ErrStaleRound, status: http.StatusOK},
		{name: "upstream", err: &pokeapi.FetchError{Op: "get", Target: "1", StatusCode: 503}, status: http.StatusBadGateway, code: "load_failed"},
		{name: "strict filter", err: pokeapi.ErrNoCandidateFound, status: http.StatusBadGateway, code: "load_failed"},
		{name: "other", err: errors.New("broken"), status: http.StatusInternalServerError, code: "internal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, code := loadStatus(tc.err)
			if status != tc.status || code != tc.code {
				t.Fatalf("loadStatus(%v)=%d,%q want %d,%q", tc.err, status, code, tc.status, tc.code)
			}
		})
	}
}
