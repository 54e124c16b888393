// internal/pokeapi/client.go
//
// Data fetch adapter for the upstream species provider (PokéAPI-compatible).
// Responsibilities:
//   - GET {base}/pokemon/{idOrName} and decode the subset of fields we need.
//   - Normalize raw records into dex.Species (see types.go).
//   - Random selection with generation / base-stat-total filtering under a
//     bounded attempt budget.
//
// Notes:
//   - Any transport, status or decode failure is returned as *FetchError and is
//     never retried here; the only "retry" is drawing another random candidate.
//   - When the budget is exhausted the last fetched candidate is returned as-is
//     unless StrictFilter is set, in which case ErrNoCandidateFound is returned.

package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/dexscope/internal/dex"
)

const (
	DefaultBaseURL     = "https://pokeapi.co/api/v2"
	DefaultMaxAttempts = 50
	defaultTimeout     = 10 * time.Second
	userAgent          = "dexscope/1.0"
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	MaxAttempts  int
	StrictFilter bool
	HTTPClient   *http.Client
}

// Filter constrains FetchRandom.
type Filter struct {
	Generation       int    // 1..9, 0 = all generations
	MinBaseStatTotal int    // 0 = no minimum
	Seed             uint64 // non-zero → deterministic candidate sequence
}

// Client talks to the species provider.
type Client struct {
	baseURL      string
	http         *http.Client
	maxAttempts  int
	strictFilter bool
}

// New builds a Client from opts.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:      base,
		http:         hc,
		maxAttempts:  attempts,
		strictFilter: opts.StrictFilter,
	}
}

// intSource is the subset of *rand.Rand used for candidate selection.
type intSource interface {
	IntN(n int) int
}

// globalSource draws from the auto-seeded package-level generator.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

func sourceFor(seed uint64) intSource {
	if seed == 0 {
		return globalSource{}
	}
	// same seed, same candidate sequence (daily mode)
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// FetchRandom picks species at random within f's generation (or the full
// range) until one meets f.MinBaseStatTotal or the attempt budget runs out.
func (c *Client) FetchRandom(ctx context.Context, f Filter) (*dex.Species, error) {
	r := dex.FullRange()
	if f.Generation != 0 {
		gr, ok := dex.RangeFor(f.Generation)
		if !ok {
			return nil, fmt.Errorf("pokeapi: unknown generation %d", f.Generation)
		}
		r = gr
	}

	src := sourceFor(f.Seed)
	var last *dex.Species
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		id := r.Start + src.IntN(r.Size())
		sp, err := c.FetchByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if f.MinBaseStatTotal <= 0 || sp.BaseStatTotal >= f.MinBaseStatTotal {
			return sp, nil
		}
		last = sp
	}

	if c.strictFilter {
		return nil, ErrNoCandidateFound
	}
	log.Warn().
		Int("attempts", c.maxAttempts).
		Int("generation", f.Generation).
		Int("minBst", f.MinBaseStatTotal).
		Int("fallbackId", last.ID).
		Msg("filter search exhausted, using last candidate")
	return last, nil
}

// FetchByID fetches and normalizes a single species by numeric id.
func (c *Client) FetchByID(ctx context.Context, id int) (*dex.Species, error) {
	return c.fetch(ctx, strconv.Itoa(id))
}

// FetchByName fetches and normalizes a single species by name.
// The name is trimmed and lower-cased; a blank name is reported as not found.
func (c *Client) FetchByName(ctx context.Context, name string) (*dex.Species, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, &FetchError{Op: "get", Target: name, Err: ErrNotFound}
	}
	return c.fetch(ctx, name)
}

func (c *Client) fetch(ctx context.Context, idOrName string) (*dex.Species, error) {
	reqURL := c.baseURL + "/pokemon/" + url.PathEscape(idOrName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{Op: "get", Target: idOrName, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "get", Target: idOrName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &FetchError{Op: "get", Target: idOrName, StatusCode: resp.StatusCode, Err: ErrNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Op:         "get",
			Target:     idOrName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var raw rawPokemon
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &FetchError{Op: "decode", Target: idOrName, StatusCode: resp.StatusCode, Err: err}
	}
	if raw.ID <= 0 || raw.Name == "" {
		return nil, &FetchError{Op: "decode", Target: idOrName, StatusCode: resp.StatusCode, Err: fmt.Errorf("record missing id or name")}
	}

	sp := normalize(&raw)
	log.Debug().Int("id", sp.ID).Str("name", sp.Name).Int("bst", sp.BaseStatTotal).Msg("species fetched")
	return sp, nil
}
