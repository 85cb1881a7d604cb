// Package geocode resolves street addresses to WGS84 coordinates and
// Taiwanese administrative regions via the ArcGIS World Geocoder.
package geocode

import (
	"context"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Sentinel errors. ErrNoMatch means the provider answered but knew no such
// address; ErrProvider covers transport, status and decode failures. The two
// must stay distinguishable for the caller-facing error contract.
var (
	ErrNoMatch  = eris.New("geocode: no match for address")
	ErrProvider = eris.New("geocode: provider unavailable")
)

// Result holds the normalized geocoder output for one address.
type Result struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	MatchAddr string  `json:"match_addr"`
	Score     float64 `json:"score"`
	City      string  `json:"city,omitempty"`
	District  string  `json:"district,omitempty"`
}

// Client geocodes a single address.
type Client interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client for provider requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithBaseURL overrides the ArcGIS endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithRateLimit sets the requests-per-second limit on provider calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
}

// WithCacheTTL sets how long successful results are cached in memory.
// A non-positive TTL disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *geocoder) {
		if ttl <= 0 {
			g.cache = nil
			return
		}
		g.cache = gocache.New(ttl, 2*ttl)
	}
}

// WithMaxCandidates sets how many candidates the provider is asked for.
func WithMaxCandidates(n int) Option {
	return func(g *geocoder) {
		if n > 0 {
			g.maxCandidates = n
		}
	}
}

type geocoder struct {
	httpClient    *http.Client
	baseURL       string
	limiter       *rate.Limiter
	cache         *gocache.Cache
	maxCandidates int
}

// NewClient creates a geocoding Client with the given options. Defaults:
// the public ArcGIS endpoint, 10s timeout, 10 req/s, 15 minute result cache.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		baseURL:       arcgisFindURL,
		limiter:       rate.NewLimiter(10, 11),
		cache:         gocache.New(15*time.Minute, 30*time.Minute),
		maxCandidates: 6,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves one address, serving repeats from the in-memory cache.
// Only successful matches are cached; no-match and provider errors always
// hit the provider again.
func (g *geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	key := NormalizeAddress(address)
	if key == "" {
		return nil, eris.Wrap(ErrNoMatch, "empty address")
	}

	if g.cache != nil {
		if v, ok := g.cache.Get(key); ok {
			r := v.(Result)
			return &r, nil
		}
	}

	result, err := g.geocodeArcGIS(ctx, key)
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		g.cache.SetDefault(key, *result)
	}
	return result, nil
}
