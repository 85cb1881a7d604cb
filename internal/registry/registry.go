package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultYear is the horizon used when the requested one is unsupported.
const DefaultYear = 5

// SupportedYears are the forecast horizons with trained artifacts, ascending.
var SupportedYears = []int{3, 5, 7, 10, 15}

// NormalizeYear maps a raw model-year string to a supported horizon.
// Anything unparseable or unsupported falls back to DefaultYear; the second
// return reports whether a fallback happened so callers can surface it.
func NormalizeYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultYear, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultYear, true
	}
	for _, y := range SupportedYears {
		if year == y {
			return year, false
		}
	}
	return DefaultYear, true
}

// ArtifactFile returns the artifact filename for a horizon.
func ArtifactFile(year int) string {
	return fmt.Sprintf("survival_model_%dyears.json", year)
}

// Registry resolves horizons to loaded artifacts, loading each file at most
// once per process. Safe for concurrent use: a burst of first requests for
// the same horizon is collapsed by singleflight, and a failed load is not
// cached so the next request retries.
type Registry struct {
	dir string

	mu    sync.RWMutex
	cache map[int]*Artifact
	group singleflight.Group
}

// New creates a Registry over a directory of artifact files.
func New(dir string) *Registry {
	return &Registry{
		dir:   dir,
		cache: make(map[int]*Artifact, len(SupportedYears)),
	}
}

// Get returns the artifact for a supported horizon, loading it on first use.
// The year must already be normalized; unknown years fail with
// ErrModelUnavailable rather than guessing.
func (r *Registry) Get(ctx context.Context, year int) (*Artifact, error) {
	r.mu.RLock()
	a, ok := r.cache[year]
	r.mu.RUnlock()
	if ok {
		return a, nil
	}

	v, err, _ := r.group.Do(strconv.Itoa(year), func() (any, error) {
		// Re-check under the group: a prior flight may have filled the cache.
		r.mu.RLock()
		cached, ok := r.cache[year]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		path := filepath.Join(r.dir, ArtifactFile(year))
		loaded, err := LoadArtifact(path)
		if err != nil {
			return nil, err
		}

		zap.L().Info("model artifact loaded",
			zap.Int("year", year),
			zap.String("path", path),
			zap.Int("features", len(loaded.Features)),
			zap.Int("trees", len(loaded.Model.Trees)),
			zap.Float64("threshold", loaded.Threshold),
		)

		r.mu.Lock()
		r.cache[year] = loaded
		r.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.(*Artifact), nil
}

// Warm preloads the artifact for every supported horizon, returning the
// first load error. Used by the models warm command and optionally at serve
// startup.
func (r *Registry) Warm(ctx context.Context) error {
	for _, y := range SupportedYears {
		if _, err := r.Get(ctx, y); err != nil {
			return err
		}
	}
	return nil
}
