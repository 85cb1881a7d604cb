package poi

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrStoreUnavailable marks a missing or unreadable POI database. Callers
// must treat it as a hard failure rather than an empty neighbourhood, or
// surveys would silently report zero POIs.
var ErrStoreUnavailable = eris.New("poi: store unavailable")

// Store is a read-only spatial POI database queryable by radius.
type Store interface {
	// Within returns every record whose great-circle distance to (lat, lng)
	// is at most radiusM meters.
	Within(ctx context.Context, lat, lng, radiusM float64) ([]Record, error)

	Close() error
}
