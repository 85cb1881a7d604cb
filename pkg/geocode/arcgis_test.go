package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// candidateJSON builds one findAddressCandidates candidate.
func candidateJSON(addr string, score float64, lng, lat float64, city, subregion string) map[string]any {
	return map[string]any{
		"address": addr,
		"score":   score,
		"location": map[string]any{
			"x": lng,
			"y": lat,
		},
		"attributes": map[string]any{
			"Match_addr": addr,
			"City":       city,
			"Subregion":  subregion,
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base := []Option{
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	}
	return NewClient(append(base, opts...)...)
}

func TestGeocode_BestCandidateByScore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "臺北市大安區新生南路三段1號", r.URL.Query().Get("SingleLine"))
		assert.Equal(t, "json", r.URL.Query().Get("f"))

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				candidateJSON("臺北市中正區重慶南路一段", 80.5, 121.512, 25.041, "臺北市", "中正區"),
				candidateJSON("臺北市大安區新生南路三段1號", 98.75, 121.534, 25.021, "臺北市", "大安區"),
				candidateJSON("臺北市大安區新生南路", 85, 121.533, 25.026, "臺北市", "大安區"),
			},
		})
	})

	result, err := client.Geocode(context.Background(), "臺北市大安區新生南路三段1號")
	require.NoError(t, err)
	assert.InDelta(t, 25.021, result.Latitude, 0.0001)
	assert.InDelta(t, 121.534, result.Longitude, 0.0001)
	assert.InDelta(t, 98.75, result.Score, 0.001)
	assert.Equal(t, "臺北市", result.City)
	assert.Equal(t, "大安區", result.District)
}

func TestGeocode_RegionFallbackFromMatchAddr(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Provider without City/Subregion attributes: parse the address text.
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				candidateJSON("高雄市左營區博愛二路777號", 92, 120.3, 22.68, "", ""),
			},
		})
	})

	result, err := client.Geocode(context.Background(), "高雄市左營區博愛二路777號")
	require.NoError(t, err)
	assert.Equal(t, "高雄市", result.City)
	assert.Equal(t, "左營區", result.District)
}

func TestGeocode_NoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	_, err := client.Geocode(context.Background(), "不存在的地址12345")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoMatch))
	assert.False(t, eris.Is(err, ErrProvider))
}

func TestGeocode_EmptyAddress(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called for an empty address")
	})

	_, err := client.Geocode(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoMatch))
}

func TestGeocode_ProviderStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	})

	_, err := client.Geocode(context.Background(), "臺北市信義區市府路1號")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrProvider))
	assert.False(t, eris.Is(err, ErrNoMatch))
}

func TestGeocode_ProviderEmbeddedError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// ArcGIS reports some failures as 200 with an error body.
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "quota exceeded"},
		})
	})

	_, err := client.Geocode(context.Background(), "臺北市信義區市府路1號")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrProvider))
}

func TestGeocode_ProviderBadJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.Geocode(context.Background(), "臺北市信義區市府路1號")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrProvider))
}

func TestGeocode_CachesSuccess(t *testing.T) {
	var calls int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				candidateJSON("臺北市中正區館前路2號", 97, 121.5145, 25.0455, "臺北市", "中正區"),
			},
		})
	}, WithCacheTTL(time.Minute))

	first, err := client.Geocode(context.Background(), "臺北市中正區館前路2號")
	require.NoError(t, err)
	second, err := client.Geocode(context.Background(), "臺北市中正區館前路2號")
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "second lookup must come from cache")
	assert.Equal(t, first, second)

	// A full-width variant of the same address normalizes to the same key.
	third, err := client.Geocode(context.Background(), "臺北市中正區館前路２號")
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	assert.Equal(t, first, third)
}

func TestGeocode_NoMatchNotCached(t *testing.T) {
	var calls int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}, WithCacheTTL(time.Minute))

	for i := 0; i < 2; i++ {
		_, err := client.Geocode(context.Background(), "查無此地址")
		require.Error(t, err)
	}
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}
