package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testArtifact returns a small valid artifact. The single stump splits on
// 總資產 <= 500000: poor shops score 0.2, rich ones 0.8.
func testArtifact() *Artifact {
	return &Artifact{
		Model: Forest{Trees: []Tree{
			{
				Feature:   []int{0, -1, -1},
				Threshold: []float64{500000, 0, 0},
				Left:      []int{1, 0, 0},
				Right:     []int{2, 0, 0},
				Value:     []float64{0, 0.2, 0.8},
			},
		}},
		Features:    []string{"總資產", "加油站"},
		DistrictMap: map[string]float64{"中正區": 0.91},
		GlobalMean:  0.85,
		Threshold:   0.5,
	}
}

// writeArtifact writes an artifact file for a horizon into dir.
func writeArtifact(t *testing.T, dir string, year int, a *Artifact) {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ArtifactFile(year)), data, 0o644))
}

func TestNormalizeYear(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		year     int
		fallback bool
	}{
		{name: "supported 3", raw: "3", year: 3, fallback: false},
		{name: "supported 5", raw: "5", year: 5, fallback: false},
		{name: "supported 15", raw: "15", year: 15, fallback: false},
		{name: "unsupported 4", raw: "4", year: 5, fallback: true},
		{name: "negative", raw: "-1", year: 5, fallback: true},
		{name: "not a number", raw: "abc", year: 5, fallback: true},
		{name: "empty means default", raw: "", year: 5, fallback: false},
		{name: "whitespace", raw: "  10 ", year: 10, fallback: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, fallback := NormalizeYear(tt.raw)
			assert.Equal(t, tt.year, year)
			assert.Equal(t, tt.fallback, fallback)
		})
	}
}

func TestRegistry_GetCaches(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, 5, testArtifact())
	reg := New(dir)

	first, err := reg.Get(context.Background(), 5)
	require.NoError(t, err)

	// Replace the file with garbage: the cached artifact must keep serving.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ArtifactFile(5)), []byte("junk"), 0o644))

	second, err := reg.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegistry_MissingArtifact(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, 5, testArtifact())
	reg := New(dir)

	_, err := reg.Get(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrModelUnavailable))

	// Other horizons keep working after the failure.
	a, err := reg.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestRegistry_FailedLoadRetries(t *testing.T) {
	dir := t.TempDir()
	reg := New(dir)

	_, err := reg.Get(context.Background(), 3)
	require.Error(t, err)

	// The file appears later; the registry must not have cached the failure.
	writeArtifact(t, dir, 3, testArtifact())
	a, err := reg.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestRegistry_ConcurrentFirstLoad(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, 10, testArtifact())
	reg := New(dir)

	const n = 32
	results := make([]*Artifact, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := reg.Get(context.Background(), 10)
			assert.NoError(t, err)
			results[i] = a
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i], "all callers must share one loaded artifact")
	}
}

func TestRegistry_Warm(t *testing.T) {
	dir := t.TempDir()
	for _, y := range SupportedYears {
		writeArtifact(t, dir, y, testArtifact())
	}
	reg := New(dir)
	require.NoError(t, reg.Warm(context.Background()))

	for _, y := range SupportedYears {
		a, err := reg.Get(context.Background(), y)
		require.NoError(t, err)
		assert.NotNil(t, a)
	}
}

func TestLoadArtifact_Corrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ArtifactFile(5))
	require.NoError(t, os.WriteFile(path, []byte("{\"features\": 42}"), 0o644))

	_, err := LoadArtifact(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrModelUnavailable))
}

func TestArtifactValidate(t *testing.T) {
	mutate := func(f func(*Artifact)) *Artifact {
		a := testArtifact()
		f(a)
		return a
	}

	tests := []struct {
		name    string
		a       *Artifact
		wantErr bool
	}{
		{name: "valid", a: testArtifact(), wantErr: false},
		{name: "no features", a: mutate(func(a *Artifact) { a.Features = nil }), wantErr: true},
		{name: "threshold above 1", a: mutate(func(a *Artifact) { a.Threshold = 1.5 }), wantErr: true},
		{name: "negative threshold", a: mutate(func(a *Artifact) { a.Threshold = -0.1 }), wantErr: true},
		{name: "global mean above 1", a: mutate(func(a *Artifact) { a.GlobalMean = 2 }), wantErr: true},
		{name: "no trees", a: mutate(func(a *Artifact) { a.Model.Trees = nil }), wantErr: true},
		{
			name: "feature index out of range",
			a: mutate(func(a *Artifact) {
				a.Model.Trees[0].Feature[0] = 9
			}),
			wantErr: true,
		},
		{
			name: "child points backward",
			a: mutate(func(a *Artifact) {
				a.Model.Trees[0].Left[0] = 0
			}),
			wantErr: true,
		},
		{
			name: "leaf value out of range",
			a: mutate(func(a *Artifact) {
				a.Model.Trees[0].Value[1] = 1.7
			}),
			wantErr: true,
		},
		{
			name: "inconsistent arrays",
			a: mutate(func(a *Artifact) {
				a.Model.Trees[0].Threshold = a.Model.Trees[0].Threshold[:1]
			}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
