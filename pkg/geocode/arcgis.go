package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const arcgisFindURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"

// arcgisResponse is the JSON shape of findAddressCandidates.
type arcgisResponse struct {
	Candidates []arcgisCandidate `json:"candidates"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type arcgisCandidate struct {
	Address  string  `json:"address"`
	Score    float64 `json:"score"`
	Location struct {
		X float64 `json:"x"` // longitude
		Y float64 `json:"y"` // latitude
	} `json:"location"`
	Attributes struct {
		MatchAddr string `json:"Match_addr"`
		City      string `json:"City"`
		Subregion string `json:"Subregion"`
		Region    string `json:"Region"`
		Country   string `json:"Country"`
	} `json:"attributes"`
}

// geocodeArcGIS queries the ArcGIS single-line endpoint and picks the
// highest-scoring candidate.
func (g *geocoder) geocodeArcGIS(ctx context.Context, address string) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(ErrProvider, "rate limit: %v", err)
	}

	params := url.Values{
		"SingleLine":   {address},
		"f":            {"json"},
		"outSR":        {`{"wkid":4326}`},
		"outFields":    {"Addr_type,Match_addr,StAddr,City,Region,Subregion,Country"},
		"maxLocations": {strconv.Itoa(g.maxCandidates)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(ErrProvider, "build request: %v", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(ErrProvider, "request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(ErrProvider, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(ErrProvider, "read body: %v", err)
	}

	var ar arcgisResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, eris.Wrapf(ErrProvider, "parse response: %v", err)
	}
	if ar.Error != nil {
		return nil, eris.Wrapf(ErrProvider, "arcgis error %d: %s", ar.Error.Code, ar.Error.Message)
	}
	if len(ar.Candidates) == 0 {
		return nil, eris.Wrapf(ErrNoMatch, "address %q", address)
	}

	best := ar.Candidates[0]
	for _, c := range ar.Candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}

	matchAddr := best.Attributes.MatchAddr
	if matchAddr == "" {
		matchAddr = best.Address
	}

	// Prefer the provider's administrative fields; fall back to parsing the
	// Chinese address string when they are blank.
	region := ParseTWRegion(matchAddr)
	if region.City == "" {
		region = ParseTWRegion(address)
	}
	city := best.Attributes.City
	if city == "" {
		city = region.City
	}
	district := best.Attributes.Subregion
	if district == "" {
		district = region.District
	}

	zap.L().Debug("arcgis geocode",
		zap.String("address", address),
		zap.String("match_addr", matchAddr),
		zap.Float64("score", best.Score),
		zap.String("city", city),
		zap.String("district", district),
	)

	return &Result{
		Latitude:  best.Location.Y,
		Longitude: best.Location.X,
		MatchAddr: matchAddr,
		Score:     best.Score,
		City:      city,
		District:  district,
	}, nil
}
