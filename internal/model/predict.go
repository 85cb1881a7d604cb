package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/width"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/poi"
	"github.com/huntertoby/new-shop-survival-prediction-tw/pkg/geocode"
)

// ErrBadInput marks a missing or malformed caller input. Mapped to HTTP 400
// by the serve layer.
var ErrBadInput = eris.New("model: bad input")

// DefaultRadiusM is the survey radius used when the caller omits one.
const DefaultRadiusM = 500.0

// StringOrNumber decodes a JSON string or number into its textual form.
// Clients send numeric fields either way ("1000000" or 1000000), so the
// boundary keeps the raw text and validation rejects malformed values
// explicitly instead of json-decoding them to zero.
type StringOrNumber string

func (s *StringOrNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = StringOrNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return eris.Errorf("model: expected string or number, got %s", data)
	}
	*s = StringOrNumber(num.String())
	return nil
}

// PredictionRequest is the raw prediction request as received from the web
// layer or CLI flags.
type PredictionRequest struct {
	Address    string         `json:"address"`
	TotalAsset StringOrNumber `json:"total_asset"`
	Industry   string         `json:"industry"`
	ModelYear  StringOrNumber `json:"model_year"`
	RadiusM    StringOrNumber `json:"radius_m"`
}

// PredictionInput is a validated request.
type PredictionInput struct {
	Address    string
	TotalAsset float64
	Industry   string
	ModelYear  string // normalized later against the supported horizons
	RadiusM    float64
}

// Validate checks the request and returns the typed input. Address, asset
// and industry are required; a bad radius silently falls back to the
// default, matching the public API contract.
func (r PredictionRequest) Validate() (*PredictionInput, error) {
	address := strings.TrimSpace(r.Address)
	if address == "" {
		return nil, eris.Wrap(ErrBadInput, "address is required")
	}

	assetStr := strings.TrimSpace(width.Narrow.String(string(r.TotalAsset)))
	if assetStr == "" {
		return nil, eris.Wrap(ErrBadInput, "total_asset is required")
	}
	asset, err := strconv.ParseFloat(assetStr, 64)
	if err != nil || asset < 0 {
		return nil, eris.Wrapf(ErrBadInput, "total_asset %q is not a non-negative number", r.TotalAsset)
	}

	industry := strings.TrimSpace(r.Industry)
	if industry == "" {
		return nil, eris.Wrap(ErrBadInput, "industry is required")
	}

	radius := DefaultRadiusM
	if s := strings.TrimSpace(width.Narrow.String(string(r.RadiusM))); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
			radius = v
		}
	}

	return &PredictionInput{
		Address:    address,
		TotalAsset: asset,
		Industry:   industry,
		ModelYear:  strings.TrimSpace(string(r.ModelYear)),
		RadiusM:    radius,
	}, nil
}

// SurvivalResult is the classifier verdict for one request.
type SurvivalResult struct {
	Year         int     `json:"year"`
	Prob         float64 `json:"prob"`
	Threshold    float64 `json:"threshold"`
	Prediction   int     `json:"prediction"`
	Label        string  `json:"label"`
	YearFallback bool    `json:"year_fallback,omitempty"`
}

// PredictionResponse is the caller-facing success payload.
type PredictionResponse struct {
	OK           bool            `json:"ok"`
	AddressInput string          `json:"address_input"`
	Geocode      *geocode.Result `json:"geocode"`
	RadiusM      float64         `json:"radius_m"`
	Survey       *poi.Survey     `json:"result"`
	Survival     *SurvivalResult `json:"survival"`
}

// ErrorResponse is the caller-facing failure payload: explicit ok flag, a
// human-readable message, and a machine-checkable kind.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
