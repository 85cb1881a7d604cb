package survival

import (
	"context"

	"go.uber.org/zap"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/model"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/poi"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/registry"
	"github.com/huntertoby/new-shop-survival-prediction-tw/pkg/geocode"
)

// Verdict labels for the two prediction classes.
const (
	LabelSurvive = "建議投資 (存活)"
	LabelClose   = "風險過高 (倒閉)"
)

// Predictor runs the full pipeline: geocode, POI survey, feature assembly,
// and classification. It holds no per-request state and is safe for
// concurrent use.
type Predictor struct {
	geocoder geocode.Client
	store    poi.Store
	agg      *poi.Aggregator
	registry *registry.Registry
}

// NewPredictor wires a Predictor from its collaborators.
func NewPredictor(gc geocode.Client, store poi.Store, agg *poi.Aggregator, reg *registry.Registry) *Predictor {
	return &Predictor{geocoder: gc, store: store, agg: agg, registry: reg}
}

// Predict answers the survival question for one request. Each stage fails
// fast with its own sentinel; the only silent fallbacks are the two
// documented ones (unsupported horizon, unknown district).
func (p *Predictor) Predict(ctx context.Context, req model.PredictionRequest) (*model.PredictionResponse, error) {
	in, err := req.Validate()
	if err != nil {
		return nil, err
	}

	geo, err := p.geocoder.Geocode(ctx, in.Address)
	if err != nil {
		return nil, err
	}

	records, err := p.store.Within(ctx, geo.Latitude, geo.Longitude, in.RadiusM)
	if err != nil {
		return nil, err
	}
	survey := p.agg.Survey(geo.Latitude, geo.Longitude, in.RadiusM, records)

	year, fallback := registry.NormalizeYear(in.ModelYear)
	artifact, err := p.registry.Get(ctx, year)
	if err != nil {
		return nil, err
	}

	x, err := Assemble(artifact, AssemblyInput{
		Summary:    survey.Summary,
		TotalAsset: in.TotalAsset,
		Industry:   in.Industry,
		City:       geo.City,
		District:   geo.District,
	})
	if err != nil {
		return nil, err
	}

	prob := artifact.Model.Score(x)
	prediction := 0
	label := LabelClose
	if prob >= artifact.Threshold { // threshold itself counts as positive
		prediction = 1
		label = LabelSurvive
	}

	zap.L().Info("prediction",
		zap.String("address", in.Address),
		zap.String("district", geo.District),
		zap.Int("year", year),
		zap.Bool("year_fallback", fallback),
		zap.Float64("prob", prob),
		zap.Float64("threshold", artifact.Threshold),
		zap.Int("prediction", prediction),
	)

	return &model.PredictionResponse{
		OK:           true,
		AddressInput: in.Address,
		Geocode:      geo,
		RadiusM:      in.RadiusM,
		Survey:       &survey,
		Survival: &model.SurvivalResult{
			Year:         year,
			Prob:         prob,
			Threshold:    artifact.Threshold,
			Prediction:   prediction,
			Label:        label,
			YearFallback: fallback,
		},
	}, nil
}
