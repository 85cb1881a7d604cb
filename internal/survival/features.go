// Package survival assembles model feature vectors and runs the horizon
// classifiers end to end.
package survival

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/model"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/poi"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/registry"
)

// ErrFeatureAssembly marks a feature the target artifact requires that
// cannot be derived from the request. Assembly never silently zero-fills a
// non-categorical feature.
var ErrFeatureAssembly = eris.New("survival: feature assembly failed")

// Feature column names as exported by the training pipeline.
const (
	featTotalAsset   = "總資產"
	featFuel         = "加油站"
	featTransit      = "大眾運輸"
	featSchool       = "校園"
	featParking      = "停車場"
	featScenic       = "景點"
	featCinema       = "電影院"
	featDistrictRate = "District_Survival_Rate"

	// One-hot column families. Columns in these families that don't apply
	// to a request are legitimately zero.
	cityPrefix     = "推測縣市_"
	districtPrefix = "行政區_"
	industryPrefix = "industry_"
)

// AssemblyInput is everything the assembler derives features from.
type AssemblyInput struct {
	Summary    poi.Summary
	TotalAsset float64
	Industry   string // industry_* one-hot key
	City       string // geocoded city, may be empty
	District   string // geocoded district, may be empty
}

// NormalizeIndustry returns the industry one-hot column key for a declared
// industry, accepting both "industry_飲料店業" and the bare "飲料店業" form.
func NormalizeIndustry(industry string) string {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return ""
	}
	if strings.HasPrefix(industry, industryPrefix) {
		return industry
	}
	return industryPrefix + industry
}

// Assemble builds the feature vector for one request, aligned exactly to
// artifact.Features. Rules:
//   - base numeric features come from the asset and POI counts;
//   - the request's city, district and industry light up their one-hot
//     columns, all other columns in those families are zero;
//   - District_Survival_Rate is the artifact's target encoding for the
//     geocoded district, or the artifact's global mean when the district is
//     unknown (the documented sentinel fallback);
//   - a declared industry with no matching column is bad input;
//   - any other underivable feature is an assembly error.
func Assemble(artifact *registry.Artifact, in AssemblyInput) ([]float64, error) {
	industryKey := NormalizeIndustry(in.Industry)

	values := map[string]float64{
		featTotalAsset: in.TotalAsset,
		featFuel:       float64(in.Summary.Fuel),
		featTransit:    float64(in.Summary.Transit),
		featSchool:     float64(in.Summary.School),
		featParking:    float64(in.Summary.Parking),
		featScenic:     float64(in.Summary.Scenic),
		featCinema:     float64(in.Summary.Cinema),
	}
	if in.City != "" {
		values[cityPrefix+in.City] = 1
	}
	if in.District != "" {
		values[districtPrefix+in.District] = 1
	}
	if industryKey != "" {
		values[industryKey] = 1
	}

	rate, ok := artifact.DistrictMap[in.District]
	if !ok {
		rate = artifact.GlobalMean
	}
	values[featDistrictRate] = rate

	// The declared industry must be one the model was trained on.
	if industryKey != "" && hasFamily(artifact.Features, industryPrefix) && !contains(artifact.Features, industryKey) {
		return nil, eris.Wrapf(model.ErrBadInput, "unknown industry %q", in.Industry)
	}

	x := make([]float64, len(artifact.Features))
	for i, name := range artifact.Features {
		if v, ok := values[name]; ok {
			x[i] = v
			continue
		}
		if strings.HasPrefix(name, cityPrefix) ||
			strings.HasPrefix(name, districtPrefix) ||
			strings.HasPrefix(name, industryPrefix) {
			x[i] = 0
			continue
		}
		return nil, eris.Wrapf(ErrFeatureAssembly, "feature %q is not derivable", name)
	}
	return x, nil
}

func hasFamily(features []string, prefix string) bool {
	for _, f := range features {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}

func contains(features []string, name string) bool {
	for _, f := range features {
		if f == name {
			return true
		}
	}
	return false
}
