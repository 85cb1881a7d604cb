// Package registry loads and caches the per-horizon survival model
// artifacts exported by the training pipeline.
package registry

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// ErrModelUnavailable marks a missing or corrupt model artifact for a
// horizon. It propagates to the caller without affecting other horizons.
var ErrModelUnavailable = eris.New("registry: model unavailable")

// Artifact is one trained survival classifier bundle: the forest itself,
// the exact feature order it was trained on, the district target-encoding
// table, and the decision threshold chosen during validation. Read-only
// after load.
type Artifact struct {
	Model       Forest             `json:"model"`
	Features    []string           `json:"features"`
	DistrictMap map[string]float64 `json:"district_map"`
	GlobalMean  float64            `json:"global_mean"`
	Threshold   float64            `json:"threshold"`
}

// LoadArtifact reads and validates an artifact file. Any failure maps to
// ErrModelUnavailable so callers need not distinguish missing from corrupt.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "read %s: %v", path, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "parse %s: %v", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "validate %s: %v", path, err)
	}
	return &a, nil
}

// Validate checks the structural invariants the predictor relies on.
func (a *Artifact) Validate() error {
	if len(a.Features) == 0 {
		return eris.New("artifact has no feature list")
	}
	if a.Threshold < 0 || a.Threshold > 1 {
		return eris.Errorf("threshold %v outside [0,1]", a.Threshold)
	}
	if a.GlobalMean < 0 || a.GlobalMean > 1 {
		return eris.Errorf("global_mean %v outside [0,1]", a.GlobalMean)
	}
	if len(a.Model.Trees) == 0 {
		return eris.New("artifact has no trees")
	}
	for i, t := range a.Model.Trees {
		if err := t.validate(len(a.Features)); err != nil {
			return eris.Wrapf(err, "tree %d", i)
		}
	}
	return nil
}
