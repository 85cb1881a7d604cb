package registry

import "github.com/rotisserie/eris"

// Forest is a random-forest classifier flattened into parallel arrays per
// tree, the standard export shape for sklearn-style tree ensembles. Scoring
// is pure arithmetic: identical input always yields identical output.
type Forest struct {
	Trees []Tree `json:"trees"`
}

// Tree stores one decision tree. Node i tests Feature[i] <= Threshold[i]
// and descends to Left[i] or Right[i]; Feature[i] < 0 marks a leaf whose
// Value[i] is the positive-class probability.
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

func (t Tree) validate(nFeatures int) error {
	n := len(t.Feature)
	if n == 0 {
		return eris.New("empty tree")
	}
	if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
		return eris.Errorf("inconsistent node arrays (feature=%d threshold=%d left=%d right=%d value=%d)",
			n, len(t.Threshold), len(t.Left), len(t.Right), len(t.Value))
	}
	for i := 0; i < n; i++ {
		if t.Feature[i] >= nFeatures {
			return eris.Errorf("node %d tests feature %d, artifact has %d", i, t.Feature[i], nFeatures)
		}
		if t.Feature[i] >= 0 {
			if t.Left[i] < 0 || t.Left[i] >= n || t.Right[i] < 0 || t.Right[i] >= n {
				return eris.Errorf("node %d has child out of range", i)
			}
			// Children must move forward or the walk could loop.
			if t.Left[i] <= i || t.Right[i] <= i {
				return eris.Errorf("node %d has non-forward child", i)
			}
		} else if t.Value[i] < 0 || t.Value[i] > 1 {
			return eris.Errorf("leaf %d value %v outside [0,1]", i, t.Value[i])
		}
	}
	return nil
}

// score walks one tree for the aligned feature vector x.
func (t Tree) score(x []float64) float64 {
	i := 0
	for t.Feature[i] >= 0 {
		if x[t.Feature[i]] <= t.Threshold[i] {
			i = t.Left[i]
		} else {
			i = t.Right[i]
		}
	}
	return t.Value[i]
}

// Score returns the forest's positive-class probability: the mean of the
// per-tree leaf probabilities.
func (f Forest) Score(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.score(x)
	}
	return sum / float64(len(f.Trees))
}
