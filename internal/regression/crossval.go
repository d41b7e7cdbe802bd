package regression

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CVResult summarises k-fold cross-validation scores
type CVResult struct {
	Scores []float64 `json:"scores"`
	Mean   float64   `json:"mean"`
	Std    float64   `json:"std"`
}

// R2 returns the coefficient of determination of yPred against yTrue.
// A constant yTrue has no variance to explain and scores 0.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || floats.Min(yTrue) == floats.Max(yTrue) {
		return 0
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

// NewRand returns the deterministic PCG stream used for sampling and fold
// shuffling. The same seed always yields the same sequence.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Folds shuffles 0..n-1 with NewRand(seed) and splits the
// permutation into k contiguous folds. The first n%k folds get one extra
// index.
func Folds(n, k int, seed uint64) [][]int {
	rng := NewRand(seed)
	perm := rng.Perm(n)

	folds := make([][]int, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		folds[f] = perm[start : start+size]
		start += size
	}
	return folds
}

// CrossValidate fits a fresh Regressor from newModel on each training split
// and scores it with R2 on the held-out fold.
func CrossValidate(newModel func() Regressor, X [][]float64, y []float64, k int, seed uint64) (CVResult, error) {
	n := len(X)
	if n == 0 {
		return CVResult{}, ErrEmptyInput
	}
	if len(y) != n {
		return CVResult{}, fmt.Errorf("%w: %d rows but %d targets", ErrDimension, n, len(y))
	}
	if k < 2 || k > n {
		return CVResult{}, fmt.Errorf("regression: k must be in [2, %d], got %d", n, k)
	}

	folds := Folds(n, k, seed)
	scores := make([]float64, 0, k)
	for f, test := range folds {
		held := make(map[int]bool, len(test))
		for _, i := range test {
			held[i] = true
		}

		trainX := make([][]float64, 0, n-len(test))
		trainY := make([]float64, 0, n-len(test))
		for i := 0; i < n; i++ {
			if !held[i] {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}
		testX := make([][]float64, len(test))
		testY := make([]float64, len(test))
		for j, i := range test {
			testX[j] = X[i]
			testY[j] = y[i]
		}

		model := newModel()
		if err := model.Fit(trainX, trainY); err != nil {
			return CVResult{}, fmt.Errorf("fold %d: %w", f, err)
		}
		pred, err := model.Predict(testX)
		if err != nil {
			return CVResult{}, fmt.Errorf("fold %d: %w", f, err)
		}
		scores = append(scores, R2(testY, pred))
	}

	mean, std := stat.PopMeanStdDev(scores, nil)
	return CVResult{Scores: scores, Mean: mean, Std: std}, nil
}
