// Package regression implements the estimation pipeline: column
// standardisation, degree-2 polynomial expansion and closed-form ridge
// regression, plus k-fold cross-validation.
package regression

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres and scales each column to unit variance
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// Fit computes per-column mean and population standard deviation.
// Constant columns get a standard deviation of 1, so they transform to zero.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return ErrEmptyInput
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i, row := range X {
			if len(row) != cols {
				return fmt.Errorf("row %d: %w: got %d columns, want %d", i, ErrDimension, len(row), cols)
			}
			col[i] = row[j]
		}

		if floats.Min(col) == floats.Max(col) {
			s.Mean[j] = col[0]
			s.Std[j] = 1
			continue
		}
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(col, nil)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform applies the fitted statistics to X, returning a new matrix
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("row %d: %w: got %d columns, want %d", i, ErrDimension, len(row), len(s.Mean))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits on X and transforms it
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
