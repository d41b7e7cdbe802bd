package regression

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyInput is returned when fitting on zero rows
	ErrEmptyInput = errors.New("regression: empty input")
	// ErrDimension is returned on row/column count mismatches
	ErrDimension = errors.New("regression: dimension mismatch")
	// ErrNotFitted is returned when predicting with an unfitted model
	ErrNotFitted = errors.New("regression: model not fitted")
)

// Ridge is L2-regularised least squares with an unpenalised bias term
type Ridge struct {
	Alpha float64

	// Weights holds one coefficient per input column followed by the bias
	Weights []float64
}

// Fit solves (XᵗX + αI')w = Xᵗy in closed form, where I' is the identity
// with the bias entry zeroed.
func (r *Ridge) Fit(X [][]float64, y []float64) error {
	rows := len(X)
	if rows == 0 {
		return ErrEmptyInput
	}
	if len(y) != rows {
		return fmt.Errorf("%w: %d rows but %d targets", ErrDimension, rows, len(y))
	}
	cols := len(X[0]) + 1

	data := make([]float64, 0, rows*cols)
	for i, row := range X {
		if len(row) != cols-1 {
			return fmt.Errorf("row %d: %w: got %d columns, want %d", i, ErrDimension, len(row), cols-1)
		}
		data = append(data, row...)
		data = append(data, 1)
	}
	xb := mat.NewDense(rows, cols, data)
	yv := mat.NewVecDense(rows, append([]float64(nil), y...))

	var a mat.Dense
	a.Mul(xb.T(), xb)
	for i := 0; i < cols-1; i++ {
		a.Set(i, i, a.At(i, i)+r.Alpha)
	}

	var b mat.VecDense
	b.MulVec(xb.T(), yv)

	var w mat.VecDense
	if err := w.SolveVec(&a, &b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("solve normal equations: %w", err)
		}
		slog.Warn("Ridge system is ill-conditioned", "condition", float64(cond), "alpha", r.Alpha)
	}

	r.Weights = make([]float64, cols)
	for i := range r.Weights {
		r.Weights[i] = w.AtVec(i)
	}
	return nil
}

// Predict applies the fitted weights to each row of X
func (r *Ridge) Predict(X [][]float64) ([]float64, error) {
	if len(r.Weights) == 0 {
		return nil, ErrNotFitted
	}
	n := len(r.Weights) - 1
	bias := r.Weights[n]

	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != n {
			return nil, fmt.Errorf("row %d: %w: got %d columns, want %d", i, ErrDimension, len(row), n)
		}
		out[i] = floats.Dot(row, r.Weights[:n]) + bias
	}
	return out, nil
}
