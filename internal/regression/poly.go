package regression

// PolynomialFeatures appends squared and pairwise-product terms.
//
// The expansion is always second order: [x | x² | xᵢxⱼ for i<j], so an
// n-column input becomes n + n + n(n-1)/2 columns. Degree is recorded with
// the model but does not change the transform.
type PolynomialFeatures struct {
	Degree int
}

// OutputWidth returns the expanded width for n input columns
func (p PolynomialFeatures) OutputWidth(n int) int {
	return 2*n + n*(n-1)/2
}

// Transform expands every row of X
func (p PolynomialFeatures) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for r, row := range X {
		n := len(row)
		expanded := make([]float64, 0, p.OutputWidth(n))
		expanded = append(expanded, row...)
		for _, v := range row {
			expanded = append(expanded, v*v)
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				expanded = append(expanded, row[i]*row[j])
			}
		}
		out[r] = expanded
	}
	return out
}
