package sensitivity

import (
	"fmt"
	"strings"
)

// Matrix is a dense row-major matrix. Row r corresponds to unknowns[r],
// column c to knowns[c].
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// newMatrix returns a zero-filled Rows×Cols matrix.
func newMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the element at row r, column c.
func (m *Matrix) At(r, c int) float64 {
	return m.Data[r*m.Cols+c]
}

// SetAt assigns the element at row r, column c.
func (m *Matrix) SetAt(r, c int, v float64) {
	m.Data[r*m.Cols+c] = v
}

// String renders the matrix one row per line, for diagnostics.
func (m *Matrix) String() string {
	var b strings.Builder
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%g", m.At(r, c))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
