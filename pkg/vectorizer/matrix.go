package vectorizer

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Row is one sparse document vector. Indices are ascending column indices.
type Row struct {
	Indices []int
	Values  []float64
}

// Nnz returns the number of stored entries.
func (r Row) Nnz() int { return len(r.Indices) }

// Dot computes the dot product with a dense vector.
func (r Row) Dot(dense []float64) float64 {
	var sum float64
	for k, j := range r.Indices {
		sum += r.Values[k] * dense[j]
	}
	return sum
}

// SquaredNorm returns the squared L2 norm.
func (r Row) SquaredNorm() float64 {
	var sum float64
	for _, v := range r.Values {
		sum += v * v
	}
	return sum
}

// AddTo adds the row into dst.
func (r Row) AddTo(dst []float64) {
	for k, j := range r.Indices {
		dst[j] += r.Values[k]
	}
}

// ToDense expands the row into a slice of length cols.
func (r Row) ToDense(cols int) []float64 {
	dense := make([]float64, cols)
	r.AddTo(dense)
	return dense
}

// TermMatrix is a read-only sparse document-term matrix.
// It implements mat.Matrix and mat.RowNonZeroDoer.
type TermMatrix struct {
	rows []Row
	cols int
}

var (
	_ mat.Matrix         = (*TermMatrix)(nil)
	_ mat.RowNonZeroDoer = (*TermMatrix)(nil)
)

// NewTermMatrix builds a matrix from sparse rows. Rows are copied.
func NewTermMatrix(rows []Row, cols int) *TermMatrix {
	m := &TermMatrix{rows: make([]Row, len(rows)), cols: cols}
	for i, r := range rows {
		m.rows[i] = Row{
			Indices: append([]int(nil), r.Indices...),
			Values:  append([]float64(nil), r.Values...),
		}
	}
	return m
}

func (m *TermMatrix) Dims() (r, c int) { return len(m.rows), m.cols }

func (m *TermMatrix) At(i, j int) float64 {
	if i < 0 || i >= len(m.rows) || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	row := m.rows[i]
	lo, hi := 0, len(row.Indices)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case row.Indices[mid] == j:
			return row.Values[mid]
		case row.Indices[mid] < j:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

func (m *TermMatrix) T() mat.Matrix { return mat.Transpose{Matrix: m} }

func (m *TermMatrix) DoRowNonZero(i int, fn func(i, j int, v float64)) {
	row := m.rows[i]
	for k, j := range row.Indices {
		fn(i, j, row.Values[k])
	}
}

// Row returns row i. The returned slices are shared with the matrix and must not be modified.
func (m *TermMatrix) Row(i int) Row { return m.rows[i] }

// Nnz returns the number of stored entries in the whole matrix.
func (m *TermMatrix) Nnz() int {
	n := 0
	for _, r := range m.rows {
		n += r.Nnz()
	}
	return n
}

// Dense returns row i as a dense vector.
func (m *TermMatrix) Dense(i int) []float64 { return m.rows[i].ToDense(m.cols) }

func normalizeL2(r Row) {
	norm := math.Sqrt(r.SquaredNorm())
	if norm == 0 {
		return
	}
	for k := range r.Values {
		r.Values[k] /= norm
	}
}
