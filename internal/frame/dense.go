package frame

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dense returns the table as a row-major matrix, columns in table order.
// Missing numeric values stay NaN.
func (t *Table) Dense() (*mat.Dense, error) {
	if t.rows == 0 || len(t.cols) == 0 {
		return nil, fmt.Errorf("building matrix of %dx%d: %w", t.rows, len(t.cols), ErrEmpty)
	}
	for _, c := range t.cols {
		if c.Kind != Numeric {
			return nil, fmt.Errorf("building matrix: %q: %w", c.Name, ErrNotNumeric)
		}
	}

	width := len(t.cols)
	data := make([]float64, t.rows*width)
	for j, c := range t.cols {
		for i, v := range c.Num {
			data[i*width+j] = v
		}
	}
	return mat.NewDense(t.rows, width, data), nil
}

// Split shuffles the rows with seed and returns the train and test partitions.
// The test partition holds ceil(rows*testRatio) rows.
func Split(t *Table, testRatio float64, seed int64) (train, test *Table, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio %v must be in (0, 1)", testRatio)
	}
	n := t.rows
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest == 0 || nTest >= n {
		return nil, nil, fmt.Errorf("splitting %d rows at ratio %v: %w", n, testRatio, ErrEmpty)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return t.Take(perm[nTest:]), t.Take(perm[:nTest]), nil
}
