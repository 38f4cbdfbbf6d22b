// Package evaluate computes binary-classification metrics and writes them as
// metric files.
package evaluate

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrSingleClass is returned when the labels hold only one class, which
// leaves ranking metrics undefined.
var ErrSingleClass = errors.New("labels contain a single class")

// ErrNonFinite is returned when a score is NaN or infinite.
var ErrNonFinite = errors.New("score is not finite")

func check(labels []int, scores []float64) (pos, neg int, err error) {
	if len(labels) != len(scores) {
		return 0, 0, fmt.Errorf("%d labels for %d scores", len(labels), len(scores))
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return 0, 0, fmt.Errorf("score %v at row %d: %w", s, i, ErrNonFinite)
		}
	}
	for i, y := range labels {
		switch y {
		case 1:
			pos++
		case 0:
			neg++
		default:
			return 0, 0, fmt.Errorf("label %d at row %d is not 0 or 1", y, i)
		}
	}
	if pos == 0 || neg == 0 {
		return 0, 0, ErrSingleClass
	}
	return pos, neg, nil
}

// order returns row indices sorted by descending score.
func order(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	return idx
}

// ROCAUC returns the area under the ROC curve. Tied scores contribute half
// credit, which matches trapezoidal integration of the curve.
func ROCAUC(labels []int, scores []float64) (float64, error) {
	pos, neg, err := check(labels, scores)
	if err != nil {
		return 0, err
	}

	idx := order(scores)
	var area, tp, fp float64
	for start := 0; start < len(idx); {
		end := start
		var dtp, dfp float64
		for end < len(idx) && scores[idx[end]] == scores[idx[start]] {
			if labels[idx[end]] == 1 {
				dtp++
			} else {
				dfp++
			}
			end++
		}
		area += dfp * (tp + dtp/2)
		tp += dtp
		fp += dfp
		start = end
	}
	return area / (float64(pos) * float64(neg)), nil
}

// AveragePrecision returns the step-wise area under the precision-recall
// curve: the sum over distinct thresholds of precision times recall gained.
func AveragePrecision(labels []int, scores []float64) (float64, error) {
	pos, _, err := check(labels, scores)
	if err != nil {
		return 0, err
	}

	idx := order(scores)
	var ap, tp, fp, prevRecall float64
	for start := 0; start < len(idx); {
		end := start
		for end < len(idx) && scores[idx[end]] == scores[idx[start]] {
			if labels[idx[end]] == 1 {
				tp++
			} else {
				fp++
			}
			end++
		}
		recall := tp / float64(pos)
		precision := tp / (tp + fp)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
		start = end
	}
	return ap, nil
}

// FormatMetric renders v with five decimals and a leading space when the
// sign bit is clear. Rounding is half-to-even on the exact binary value.
func FormatMetric(v float64) string {
	switch {
	case math.IsNaN(v):
		return " nan"
	case math.IsInf(v, 1):
		return " inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	s := exact(math.Abs(v)).StringFixedBank(5)
	if math.Signbit(v) {
		return "-" + s
	}
	return " " + s
}

// exact returns the decimal expansion of a finite non-negative v with no
// rounding.
func exact(v float64) decimal.Decimal {
	frac, exp := math.Frexp(v)
	mant := big.NewInt(int64(math.Ldexp(frac, 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	// m * 2^-k == m * 5^k * 10^-k
	five := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, five), int32(exp))
}

// WriteMetric writes <dir>/<name>.metric holding FormatMetric(v).
func WriteMetric(dir, name string, v float64) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating metrics dir: %w", err)
	}
	path := filepath.Join(dir, name+".metric")
	if err := os.WriteFile(path, []byte(FormatMetric(v)), 0o644); err != nil {
		return "", fmt.Errorf("writing metric %s: %w", name, err)
	}
	return path, nil
}
