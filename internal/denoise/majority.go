// Package denoise turns rule matches into per-sample label distributions.
package denoise

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when the rule-match matrix and the
// rule-label mapping disagree on the number of rules.
var ErrDimensionMismatch = errors.New("denoise: dimension mismatch")

// ErrInvalidClass is returned when the reserved no-match class is not a
// column of the rule-label mapping.
var ErrInvalidClass = errors.New("denoise: invalid no-match class")

// MajorityVote computes an N×C label distribution from the rule-match matrix z
// (N×R) and the rule-label mapping t (R×C). Rows of samples without a single
// matching rule are all zero.
func MajorityVote(z, t mat.Matrix) (*mat.Dense, error) {
	counts, err := voteCounts(z, t)
	if err != nil {
		return nil, err
	}
	normalize(counts)
	return counts, nil
}

// MajorityVoteWithNoMatch behaves like MajorityVote but assigns samples that no
// rule matched to noMatchClass, so every row sums to one. A negative class
// counts from the last column (-1 is the last class).
func MajorityVoteWithNoMatch(z, t mat.Matrix, noMatchClass int) (*mat.Dense, error) {
	counts, err := voteCounts(z, t)
	if err != nil {
		return nil, err
	}
	_, classes := counts.Dims()
	col, err := ResolveClass(noMatchClass, classes)
	if err != nil {
		return nil, err
	}
	rows, _ := counts.Dims()
	for i := 0; i < rows; i++ {
		if mat.Sum(counts.RowView(i)) == 0 {
			counts.Set(i, col, 1)
		}
	}
	normalize(counts)
	return counts, nil
}

// ResolveClass maps a possibly negative class index onto [0, classes).
func ResolveClass(class, classes int) (int, error) {
	col := class
	if col < 0 {
		col += classes
	}
	if col < 0 || col >= classes {
		return 0, fmt.Errorf("%w: %d with %d classes", ErrInvalidClass, class, classes)
	}
	return col, nil
}

func voteCounts(z, t mat.Matrix) (*mat.Dense, error) {
	_, zRules := z.Dims()
	tRules, _ := t.Dims()
	if zRules != tRules {
		return nil, fmt.Errorf("%w: rule matches have %d rules, rule labels have %d", ErrDimensionMismatch, zRules, tRules)
	}
	var counts mat.Dense
	counts.Mul(z, t)
	return &counts, nil
}

// normalize divides each row by its sum in place. Zero-sum rows would turn
// into NaN; they are written back as zeros.
func normalize(m *mat.Dense) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		for j := 0; j < cols; j++ {
			v := row[j] / sum
			if math.IsNaN(v) {
				v = 0
			}
			row[j] = v
		}
	}
}
