package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Reduction selects how per-sample losses are combined.
type Reduction int

const (
	// ReductionMean divides the summed loss by the summed class weight of
	// the targets.
	ReductionMean Reduction = iota
	// ReductionNone returns one loss per sample.
	ReductionNone
)

// Criterion scores class scores against target distributions.
type Criterion interface {
	WithReduction(r Reduction) Criterion
	// Loss returns one value per sample for ReductionNone and a single
	// element otherwise.
	Loss(scores, targets *mat.Dense) []float64
	// Denominator is the normaliser used by ReductionMean.
	Denominator(targets *mat.Dense) float64
	// Backward returns dL/dscores for L = Σ coeffs[i]·loss[i]. A nil coeffs
	// means the mean-reduced loss.
	Backward(scores, targets *mat.Dense, coeffs []float64) *mat.Dense
}

// CrossEntropy is class-weighted cross-entropy over softmax scores. Targets
// are probability rows; one-hot rows give the usual integer-label loss.
type CrossEntropy struct {
	ClassWeights []float64
	Reduction    Reduction
}

func (c CrossEntropy) WithReduction(r Reduction) Criterion {
	c.Reduction = r
	return c
}

func (c CrossEntropy) classWeight(k int) float64 {
	if c.ClassWeights == nil {
		return 1
	}
	return c.ClassWeights[k]
}

// targetMass returns Σ_c w_c·y_ic for row i.
func (c CrossEntropy) targetMass(targets *mat.Dense, i int) float64 {
	row := targets.RawRowView(i)
	if c.ClassWeights == nil {
		return floats.Sum(row)
	}
	return floats.Dot(row, c.ClassWeights)
}

func (c CrossEntropy) check(scores, targets *mat.Dense) {
	sr, sc := scores.Dims()
	tr, tc := targets.Dims()
	if sr != tr || sc != tc {
		panic(fmt.Sprintf("criterion: scores %dx%d, targets %dx%d", sr, sc, tr, tc))
	}
	if c.ClassWeights != nil && len(c.ClassWeights) != sc {
		panic(fmt.Sprintf("criterion: %d class weights for %d classes", len(c.ClassWeights), sc))
	}
}

// CheckClasses reports whether the class weights fit a problem with the
// given number of classes. Unset class weights fit any problem.
func (c CrossEntropy) CheckClasses(classes int) error {
	if c.ClassWeights != nil && len(c.ClassWeights) != classes {
		return fmt.Errorf("criterion: %d class weights for %d classes", len(c.ClassWeights), classes)
	}
	return nil
}

func (c CrossEntropy) Loss(scores, targets *mat.Dense) []float64 {
	c.check(scores, targets)
	rows, cols := scores.Dims()
	losses := make([]float64, rows)
	for i := 0; i < rows; i++ {
		s := scores.RawRowView(i)
		y := targets.RawRowView(i)
		lse := floats.LogSumExp(s)
		loss := 0.0
		for k := 0; k < cols; k++ {
			if y[k] == 0 {
				continue
			}
			loss -= c.classWeight(k) * y[k] * (s[k] - lse)
		}
		losses[i] = loss
	}
	if c.Reduction == ReductionNone {
		return losses
	}
	denom := c.Denominator(targets)
	if denom == 0 {
		return []float64{0}
	}
	return []float64{floats.Sum(losses) / denom}
}

func (c CrossEntropy) Denominator(targets *mat.Dense) float64 {
	rows, _ := targets.Dims()
	total := 0.0
	for i := 0; i < rows; i++ {
		total += c.targetMass(targets, i)
	}
	return total
}

func (c CrossEntropy) Backward(scores, targets *mat.Dense, coeffs []float64) *mat.Dense {
	c.check(scores, targets)
	rows, cols := scores.Dims()
	if coeffs == nil {
		coeffs = make([]float64, rows)
		if denom := c.Denominator(targets); denom != 0 {
			for i := range coeffs {
				coeffs[i] = 1 / denom
			}
		}
	}
	grad := Softmax(scores)
	for i := 0; i < rows; i++ {
		g := grad.RawRowView(i)
		y := targets.RawRowView(i)
		mass := c.targetMass(targets, i)
		for k := 0; k < cols; k++ {
			g[k] = coeffs[i] * (mass*g[k] - c.classWeight(k)*y[k])
		}
	}
	return grad
}

// OneHot encodes integer labels as rows of a labels×classes matrix.
func OneHot(labels []int, classes int) *mat.Dense {
	out := mat.NewDense(len(labels), classes, nil)
	for i, label := range labels {
		out.Set(i, label, 1)
	}
	return out
}

// Argmax returns the index of the largest entry of each row; ties go to the
// lowest index.
func Argmax(m mat.Matrix) []int {
	rows, cols := m.Dims()
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		best := math.Inf(-1)
		for j := 0; j < cols; j++ {
			if v := m.At(i, j); v > best {
				best = v
				out[i] = j
			}
		}
	}
	return out
}

// Accuracy is the fraction of rows whose highest score is at labels[i].
func Accuracy(scores mat.Matrix, labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	hits := 0
	for i, p := range Argmax(scores) {
		if p == labels[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(labels))
}

// TargetHits counts the rows whose highest score matches the argmax of the
// target row. Rows without target mass are skipped and not counted in scored.
func TargetHits(scores, targets mat.Matrix) (correct, scored int) {
	predictions := Argmax(scores)
	labels := Argmax(targets)
	_, cols := targets.Dims()
	for i, p := range predictions {
		mass := 0.0
		for j := 0; j < cols; j++ {
			mass += targets.At(i, j)
		}
		if mass == 0 {
			continue
		}
		scored++
		if p == labels[i] {
			correct++
		}
	}
	return correct, scored
}
