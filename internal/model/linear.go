package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"labelforge/internal/device"
)

// Linear is a softmax-regression classifier: scores = x·Wᵀ + b.
type Linear struct {
	numClasses int
	inputSize  int
	weight     *mat.Dense
	bias       []float64
	weightGrad *mat.Dense
	biasGrad   []float64

	input    *mat.Dense
	training bool
	backend  device.Backend
}

// NewLinear constructs the model with small seeded random weights.
func NewLinear(inputSize, numClasses int, seed int64, backend device.Backend) *Linear {
	if numClasses <= 0 {
		numClasses = 2
	}
	if inputSize <= 0 {
		inputSize = 1
	}
	if backend == nil {
		backend = device.Host{}
	}
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, numClasses*inputSize)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * 0.01
	}
	return &Linear{
		numClasses: numClasses,
		inputSize:  inputSize,
		weight:     mat.NewDense(numClasses, inputSize, data),
		bias:       make([]float64, numClasses),
		weightGrad: mat.NewDense(numClasses, inputSize, nil),
		biasGrad:   make([]float64, numClasses),
		training:   true,
		backend:    backend,
	}
}

// NumClasses returns the width of the score matrix.
func (m *Linear) NumClasses() int { return m.numClasses }

// Forward returns the N×C class scores. In training mode the input is kept
// for the following Backward.
func (m *Linear) Forward(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	if cols != m.inputSize {
		panic(fmt.Sprintf("model: input has %d features, want %d", cols, m.inputSize))
	}
	out := mat.NewDense(rows, m.numClasses, nil)
	out.Mul(x, m.weight.T())
	for i := 0; i < rows; i++ {
		m.backend.AddScaled(out.RawRowView(i), 1, m.bias)
	}
	if m.training {
		m.input = x
	} else {
		m.input = nil
	}
	return out
}

// Backward accumulates parameter gradients for grad = dL/dscores.
func (m *Linear) Backward(grad *mat.Dense) error {
	if m.input == nil {
		return ErrNoForward
	}
	rows, cols := grad.Dims()
	inRows, _ := m.input.Dims()
	if rows != inRows || cols != m.numClasses {
		return fmt.Errorf("model: gradient is %dx%d, want %dx%d", rows, cols, inRows, m.numClasses)
	}
	var gw mat.Dense
	gw.Mul(grad.T(), m.input)
	m.backend.AddScaled(m.weightGrad.RawMatrix().Data, 1, gw.RawMatrix().Data)
	for i := 0; i < rows; i++ {
		m.backend.AddScaled(m.biasGrad, 1, grad.RawRowView(i))
	}
	return nil
}

// ZeroGrad clears the accumulated gradients.
func (m *Linear) ZeroGrad() {
	m.weightGrad.Zero()
	for i := range m.biasGrad {
		m.biasGrad[i] = 0
	}
}

// Params exposes the weight and bias as flat slices sharing model memory.
func (m *Linear) Params() []*Param {
	return []*Param{
		{Name: "weight", Value: m.weight.RawMatrix().Data, Grad: m.weightGrad.RawMatrix().Data},
		{Name: "bias", Value: m.bias, Grad: m.biasGrad},
	}
}

func (m *Linear) Train() { m.training = true }

func (m *Linear) Eval() {
	m.training = false
	m.input = nil
}

func (m *Linear) Training() bool { return m.training }

// Softmax returns the row-wise softmax of scores.
func Softmax(scores mat.Matrix) *mat.Dense {
	rows, cols := scores.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := out.RawRowView(i)
		maxScore := math.Inf(-1)
		for j := 0; j < cols; j++ {
			row[j] = scores.At(i, j)
			if row[j] > maxScore {
				maxScore = row[j]
			}
		}
		sum := 0.0
		for j := range row {
			row[j] = math.Exp(row[j] - maxScore)
			sum += row[j]
		}
		inv := 1.0 / sum
		for j := range row {
			row[j] *= inv
		}
	}
	return out
}
