package dataset

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"labelforge/internal/model"
)

// Loader cuts a fixed set of samples into minibatches. Each pass (Reset
// followed by Batch(0..Len-1), or Batches) is finite and covers every sample
// once; a shuffling loader reorders each pass.
type Loader struct {
	inputs    *mat.Dense
	targets   *mat.Dense
	weights   []float64
	labels    []int
	batchSize int
	rng       *rand.Rand
	order     []int
}

// NewTrainLoader builds a shuffling loader over features, soft targets and
// per-sample weights.
func NewTrainLoader(inputs, targets *mat.Dense, weights []float64, batchSize int, rng *rand.Rand) (*Loader, error) {
	if rng == nil {
		return nil, errors.New("dataset: train loader needs a random source")
	}
	n, err := sampleCount(inputs, batchSize)
	if err != nil {
		return nil, err
	}
	if rows, _ := targets.Dims(); rows != n {
		return nil, fmt.Errorf("%w: %d feature rows, %d target rows", ErrShapeMismatch, n, rows)
	}
	if len(weights) != n {
		return nil, fmt.Errorf("%w: %d feature rows, %d weights", ErrShapeMismatch, n, len(weights))
	}
	return &Loader{
		inputs:    inputs,
		targets:   targets,
		weights:   weights,
		batchSize: batchSize,
		rng:       rng,
		order:     identity(n),
	}, nil
}

// NewEvalLoader builds a loader over features and integer labels that keeps
// the sample order.
func NewEvalLoader(inputs *mat.Dense, labels []int, batchSize int) (*Loader, error) {
	n, err := sampleCount(inputs, batchSize)
	if err != nil {
		return nil, err
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%w: %d feature rows, %d labels", ErrShapeMismatch, n, len(labels))
	}
	return &Loader{
		inputs:    inputs,
		labels:    labels,
		batchSize: batchSize,
		order:     identity(n),
	}, nil
}

// Len returns the number of batches per pass.
func (l *Loader) Len() int {
	return (len(l.order) + l.batchSize - 1) / l.batchSize
}

// Samples returns the number of samples per pass.
func (l *Loader) Samples() int { return len(l.order) }

// Reset starts a new pass. A shuffling loader draws a fresh sample order.
func (l *Loader) Reset() {
	if l.rng != nil {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
}

// Batch returns batch i of the current pass.
func (l *Loader) Batch(i int) model.Batch {
	start := i * l.batchSize
	end := min(start+l.batchSize, len(l.order))
	return l.batch(l.order[start:end])
}

// Batches starts a new pass and returns all of its batches.
func (l *Loader) Batches() []model.Batch {
	l.Reset()
	out := make([]model.Batch, l.Len())
	for i := range out {
		out[i] = l.Batch(i)
	}
	return out
}

func (l *Loader) batch(idx []int) model.Batch {
	b := model.Batch{Inputs: gatherRows(l.inputs, idx)}
	if l.targets != nil {
		b.Targets = gatherRows(l.targets, idx)
		b.Weights = make([]float64, len(idx))
		for i, j := range idx {
			b.Weights[i] = l.weights[j]
		}
	}
	if l.labels != nil {
		b.Labels = make([]int, len(idx))
		for i, j := range idx {
			b.Labels[i] = l.labels[j]
		}
	}
	return b
}

func gatherRows(m *mat.Dense, idx []int) *mat.Dense {
	_, cols := m.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	for i, j := range idx {
		copy(out.RawRowView(i), m.RawRowView(j))
	}
	return out
}

func sampleCount(inputs *mat.Dense, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("dataset: batch size must be > 0 (got %d)", batchSize)
	}
	if inputs == nil || inputs.IsEmpty() {
		return 0, ErrEmpty
	}
	rows, _ := inputs.Dims()
	return rows, nil
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
