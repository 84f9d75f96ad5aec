// Package model defines the classifier, criterion and optimizer collaborators
// driven by the trainer, plus a linear softmax classifier.
package model

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrNoForward is returned by Backward when no training-mode forward pass
// preceded it.
var ErrNoForward = errors.New("model: backward without training forward pass")

// Batch is one minibatch drawn from a loader. Training batches carry soft
// Targets and Weights; evaluation batches carry integer Labels.
type Batch struct {
	Inputs  *mat.Dense
	Targets *mat.Dense
	Weights []float64
	Labels  []int
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int {
	if b.Inputs == nil {
		return 0
	}
	rows, _ := b.Inputs.Dims()
	return rows
}

// Param is a flat view of one trainable tensor and its accumulated gradient.
type Param struct {
	Name  string
	Value []float64
	Grad  []float64
}

// Forwarder maps an N×F feature matrix to N×C class scores.
type Forwarder interface {
	Forward(x *mat.Dense) *mat.Dense
}

// Model is a trainable classifier. Backward receives the gradient of the
// loss with respect to the scores of the last training-mode Forward.
type Model interface {
	Forwarder
	Backward(grad *mat.Dense) error
	ZeroGrad()
	Params() []*Param
	Train()
	Eval()
	Training() bool
}

// Optimizer applies one update to the parameters it was built with.
type Optimizer interface {
	Step()
}
