package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSGDStep(t *testing.T) {
	p := &Param{Value: []float64{1, 2}, Grad: []float64{0.5, -1}}
	NewSGD([]*Param{p}, 0.1, 0, nil).Step()
	assert.InDeltaSlice(t, []float64{0.95, 2.1}, p.Value, 1e-12)
}

func TestSGDMomentumAccumulates(t *testing.T) {
	p := &Param{Value: []float64{0}, Grad: []float64{1}}
	opt := NewSGD([]*Param{p}, 1, 0.5, nil)
	opt.Step()
	assert.InDelta(t, -1.0, p.Value[0], 1e-12)
	opt.Step()
	assert.InDelta(t, -2.5, p.Value[0], 1e-12)
}

func TestAdamFirstStepMovesByLearningRate(t *testing.T) {
	p := &Param{Value: []float64{1, 1}, Grad: []float64{3, -0.01}}
	NewAdam([]*Param{p}, 0.1, nil).Step()
	assert.InDelta(t, 0.9, p.Value[0], 1e-6)
	assert.InDelta(t, 1.1, p.Value[1], 1e-4)
}
