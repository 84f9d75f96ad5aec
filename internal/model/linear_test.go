package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"labelforge/internal/device"
)

func trainStep(t *testing.T, m *Linear, opt Optimizer, crit Criterion, x, y *mat.Dense) float64 {
	t.Helper()
	m.ZeroGrad()
	scores := m.Forward(x)
	loss := crit.Loss(scores, y)[0]
	require.NoError(t, m.Backward(crit.Backward(scores, y, nil)))
	opt.Step()
	return loss
}

func TestLinearTrainStepReducesLoss(t *testing.T) {
	x := mat.NewDense(2, 4, []float64{
		0.1, 0.2, 0.3, 0.4,
		0.4, 0.3, 0.2, 0.1,
	})
	y := OneHot([]int{1, 2}, 3)
	crit := CrossEntropy{}

	for _, be := range []device.Backend{device.Host{}, &device.SIMD{}} {
		t.Run(be.Name(), func(t *testing.T) {
			m := NewLinear(4, 3, 1, be)
			opt := NewSGD(m.Params(), 0.5, 0, be)
			loss1 := trainStep(t, m, opt, crit, x, y)
			loss2 := trainStep(t, m, opt, crit, x, y)
			assert.Less(t, loss2, loss1)
		})
	}
}

func TestLinearForwardShapeAndBias(t *testing.T) {
	m := NewLinear(2, 3, 7, nil)
	m.weight.Zero()
	copy(m.bias, []float64{1, 2, 3})

	scores := m.Forward(mat.NewDense(4, 2, nil))
	rows, cols := scores.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []float64{1, 2, 3}, scores.RawRowView(3))
}

func TestLinearBackwardRequiresTrainingForward(t *testing.T) {
	m := NewLinear(2, 2, 1, nil)
	grad := mat.NewDense(1, 2, nil)

	require.ErrorIs(t, m.Backward(grad), ErrNoForward)

	m.Eval()
	m.Forward(mat.NewDense(1, 2, []float64{1, 1}))
	require.ErrorIs(t, m.Backward(grad), ErrNoForward)

	m.Train()
	m.Forward(mat.NewDense(1, 2, []float64{1, 1}))
	require.NoError(t, m.Backward(grad))
}

func TestLinearBackwardAccumulatesUntilZeroGrad(t *testing.T) {
	m := NewLinear(1, 2, 1, nil)
	x := mat.NewDense(1, 1, []float64{2})
	grad := mat.NewDense(1, 2, []float64{1, -1})

	m.Forward(x)
	require.NoError(t, m.Backward(grad))
	require.NoError(t, m.Backward(grad))

	params := m.Params()
	assert.Equal(t, []float64{4, -4}, params[0].Grad)
	assert.Equal(t, []float64{2, -2}, params[1].Grad)

	m.ZeroGrad()
	assert.Equal(t, 0.0, floats.Norm(params[0].Grad, 2))
	assert.Equal(t, 0.0, floats.Norm(params[1].Grad, 2))
}

func TestSoftmaxRowsSumToOne(t *testing.T) {
	p := Softmax(mat.NewDense(2, 3, []float64{
		1000, 1001, 1002,
		-5, 0, 5,
	}))
	for i := 0; i < 2; i++ {
		assert.InDelta(t, 1.0, floats.Sum(p.RawRowView(i)), 1e-12)
	}
	assert.Greater(t, p.At(0, 2), p.At(0, 1))
}
