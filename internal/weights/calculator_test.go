package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"labelforge/internal/denoise"
)

func ruleFixture() (z, tm *mat.Dense) {
	z = mat.NewDense(3, 3, []float64{
		1, 1, 1,
		0, 0, 1,
		0, 0, 0,
	})
	tm = mat.NewDense(3, 2, []float64{
		1, 0,
		1, 0,
		0, 1,
	})
	return z, tm
}

func TestUniform(t *testing.T) {
	z, tm := ruleFixture()
	w, err := Uniform{}.Calculate(nil, tm, nil, z, DenoiseConfig{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, w)

	w, err = Uniform{}.Calculate(nil, tm, nil, z, DenoiseConfig{StartWeight: 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3, 3}, w)

	_, err = Uniform{}.Calculate(nil, tm, nil, nil, DenoiseConfig{})
	assert.Error(t, err)
}

func TestVoteConfidence(t *testing.T) {
	z, tm := ruleFixture()
	w, err := VoteConfidence{}.Calculate(nil, tm, nil, z, DenoiseConfig{})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.0 / 3, 1, 0}, w, 1e-12)

	w, err = VoteConfidence{}.Calculate(nil, tm, nil, z, DenoiseConfig{NegativeSamples: true, NoMatchClass: 0, StartWeight: 2})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4.0 / 3, 2, 2}, w, 1e-12)
}

func TestVoteConfidenceDimensionMismatch(t *testing.T) {
	z, _ := ruleFixture()
	_, err := VoteConfidence{}.Calculate(nil, mat.NewDense(2, 2, nil), nil, z, DenoiseConfig{})
	assert.ErrorIs(t, err, denoise.ErrDimensionMismatch)
}

func TestByName(t *testing.T) {
	c, ok := ByName("")
	require.True(t, ok)
	assert.Equal(t, "uniform", c.Name())

	c, ok = ByName("vote_confidence")
	require.True(t, ok)
	assert.Equal(t, "vote_confidence", c.Name())

	_, ok = ByName("crossweigh")
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Greater(t, s.Std, 0.0)

	assert.Equal(t, Stats{}, Summarize(nil))
	assert.Equal(t, 0.0, Summarize([]float64{5}).Std)
}
