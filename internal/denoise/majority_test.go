package denoise

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func oneRulePerClass() *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})
}

func TestMajorityVoteScenario(t *testing.T) {
	z := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		0, 0,
	})
	got, err := MajorityVote(z, oneRulePerClass())
	require.NoError(t, err)
	want := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		0, 0,
	})
	assert.True(t, mat.Equal(want, got), "got %v", mat.Formatted(got))
}

func TestMajorityVoteWithNoMatchScenario(t *testing.T) {
	z := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		0, 0,
	})
	got, err := MajorityVoteWithNoMatch(z, oneRulePerClass(), 1)
	require.NoError(t, err)
	want := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		0, 1,
	})
	assert.True(t, mat.Equal(want, got), "got %v", mat.Formatted(got))
}

func TestMajorityVoteTie(t *testing.T) {
	z := mat.NewDense(1, 2, []float64{1, 1})
	got, err := MajorityVote(z, oneRulePerClass())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, got.RawRowView(0))
}

func TestMajorityVoteCountsRepeatedVotes(t *testing.T) {
	// rules 0 and 1 vote for class 0, rule 2 for class 2
	tm := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		1, 0, 0,
		0, 0, 1,
	})
	z := mat.NewDense(1, 3, []float64{1, 1, 1})
	got, err := MajorityVote(z, tm)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.0 / 3, 0, 1.0 / 3}, got.RawRowView(0), 1e-12)
}

func TestMajorityVoteDimensionMismatch(t *testing.T) {
	z := mat.NewDense(2, 3, nil)
	tm := oneRulePerClass()

	_, err := MajorityVote(z, tm)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "3")

	_, err = MajorityVoteWithNoMatch(z, tm, 0)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMajorityVoteWithNoMatchNegativeClass(t *testing.T) {
	z := mat.NewDense(1, 2, []float64{0, 0})
	tm := mat.NewDense(2, 3, []float64{
		1, 0, 0,
		0, 1, 0,
	})
	got, err := MajorityVoteWithNoMatch(z, tm, -1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, got.RawRowView(0))
}

func TestMajorityVoteWithNoMatchInvalidClass(t *testing.T) {
	z := mat.NewDense(1, 2, []float64{0, 0})
	for _, class := range []int{2, -3} {
		_, err := MajorityVoteWithNoMatch(z, oneRulePerClass(), class)
		assert.ErrorIs(t, err, ErrInvalidClass, "class %d", class)
	}
}

func TestMajorityVoteProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const samples, rules, classes = 40, 7, 4

	for trial := 0; trial < 25; trial++ {
		z := mat.NewDense(samples, rules, nil)
		for i := 0; i < samples; i++ {
			for r := 0; r < rules; r++ {
				if rng.Float64() < 0.2 {
					z.Set(i, r, 1)
				}
			}
		}
		tm := mat.NewDense(rules, classes, nil)
		for r := 0; r < rules; r++ {
			tm.Set(r, rng.Intn(classes), 1)
		}
		reserved := rng.Intn(classes)

		plain, err := MajorityVote(z, tm)
		require.NoError(t, err)
		abstain, err := MajorityVoteWithNoMatch(z, tm, reserved)
		require.NoError(t, err)

		for i := 0; i < samples; i++ {
			matched := mat.Sum(z.RowView(i)) > 0
			plainRow := plain.RawRowView(i)
			abstainRow := abstain.RawRowView(i)

			assert.InDelta(t, 1.0, floats.Sum(abstainRow), 1e-9, "abstain row %d", i)
			if matched {
				assert.InDelta(t, 1.0, floats.Sum(plainRow), 1e-9, "plain row %d", i)
				assert.Equal(t, plainRow, abstainRow, "row %d", i)
				continue
			}
			assert.Equal(t, 0.0, floats.Sum(plainRow), "plain row %d", i)
			want := make([]float64, classes)
			want[reserved] = 1
			assert.Equal(t, want, abstainRow, "row %d", i)
		}
	}
}
