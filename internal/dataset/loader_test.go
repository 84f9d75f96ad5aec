package dataset

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func fixture(n int) (*mat.Dense, *mat.Dense, []float64) {
	x := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 2, nil)
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, float64(i))
		x.Set(i, 1, float64(-i))
		y.Set(i, i%2, 1)
		w[i] = float64(i) / 10
	}
	return x, y, w
}

func TestTrainLoaderCoversEverySampleOnce(t *testing.T) {
	x, y, w := fixture(10)
	l, err := NewTrainLoader(x, y, w, 4, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 10, l.Samples())

	batches := l.Batches()
	require.Len(t, batches, 3)
	assert.Equal(t, []int{4, 4, 2}, []int{batches[0].Size(), batches[1].Size(), batches[2].Size()})

	var seen []int
	for _, b := range batches {
		for i := 0; i < b.Size(); i++ {
			id := int(b.Inputs.At(i, 0))
			seen = append(seen, id)
			assert.Equal(t, float64(-id), b.Inputs.At(i, 1))
			assert.Equal(t, 1.0, b.Targets.At(i, id%2))
			assert.Equal(t, float64(id)/10, b.Weights[i])
		}
	}
	sort.Ints(seen)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, seen)
}

func TestTrainLoaderDeterministicPerSeed(t *testing.T) {
	x, y, w := fixture(16)
	order := func(seed int64) [][]float64 {
		l, err := NewTrainLoader(x, y, w, 5, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		var passes [][]float64
		for pass := 0; pass < 2; pass++ {
			var ids []float64
			for _, b := range l.Batches() {
				ids = append(ids, mat.Col(nil, 0, b.Inputs)...)
			}
			passes = append(passes, ids)
		}
		return passes
	}
	first, second := order(9), order(9)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first[0], first[1], "passes should be reshuffled")
}

func TestEvalLoaderKeepsOrder(t *testing.T) {
	x, _, _ := fixture(5)
	l, err := NewEvalLoader(x, []int{0, 1, 0, 1, 1}, 2)
	require.NoError(t, err)
	batches := l.Batches()
	require.Len(t, batches, 3)
	assert.Equal(t, []int{0, 1}, batches[0].Labels)
	assert.Equal(t, []int{1}, batches[2].Labels)
	assert.Nil(t, batches[0].Targets)
	assert.Equal(t, 4.0, batches[2].Inputs.At(0, 0))
}

func TestLoaderShapeErrors(t *testing.T) {
	x, y, w := fixture(4)
	rng := rand.New(rand.NewSource(1))

	_, err := NewTrainLoader(x, y, w[:3], 2, rng)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewTrainLoader(x, mat.NewDense(3, 2, nil), w, 2, rng)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewEvalLoader(x, []int{0}, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewEvalLoader(x, []int{0, 0, 0, 0}, 0)
	assert.Error(t, err)

	_, err = NewEvalLoader(&mat.Dense{}, nil, 2)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoaderBatchMatchesBatches(t *testing.T) {
	x, y, w := fixture(7)
	a, err := NewTrainLoader(x, y, w, 3, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	b, err := NewTrainLoader(x, y, w, 3, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	all := a.Batches()
	b.Reset()
	for i := 0; i < b.Len(); i++ {
		assert.True(t, mat.Equal(all[i].Inputs, b.Batch(i).Inputs), "batch %d", i)
	}
}
