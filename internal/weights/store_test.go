package weights

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	want := []float64{3, 0.5, 0, 1.25}
	for _, name := range []string{"w.db", "w.sqlite", "w.yaml", "w.yml", "w.bin"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(path, want))
			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestSQLiteSaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.db")
	require.NoError(t, Save(path, []float64{1, 2, 3}))
	require.NoError(t, Save(path, []float64{4}))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, got)
}

func TestLoadMissingStore(t *testing.T) {
	for _, name := range []string{"w.db", "w.yaml", "w.bin"} {
		_, err := Load(filepath.Join(t.TempDir(), name))
		assert.ErrorIs(t, err, os.ErrNotExist, name)
	}
}

func TestLoadYAMLVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights: [1, -2, 0.5]\n"), 0o644))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -2, 0.5}, got)
}

func TestUnsupportedStore(t *testing.T) {
	_, err := Load("weights.lib")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, Save("weights.lib", []float64{1}), ErrUnsupportedFormat)
}
