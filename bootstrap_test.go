package experimentutils_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ablab/experimentutils"
)

func TestBootstrap(t *testing.T) {
	sample := []float64{1.5, 2.5, 3.5, 4.5, 5.5}

	resamples, err := experimentutils.Bootstrap(rand.New(rand.NewSource(42)), sample, 10)
	require.NoError(t, err)
	require.Len(t, resamples, 10)

	allowed := map[float64]bool{}
	for _, v := range sample {
		allowed[v] = true
	}
	for _, rs := range resamples {
		require.Len(t, rs, len(sample))
		for _, v := range rs {
			assert.True(t, allowed[v], "resampled value %v not in original sample", v)
		}
	}
}

func TestBootstrapReproducible(t *testing.T) {
	sample := []float64{1, 2, 3, 4}

	first, err := experimentutils.Bootstrap(rand.New(rand.NewSource(7)), sample, 5)
	require.NoError(t, err)
	second, err := experimentutils.Bootstrap(rand.New(rand.NewSource(7)), sample, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBootstrapEmptySample(t *testing.T) {
	_, err := experimentutils.Bootstrap(nil, nil, 3)
	assert.ErrorIs(t, err, experimentutils.ErrEmptySample)

	resamples, err := experimentutils.Bootstrap(nil, nil, 0)
	assert.NoError(t, err)
	assert.Nil(t, resamples)
}
