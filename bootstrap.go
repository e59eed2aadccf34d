package experimentutils

import (
	"errors"
	"math/rand"
	"time"
)

var ErrEmptySample = errors.New("experimentutils: cannot resample an empty sample")

// Bootstrap draws n resamples of sample with replacement, each the size
// of the original. A nil rng falls back to a time-seeded source, pass
// your own for reproducible draws.
func Bootstrap(rng *rand.Rand, sample []float64, n int) ([][]float64, error) {
	if n <= 0 {
		return nil, nil
	}
	if len(sample) == 0 {
		return nil, ErrEmptySample
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	resamples := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		rs := make([]float64, len(sample))
		for j := range rs {
			rs[j] = sample[rng.Intn(len(sample))]
		}
		resamples = append(resamples, rs)
	}

	return resamples, nil
}
