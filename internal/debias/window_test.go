package debias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowBounds_CoverageExact(t *testing.T) {
	cases := []struct {
		name            string
		n, length, step int
	}{
		{"single window", 50, 91, 31},
		{"exact fit", 90, 30, 30},
		{"tiling", 120, 30, 30},
		{"overlapping", 365, 91, 31},
		{"step one", 40, 10, 1},
		{"tail shifted", 100, 30, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bounds := windowBounds(tc.n, tc.length, tc.step)
			require.NotEmpty(t, bounds)

			covered := make([]int, tc.n)
			for _, b := range bounds {
				assert.LessOrEqual(t, 0, b[0])
				assert.LessOrEqual(t, b[1], tc.n)
				assert.Less(t, b[0], b[1])
				for i := b[0]; i < b[1]; i++ {
					covered[i]++
				}
			}
			// Every time step covered, no gaps.
			for i, c := range covered {
				assert.Positivef(t, c, "time step %d uncovered", i)
			}
			assert.Equal(t, tc.n, bounds[len(bounds)-1][1], "last window must end at the axis end")
		})
	}
}

func TestRestrictSeries_FallsBackToFullSeries(t *testing.T) {
	s := []float64{1, 2, 3}

	// Window entirely past the calibration period.
	got, _ := restrictSeries(s, nil, 10, 20)
	assert.Equal(t, s, got)

	// Window partially past: clipped.
	got, _ = restrictSeries(s, nil, 2, 20)
	assert.Equal(t, []float64{3}, got)
}
