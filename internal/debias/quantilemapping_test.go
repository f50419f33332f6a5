package debias_test

import (
	"log/slog"
	"testing"

	"github.com/climakit/climate-debias/internal/debias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantileMapping_ShiftedDistribution(t *testing.T) {
	// Observations are the historical simulation shifted by +5; mapping any
	// future value through the historical CDF onto the observed quantiles
	// must reproduce that shift exactly under linear interpolation.
	hist := make([]float64, 20)
	obs := make([]float64, 20)
	for i := range hist {
		hist[i] = float64(i + 1)
		obs[i] = float64(i + 1 + 5)
	}

	m, err := debias.NewQuantileMapping(91, 31)
	require.NoError(t, err)

	out, err := m.AdjustWindow(debias.Series{
		Obs:      obs,
		CMHist:   hist,
		CMFuture: []float64{1, 10.5, 20},
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{6, 15.5, 25}, out, 1e-12)
}

func TestQuantileMapping_OutOfRangeClamps(t *testing.T) {
	m, err := debias.NewQuantileMapping(91, 31)
	require.NoError(t, err)

	out, err := m.AdjustWindow(debias.Series{
		Obs:      []float64{10, 20, 30},
		CMHist:   []float64{1, 2, 3},
		CMFuture: []float64{-5, 100},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 30}, out)
}

func TestQuantileMapping_InsufficientSamples(t *testing.T) {
	m, err := debias.NewQuantileMapping(91, 31)
	require.NoError(t, err)

	_, err = m.AdjustWindow(debias.Series{
		Obs:      []float64{1},
		CMHist:   []float64{1, 2},
		CMFuture: []float64{1},
	})
	assert.ErrorContains(t, err, "at least 2 calibration samples")
}

func TestNewQuantileMapping_InvalidGeometry(t *testing.T) {
	cases := []struct {
		name         string
		length, step int
	}{
		{"zero length", 0, 1},
		{"zero step", 10, 0},
		{"step exceeds length", 10, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := debias.NewQuantileMapping(tc.length, tc.step)
			var cfgErr *debias.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestNewQuantileMappingFromVariable_Defaults(t *testing.T) {
	m, err := debias.NewQuantileMappingFromVariable(debias.Tas, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 91, m.WindowLength())
	assert.Equal(t, 31, m.WindowStep())

	m, err = debias.NewQuantileMappingFromVariable(debias.Tas, slog.Default(),
		debias.WithWindow(30, 30))
	require.NoError(t, err)
	assert.Equal(t, 30, m.WindowLength())
	assert.Equal(t, 30, m.WindowStep())
}
