package debias_test

import (
	"log/slog"
	"testing"

	"github.com/climakit/climate-debias/internal/debias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaChange_Additive(t *testing.T) {
	m, err := debias.NewDeltaChange(debias.DeltaAdditive)
	require.NoError(t, err)

	// Simulated warming of 3 is projected onto the observations.
	out, err := m.AdjustLocation(debias.Series{
		Obs:      []float64{10, 11, 12},
		CMHist:   []float64{9, 9, 9},
		CMFuture: []float64{12, 12, 12},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{13, 14, 15}, out)
}

func TestDeltaChange_Multiplicative(t *testing.T) {
	m, err := debias.NewDeltaChange(debias.DeltaMultiplicative)
	require.NoError(t, err)

	out, err := m.AdjustLocation(debias.Series{
		Obs:      []float64{2, 4},
		CMHist:   []float64{1, 1},
		CMFuture: []float64{2, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 8}, out)
}

func TestDeltaChange_LengthMismatch(t *testing.T) {
	m, err := debias.NewDeltaChange(debias.DeltaAdditive)
	require.NoError(t, err)

	_, err = m.AdjustLocation(debias.Series{
		Obs:      []float64{1, 2},
		CMHist:   []float64{1, 2},
		CMFuture: []float64{1, 2, 3},
	})
	assert.ErrorContains(t, err, "matching observation and application lengths")
}

func TestNewDeltaChangeFromVariable_Defaults(t *testing.T) {
	m, err := debias.NewDeltaChangeFromVariable(debias.Tas, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, debias.DeltaAdditive, m.DeltaType)

	m, err = debias.NewDeltaChangeFromVariable(debias.Pr, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, debias.DeltaMultiplicative, m.DeltaType)
}
