package debias_test

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/climakit/climate-debias/internal/debias"
	"github.com/ctessum/sparse"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeField builds a deterministic field, filling values via fn(t, ix, iy).
func makeField(t *testing.T, nt, nx, ny int, fn func(t, ix, iy int) float64) debias.Field {
	t.Helper()
	arr := sparse.ZerosDense(nt, nx, ny)
	for ti := 0; ti < nt; ti++ {
		for ix := 0; ix < nx; ix++ {
			for iy := 0; iy < ny; iy++ {
				arr.Set(fn(ti, ix, iy), ti, ix, iy)
			}
		}
	}
	f, err := debias.NewField(arr, nil)
	require.NoError(t, err)
	return f
}

func randomTriple(t *testing.T, seed int64, ntCal, ntApp, nx, ny int) (obs, hist, fut debias.Field) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	gen := func(bias float64) func(int, int, int) float64 {
		return func(_, _, _ int) float64 { return 10 + bias + rng.NormFloat64() }
	}
	obs = makeField(t, ntCal, nx, ny, gen(0))
	hist = makeField(t, ntCal, nx, ny, gen(2))
	fut = makeField(t, ntApp, nx, ny, gen(3))
	return obs, hist, fut
}

func TestDebiaser_Apply_LinearScaling(t *testing.T) {
	// Constant fields so every location reproduces the 5 - (2-1) = 4 case.
	obs := makeField(t, 3, 2, 2, func(_, _, _ int) float64 { return 1 })
	hist := makeField(t, 3, 2, 2, func(_, _, _ int) float64 { return 2 })
	fut := makeField(t, 4, 2, 2, func(_, _, _ int) float64 { return 5 })

	m, err := debias.NewLinearScaling(debias.DeltaAdditive)
	require.NoError(t, err)
	d, err := debias.New(m)
	require.NoError(t, err)

	res, err := d.Apply(context.Background(), obs, hist, fut)
	require.NoError(t, err)
	require.Empty(t, res.Failed)

	assert.Equal(t, []int{4, 2, 2}, res.Field.Shape)
	for _, v := range res.Field.Elements {
		assert.Equal(t, 4.0, v)
	}
}

func TestDebiaser_Apply_ParallelMatchesSequential(t *testing.T) {
	obs, hist, fut := randomTriple(t, 42, 60, 80, 6, 5)

	m, err := debias.NewLinearScaling(debias.DeltaAdditive)
	require.NoError(t, err)

	seq, err := debias.New(m)
	require.NoError(t, err)
	par, err := debias.New(m, debias.WithParallel(4))
	require.NoError(t, err)

	seqRes, err := seq.Apply(context.Background(), obs, hist, fut)
	require.NoError(t, err)
	parRes, err := par.Apply(context.Background(), obs, hist, fut)
	require.NoError(t, err)

	if diff := cmp.Diff(seqRes.Field.Elements, parRes.Field.Elements); diff != "" {
		t.Fatalf("parallel result differs from sequential (-seq +par):\n%s", diff)
	}
}

func TestDebiaser_Apply_RunningWindowParallelMatchesSequential(t *testing.T) {
	obs, hist, fut := randomTriple(t, 7, 100, 100, 4, 3)

	m, err := debias.NewQuantileMapping(20, 7)
	require.NoError(t, err)

	seq, err := debias.NewRunningWindow(m)
	require.NoError(t, err)
	par, err := debias.NewRunningWindow(m, debias.WithParallel(3))
	require.NoError(t, err)

	seqRes, err := seq.Apply(context.Background(), obs, hist, fut)
	require.NoError(t, err)
	parRes, err := par.Apply(context.Background(), obs, hist, fut)
	require.NoError(t, err)

	if diff := cmp.Diff(seqRes.Field.Elements, parRes.Field.Elements); diff != "" {
		t.Fatalf("parallel result differs from sequential (-seq +par):\n%s", diff)
	}
}

func TestDebiaser_Apply_FailsafeFillsDegenerateLocation(t *testing.T) {
	// 10 locations; x=5 has an all-zero historical series, which makes the
	// multiplicative scaling fail with a division-by-zero style error.
	obs := makeField(t, 3, 10, 1, func(_, _, _ int) float64 { return 1 })
	hist := makeField(t, 3, 10, 1, func(_, ix, _ int) float64 {
		if ix == 5 {
			return 0
		}
		return 2
	})
	fut := makeField(t, 3, 10, 1, func(_, _, _ int) float64 { return 6 })

	m, err := debias.NewLinearScaling(debias.DeltaMultiplicative)
	require.NoError(t, err)

	h := &recordingHandler{}
	d, err := debias.New(m, debias.WithFailsafe(), debias.WithLogger(slog.New(h)))
	require.NoError(t, err)

	res, err := d.Apply(context.Background(), obs, hist, fut)
	require.NoError(t, err)

	require.Equal(t, [][2]int{{5, 0}}, res.Failed)
	require.Len(t, h.atLevel(slog.LevelError), 1)

	for ix := 0; ix < 10; ix++ {
		for ti := 0; ti < 3; ti++ {
			v := res.Field.Get(ti, ix, 0)
			if ix == 5 {
				assert.True(t, math.IsNaN(v), "location 5 should hold the sentinel")
			} else {
				assert.Equal(t, 3.0, v)
			}
		}
	}
}

func TestDebiaser_Apply_WithoutFailsafeAborts(t *testing.T) {
	obs := makeField(t, 3, 10, 1, func(_, _, _ int) float64 { return 1 })
	hist := makeField(t, 3, 10, 1, func(_, ix, _ int) float64 {
		if ix == 5 {
			return 0
		}
		return 2
	})
	fut := makeField(t, 3, 10, 1, func(_, _, _ int) float64 { return 6 })

	m, err := debias.NewLinearScaling(debias.DeltaMultiplicative)
	require.NoError(t, err)
	d, err := debias.New(m)
	require.NoError(t, err)

	res, err := d.Apply(context.Background(), obs, hist, fut)
	require.Nil(t, res)

	var adjErr *debias.AdjustmentError
	require.ErrorAs(t, err, &adjErr)
	assert.Equal(t, 5, adjErr.X)
	assert.Equal(t, 0, adjErr.Y)
}

func TestDebiaser_Apply_CustomFillValue(t *testing.T) {
	obs := makeField(t, 2, 1, 1, func(_, _, _ int) float64 { return 1 })
	hist := makeField(t, 2, 1, 1, func(_, _, _ int) float64 { return 0 })
	fut := makeField(t, 2, 1, 1, func(_, _, _ int) float64 { return 6 })

	m, err := debias.NewLinearScaling(debias.DeltaMultiplicative)
	require.NoError(t, err)
	d, err := debias.New(m, debias.WithFailsafe(), debias.WithFillValue(-9999))
	require.NoError(t, err)

	res, err := d.Apply(context.Background(), obs, hist, fut)
	require.NoError(t, err)
	assert.Equal(t, []float64{-9999, -9999}, res.Field.Elements)
}

func TestDebiaser_Apply_ShapeMismatch(t *testing.T) {
	obs := makeField(t, 3, 2, 2, func(_, _, _ int) float64 { return 1 })
	hist := makeField(t, 3, 2, 2, func(_, _, _ int) float64 { return 2 })
	fut := makeField(t, 3, 3, 2, func(_, _, _ int) float64 { return 5 })

	m, err := debias.NewLinearScaling(debias.DeltaAdditive)
	require.NoError(t, err)
	d, err := debias.New(m)
	require.NoError(t, err)

	_, err = d.Apply(context.Background(), obs, hist, fut)

	var shapeErr *debias.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
}

func TestNewField_DateIndexLengthMismatch(t *testing.T) {
	arr := sparse.ZerosDense(3, 2, 2)
	dates := []time.Time{time.Now()}

	_, err := debias.NewField(arr, dates)

	var shapeErr *debias.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
}

func TestDebiaser_ProgressIgnoredUnderParallel(t *testing.T) {
	h := &recordingHandler{}
	m, err := debias.NewLinearScaling(debias.DeltaAdditive)
	require.NoError(t, err)

	_, err = debias.New(m, debias.WithParallel(2), debias.WithProgress(),
		debias.WithLogger(slog.New(h)))
	require.NoError(t, err)

	warns := h.atLevel(slog.LevelWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].Message, "ignoring progress")
}

func TestDebiaser_Apply_ContextCancelled(t *testing.T) {
	obs, hist, fut := randomTriple(t, 1, 10, 10, 3, 3)

	m, err := debias.NewLinearScaling(debias.DeltaAdditive)
	require.NoError(t, err)
	d, err := debias.New(m)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Apply(ctx, obs, hist, fut)
	assert.ErrorIs(t, err, context.Canceled)
}
