package debias

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/sparse"
	"golang.org/x/sync/errgroup"
)

// Debiaser drives an adjustment method over every spatial location of a
// 3-D field triple and assembles the per-location outputs into a result
// field shaped like the application-period input.
//
// A Debiaser holds exactly one method variant, selected at construction:
// location-wise (New) or running-window (NewRunningWindow). It keeps no
// state across Apply calls and never mutates its inputs, so a single
// Debiaser may be reused across chunks, including as the per-chunk unit
// function of an external chunked evaluation driver.
type Debiaser struct {
	loc LocationWise
	win WindowWise

	logger   *slog.Logger
	parallel bool
	workers  int
	failsafe bool
	progress bool
	fill     float64
}

// Option configures a Debiaser at construction.
type Option func(*Debiaser)

// WithParallel distributes locations across a bounded worker pool of the
// given size. A size below 1 uses one worker per CPU. Do not combine with an
// external chunk driver that already parallelizes across chunks.
func WithParallel(workers int) Option {
	return func(d *Debiaser) {
		d.parallel = true
		d.workers = workers
	}
}

// WithFailsafe records per-location failures and fills the failed locations
// with the sentinel value instead of aborting the whole run.
func WithFailsafe() Option {
	return func(d *Debiaser) { d.failsafe = true }
}

// WithProgress logs coarse progress during sequential runs. Ignored, with a
// warning, under WithParallel.
func WithProgress() Option {
	return func(d *Debiaser) { d.progress = true }
}

// WithFillValue sets the sentinel written to failed locations in failsafe
// mode. The default is NaN.
func WithFillValue(v float64) Option {
	return func(d *Debiaser) { d.fill = v }
}

// WithLogger sets the logger used for failsafe records and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(d *Debiaser) { d.logger = l }
}

// New constructs a Debiaser around a location-wise method.
func New(m LocationWise, opts ...Option) (*Debiaser, error) {
	if m == nil {
		return nil, configErrorf("no adjustment method given")
	}
	return newDebiaser(&Debiaser{loc: m}, opts)
}

// NewRunningWindow constructs a Debiaser around a window-wise method.
func NewRunningWindow(m WindowWise, opts ...Option) (*Debiaser, error) {
	if m == nil {
		return nil, configErrorf("no adjustment method given")
	}
	return newDebiaser(&Debiaser{win: m}, opts)
}

func newDebiaser(d *Debiaser, opts []Option) (*Debiaser, error) {
	d.fill = math.NaN()
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.parallel && d.workers < 1 {
		d.workers = runtime.NumCPU()
	}
	if d.progress && d.parallel {
		d.logger.Warn("progress reporting requested with parallel execution, ignoring progress")
		d.progress = false
	}
	return d, nil
}

// Result is the output of one Apply call. Field has the application-period
// input's shape. Failed lists the (x, y) coordinates left sentinel-filled in
// failsafe mode; it is empty otherwise.
type Result struct {
	Field  *sparse.DenseArray
	Failed [][2]int
}

// Apply adjusts every spatial location of the field triple and returns the
// assembled result. Shape validation happens before any per-location work.
// Without failsafe, the first failing location aborts the call with an
// AdjustmentError; with failsafe, failures are logged, sentinel-filled, and
// listed in the Result.
//
// Assembly is keyed by spatial index, never by completion order, so
// sequential and parallel runs produce identical fields.
func (d *Debiaser) Apply(ctx context.Context, obs, cmHist, cmFuture Field) (*Result, error) {
	if err := validateTriple(obs, cmHist, cmFuture); err != nil {
		return nil, err
	}

	nt, nx, ny := cmFuture.Steps(), cmFuture.NX(), cmFuture.NY()
	res := &Result{Field: sparse.ZerosDense(nt, nx, ny)}

	if d.parallel {
		if err := d.applyParallel(ctx, obs, cmHist, cmFuture, res); err != nil {
			return nil, err
		}
		return res, nil
	}
	if err := d.applySequential(ctx, obs, cmHist, cmFuture, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (d *Debiaser) applySequential(ctx context.Context, obs, cmHist, cmFuture Field, res *Result) error {
	nx, ny := cmFuture.NX(), cmFuture.NY()
	total := nx * ny
	logEvery := total / 10
	if logEvery < 1 {
		logEvery = 1
	}

	done := 0
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.adjustInto(obs, cmHist, cmFuture, ix, iy, res.Field); err != nil {
				if !d.failsafe {
					return err
				}
				d.recordFailure(res, ix, iy, cmFuture.Steps(), err)
			}
			done++
			if d.progress && done%logEvery == 0 {
				d.logger.Info("adjustment progress", "done", done, "total", total)
			}
		}
	}
	return nil
}

func (d *Debiaser) applyParallel(ctx context.Context, obs, cmHist, cmFuture Field, res *Result) error {
	nx, ny := cmFuture.NX(), cmFuture.NY()

	// Workers write disjoint (x, y) columns of the result field, so only the
	// failure list needs a lock.
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			ix, iy := ix, iy
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := d.adjustInto(obs, cmHist, cmFuture, ix, iy, res.Field); err != nil {
					if !d.failsafe {
						return err
					}
					mu.Lock()
					d.recordFailure(res, ix, iy, cmFuture.Steps(), err)
					mu.Unlock()
				}
				return nil
			})
		}
	}
	return g.Wait()
}

// adjustInto runs the configured method for one location and writes the
// output column into the result field.
func (d *Debiaser) adjustInto(obs, cmHist, cmFuture Field, ix, iy int, out *sparse.DenseArray) error {
	s := Series{
		Obs:           obs.seriesAt(ix, iy),
		CMHist:        cmHist.seriesAt(ix, iy),
		CMFuture:      cmFuture.seriesAt(ix, iy),
		ObsDates:      obs.Dates,
		CMHistDates:   cmHist.Dates,
		CMFutureDates: cmFuture.Dates,
	}

	adjusted, err := d.adjustSeries(s, ix, iy)
	if err != nil {
		return err
	}
	if len(adjusted) != len(s.CMFuture) {
		return &AdjustmentError{X: ix, Y: iy, Window: -1,
			Err: fmt.Errorf("method returned %d values for %d time steps", len(adjusted), len(s.CMFuture))}
	}
	for t, v := range adjusted {
		out.Set(v, t, ix, iy)
	}
	return nil
}

func (d *Debiaser) adjustSeries(s Series, ix, iy int) ([]float64, error) {
	if d.loc != nil {
		out, err := d.loc.AdjustLocation(s)
		if err != nil {
			return nil, &AdjustmentError{X: ix, Y: iy, Window: -1, Err: err}
		}
		return out, nil
	}
	return d.adjustWindowed(s, ix, iy)
}

// adjustWindowed runs the window-wise method over every running window of
// one location and recombines the window outputs, averaging where windows
// overlap. The window bounds cover the application axis exactly, so every
// time step receives at least one prediction.
func (d *Debiaser) adjustWindowed(s Series, ix, iy int) ([]float64, error) {
	n := len(s.CMFuture)
	bounds := windowBounds(n, d.win.WindowLength(), d.win.WindowStep())

	sum := make([]float64, n)
	count := make([]float64, n)
	for wi, b := range bounds {
		out, err := d.win.AdjustWindow(windowSeries(s, b[0], b[1]))
		if err != nil {
			return nil, &AdjustmentError{X: ix, Y: iy, Window: wi, Err: err}
		}
		if len(out) != b[1]-b[0] {
			return nil, &AdjustmentError{X: ix, Y: iy, Window: wi,
				Err: fmt.Errorf("method returned %d values for window of %d time steps", len(out), b[1]-b[0])}
		}
		for i, v := range out {
			sum[b[0]+i] += v
			count[b[0]+i]++
		}
	}

	adjusted := make([]float64, n)
	for i := range adjusted {
		if count[i] == 0 {
			return nil, &AdjustmentError{X: ix, Y: iy, Window: -1,
				Err: errors.New("running windows left a gap on the time axis")}
		}
		adjusted[i] = sum[i] / count[i]
	}
	return adjusted, nil
}

// recordFailure logs a failsafe failure and fills the location's output
// column with the sentinel.
func (d *Debiaser) recordFailure(res *Result, ix, iy, nt int, err error) {
	d.logger.Error("location adjustment failed, filling with sentinel",
		"x", ix, "y", iy, "error", err)
	for t := 0; t < nt; t++ {
		res.Field.Set(d.fill, t, ix, iy)
	}
	res.Failed = append(res.Failed, [2]int{ix, iy})
}
