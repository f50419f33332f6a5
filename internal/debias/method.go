package debias

import "time"

// Series carries the three 1-D inputs drawn from one fixed spatial location:
// the observed reference, the historical simulation, and the future (or
// application-period) simulation, plus their optional per-timestep dates.
// For window-wise methods all slices are already restricted to one running
// window.
type Series struct {
	Obs      []float64
	CMHist   []float64
	CMFuture []float64

	ObsDates      []time.Time
	CMHistDates   []time.Time
	CMFutureDates []time.Time
}

// LocationWise is an adjustment method applied independently per spatial
// location over the full time axis.
//
// AdjustLocation must be pure: calling it for any subset of locations, in
// any order, on unmodified inputs yields the same result as calling it for
// all of them. That independence is what licenses parallel dispatch, so
// implementations must not keep cross-location state.
type LocationWise interface {
	Name() string
	AdjustLocation(s Series) ([]float64, error)
}

// WindowWise is an adjustment method applied per spatial location within a
// temporal running window. The orchestrator computes window bounds from
// WindowLength and WindowStep, restricts the series, and reassembles the
// per-window outputs, averaging overlap.
//
// The purity requirement of LocationWise applies per (location, window).
type WindowWise interface {
	Name() string
	WindowLength() int
	WindowStep() int
	AdjustWindow(s Series) ([]float64, error)
}

func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}
