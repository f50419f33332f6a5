package debias

import (
	"time"

	"github.com/ctessum/sparse"
)

// Field is a three-dimensional climate field with axes [time, x, y] and an
// optional per-timestep date index. Fields are read-only inputs: Apply never
// mutates them.
type Field struct {
	Data  *sparse.DenseArray
	Dates []time.Time
}

// NewField wraps a dense array as a Field, validating dimensionality and the
// date index length.
func NewField(data *sparse.DenseArray, dates []time.Time) (Field, error) {
	f := Field{Data: data, Dates: dates}
	if err := f.validate(); err != nil {
		return Field{}, err
	}
	return f, nil
}

func (f Field) validate() error {
	if f.Data == nil {
		return shapeErrorf("field has no data")
	}
	if len(f.Data.Shape) != 3 {
		return shapeErrorf("field must be 3-D [time, x, y], got %d dimensions", len(f.Data.Shape))
	}
	for i, n := range f.Data.Shape {
		if n <= 0 {
			return shapeErrorf("field axis %d has extent %d", i, n)
		}
	}
	if f.Dates != nil && len(f.Dates) != f.Data.Shape[0] {
		return shapeErrorf("date index length %d does not match time axis %d", len(f.Dates), f.Data.Shape[0])
	}
	return nil
}

// Steps returns the length of the time axis.
func (f Field) Steps() int { return f.Data.Shape[0] }

// NX returns the first spatial extent.
func (f Field) NX() int { return f.Data.Shape[1] }

// NY returns the second spatial extent.
func (f Field) NY() int { return f.Data.Shape[2] }

// seriesAt copies out the 1-D time series at one spatial location.
func (f Field) seriesAt(ix, iy int) []float64 {
	nt := f.Steps()
	s := make([]float64, nt)
	for t := 0; t < nt; t++ {
		s[t] = f.Data.Get(t, ix, iy)
	}
	return s
}

// validateTriple checks the invariants shared by one orchestration call:
// all three fields are valid 3-D arrays with identical spatial extents.
// Time axes may differ.
func validateTriple(obs, cmHist, cmFuture Field) error {
	for _, f := range []struct {
		name  string
		field Field
	}{
		{"obs", obs},
		{"cm_hist", cmHist},
		{"cm_future", cmFuture},
	} {
		if err := f.field.validate(); err != nil {
			return shapeErrorf("%s: %v", f.name, err)
		}
	}
	if obs.NX() != cmHist.NX() || obs.NY() != cmHist.NY() {
		return shapeErrorf("obs spatial extent %dx%d does not match cm_hist %dx%d",
			obs.NX(), obs.NY(), cmHist.NX(), cmHist.NY())
	}
	if obs.NX() != cmFuture.NX() || obs.NY() != cmFuture.NY() {
		return shapeErrorf("obs spatial extent %dx%d does not match cm_future %dx%d",
			obs.NX(), obs.NY(), cmFuture.NX(), cmFuture.NY())
	}
	return nil
}
