package debias

import (
	"errors"
	"log/slog"
	"sort"
)

// QuantileMapping is an empirical quantile mapping method applied in running
// windows: each future value is located on the historical simulation's
// empirical CDF and replaced by the observed value at the same quantile.
// The running windows confine the mapping to a season-sized slice of the
// time axis so seasonal biases are corrected separately.
type QuantileMapping struct {
	// Window geometry on the application time axis, in time steps.
	Length int
	Step   int
}

var (
	quantileMappingVetted = map[string]QuantileMapping{
		Tas.Name: {Length: 91, Step: 31},
		Pr.Name:  {Length: 91, Step: 31},
	}
	quantileMappingExperimental = map[string]QuantileMapping{
		Tasmin.Name:  {Length: 91, Step: 31},
		Tasmax.Name:  {Length: 91, Step: 31},
		Hurs.Name:    {Length: 91, Step: 31},
		Psl.Name:     {Length: 91, Step: 31},
		SfcWind.Name: {Length: 91, Step: 31},
	}
)

// QuantileMappingOption overrides a resolved default.
type QuantileMappingOption func(*QuantileMapping)

// WithWindow overrides the running-window length and step.
func WithWindow(length, step int) QuantileMappingOption {
	return func(m *QuantileMapping) {
		m.Length = length
		m.Step = step
	}
}

// NewQuantileMapping constructs a QuantileMapping with explicit window
// geometry.
func NewQuantileMapping(length, step int) (*QuantileMapping, error) {
	m := &QuantileMapping{Length: length, Step: step}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewQuantileMappingFromVariable resolves method defaults for a variable and
// applies caller overrides on top.
func NewQuantileMappingFromVariable(v Variable, logger *slog.Logger, opts ...QuantileMappingOption) (*QuantileMapping, error) {
	d, err := resolveDefaults(v, "quantile_mapping", quantileMappingVetted, quantileMappingExperimental, logger)
	if err != nil {
		return nil, err
	}
	m := &d
	for _, opt := range opts {
		opt(m)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *QuantileMapping) validate() error {
	if m.Length < 1 {
		return configErrorf("window length must be positive, got %d", m.Length)
	}
	if m.Step < 1 {
		return configErrorf("window step must be positive, got %d", m.Step)
	}
	if m.Step > m.Length {
		return configErrorf("window step %d exceeds window length %d, time axis coverage would have gaps",
			m.Step, m.Length)
	}
	return nil
}

func (m *QuantileMapping) Name() string { return "quantile_mapping" }

func (m *QuantileMapping) WindowLength() int { return m.Length }

func (m *QuantileMapping) WindowStep() int { return m.Step }

// AdjustWindow maps one window's future values through the historical CDF
// onto the observed distribution.
func (m *QuantileMapping) AdjustWindow(s Series) ([]float64, error) {
	if len(s.Obs) < 2 || len(s.CMHist) < 2 {
		return nil, errors.New("quantile mapping needs at least 2 calibration samples per window")
	}

	sortedObs := sortedCopy(s.Obs)
	sortedHist := sortedCopy(s.CMHist)

	out := make([]float64, len(s.CMFuture))
	for i, v := range s.CMFuture {
		p := empiricalCDF(sortedHist, v)
		out[i] = empiricalQuantile(sortedObs, p)
	}
	return out, nil
}

func sortedCopy(s []float64) []float64 {
	c := make([]float64, len(s))
	copy(c, s)
	sort.Float64s(c)
	return c
}

// empiricalCDF returns the plotting-position probability of v within a
// sorted sample, interpolating linearly between order statistics.
func empiricalCDF(sorted []float64, v float64) float64 {
	n := len(sorted)
	if v <= sorted[0] {
		return 0
	}
	if v >= sorted[n-1] {
		return 1
	}
	// First index with sorted[i] >= v; v lies in (sorted[i-1], sorted[i]).
	i := sort.SearchFloat64s(sorted, v)
	lo, hi := sorted[i-1], sorted[i]
	frac := 0.0
	if hi > lo {
		frac = (v - lo) / (hi - lo)
	}
	return (float64(i-1) + frac) / float64(n-1)
}

// empiricalQuantile inverts empiricalCDF: the value at probability p of a
// sorted sample, interpolating linearly between order statistics.
func empiricalQuantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := p * float64(n-1)
	i := int(h)
	frac := h - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}
