package debias

import (
	"errors"
	"log/slog"
)

// Delta types shared by the mean-based methods.
const (
	DeltaAdditive       = "additive"
	DeltaMultiplicative = "multiplicative"
)

// LinearScaling corrects the future simulation by the mean bias between the
// historical simulation and the observations over the calibration period:
//
//	additive:       out = cm_future + (mean(obs) - mean(cm_hist))
//	multiplicative: out = cm_future * mean(obs) / mean(cm_hist)
type LinearScaling struct {
	DeltaType string
}

var (
	linearScalingVetted = map[string]LinearScaling{
		Tas.Name: {DeltaType: DeltaAdditive},
		Pr.Name:  {DeltaType: DeltaMultiplicative},
	}
	linearScalingExperimental = map[string]LinearScaling{
		Tasmin.Name:  {DeltaType: DeltaAdditive},
		Tasmax.Name:  {DeltaType: DeltaAdditive},
		Hurs.Name:    {DeltaType: DeltaMultiplicative},
		Psl.Name:     {DeltaType: DeltaAdditive},
		SfcWind.Name: {DeltaType: DeltaMultiplicative},
	}
)

// LinearScalingOption overrides a resolved default, field by field.
type LinearScalingOption func(*LinearScaling)

// WithDeltaType overrides the delta type resolved from the variable.
func WithDeltaType(deltaType string) LinearScalingOption {
	return func(m *LinearScaling) { m.DeltaType = deltaType }
}

// NewLinearScaling constructs a LinearScaling with an explicit delta type.
func NewLinearScaling(deltaType string) (*LinearScaling, error) {
	m := &LinearScaling{DeltaType: deltaType}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewLinearScalingFromVariable resolves method defaults for a variable and
// applies caller overrides on top.
func NewLinearScalingFromVariable(v Variable, logger *slog.Logger, opts ...LinearScalingOption) (*LinearScaling, error) {
	d, err := resolveDefaults(v, "linear_scaling", linearScalingVetted, linearScalingExperimental, logger)
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

func (m *LinearScaling) validate() error {
	if m.DeltaType != DeltaAdditive && m.DeltaType != DeltaMultiplicative {
		return configErrorf("unknown delta type %q, must be %q or %q",
			m.DeltaType, DeltaAdditive, DeltaMultiplicative)
	}
	return nil
}

func (m *LinearScaling) Name() string { return "linear_scaling" }

// AdjustLocation applies the mean-bias correction to one location's series.
func (m *LinearScaling) AdjustLocation(s Series) ([]float64, error) {
	if len(s.Obs) == 0 || len(s.CMHist) == 0 {
		return nil, errors.New("empty calibration series")
	}

	out := make([]float64, len(s.CMFuture))
	switch m.DeltaType {
	case DeltaAdditive:
		delta := mean(s.Obs) - mean(s.CMHist)
		for i, v := range s.CMFuture {
			out[i] = v + delta
		}
	case DeltaMultiplicative:
		histMean := mean(s.CMHist)
		if histMean == 0 {
			return nil, errors.New("historical mean is zero, multiplicative scaling undefined")
		}
		ratio := mean(s.Obs) / histMean
		for i, v := range s.CMFuture {
			out[i] = v * ratio
		}
	}
	return out, nil
}
