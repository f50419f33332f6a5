package debias

import (
	"errors"
	"fmt"
	"log/slog"
)

// DeltaChange is the inverse perspective of LinearScaling: instead of
// correcting the simulation toward the observations, it perturbs the
// observed series by the simulated climate change signal:
//
//	additive:       out = obs + (mean(cm_future) - mean(cm_hist))
//	multiplicative: out = obs * mean(cm_future) / mean(cm_hist)
//
// Because the output is built from the observations, the observation series
// must have the same length as the application series.
type DeltaChange struct {
	DeltaType string
}

var (
	deltaChangeVetted = map[string]DeltaChange{
		Tas.Name: {DeltaType: DeltaAdditive},
		Pr.Name:  {DeltaType: DeltaMultiplicative},
	}
	deltaChangeExperimental = map[string]DeltaChange{
		Tasmin.Name:  {DeltaType: DeltaAdditive},
		Tasmax.Name:  {DeltaType: DeltaAdditive},
		Hurs.Name:    {DeltaType: DeltaMultiplicative},
		Psl.Name:     {DeltaType: DeltaAdditive},
		SfcWind.Name: {DeltaType: DeltaMultiplicative},
	}
)

// DeltaChangeOption overrides a resolved default.
type DeltaChangeOption func(*DeltaChange)

// WithDeltaChangeType overrides the delta type resolved from the variable.
func WithDeltaChangeType(deltaType string) DeltaChangeOption {
	return func(m *DeltaChange) { m.DeltaType = deltaType }
}

// NewDeltaChange constructs a DeltaChange with an explicit delta type.
func NewDeltaChange(deltaType string) (*DeltaChange, error) {
	m := &DeltaChange{DeltaType: deltaType}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewDeltaChangeFromVariable resolves method defaults for a variable and
// applies caller overrides on top.
func NewDeltaChangeFromVariable(v Variable, logger *slog.Logger, opts ...DeltaChangeOption) (*DeltaChange, error) {
	d, err := resolveDefaults(v, "delta_change", deltaChangeVetted, deltaChangeExperimental, logger)
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

func (m *DeltaChange) validate() error {
	if m.DeltaType != DeltaAdditive && m.DeltaType != DeltaMultiplicative {
		return configErrorf("unknown delta type %q, must be %q or %q",
			m.DeltaType, DeltaAdditive, DeltaMultiplicative)
	}
	return nil
}

func (m *DeltaChange) Name() string { return "delta_change" }

// AdjustLocation perturbs one location's observed series by the simulated
// change signal.
func (m *DeltaChange) AdjustLocation(s Series) ([]float64, error) {
	if len(s.CMHist) == 0 {
		return nil, errors.New("empty calibration series")
	}
	if len(s.Obs) != len(s.CMFuture) {
		return nil, fmt.Errorf("delta change requires matching observation and application lengths, got %d and %d",
			len(s.Obs), len(s.CMFuture))
	}

	out := make([]float64, len(s.Obs))
	switch m.DeltaType {
	case DeltaAdditive:
		delta := mean(s.CMFuture) - mean(s.CMHist)
		for i, v := range s.Obs {
			out[i] = v + delta
		}
	case DeltaMultiplicative:
		histMean := mean(s.CMHist)
		if histMean == 0 {
			return nil, errors.New("historical mean is zero, multiplicative change factor undefined")
		}
		ratio := mean(s.CMFuture) / histMean
		for i, v := range s.Obs {
			out[i] = v * ratio
		}
	}
	return out, nil
}
