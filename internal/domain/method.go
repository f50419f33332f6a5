package domain

import (
	"log/slog"

	"github.com/climakit/climate-debias/internal/debias"
)

// Method names accepted on the wire.
const (
	MethodLinearScaling   = "linear_scaling"
	MethodDeltaChange     = "delta_change"
	MethodQuantileMapping = "quantile_mapping"
)

// NewDebiaserForJob resolves a job's variable and method into a configured
// Debiaser. Job params override the variable's defaults field by field; an
// unknown method or variable is a debias.ConfigurationError.
//
// The extra opts come from service configuration (parallelism, failsafe,
// fill value) and apply uniformly to every job.
func NewDebiaserForJob(job ChunkJob, logger *slog.Logger, opts ...debias.Option) (*debias.Debiaser, error) {
	v, err := debias.VariableFromName(job.Variable)
	if err != nil {
		return nil, err
	}

	switch job.Method {
	case MethodLinearScaling:
		var mOpts []debias.LinearScalingOption
		if job.Params.DeltaType != "" {
			mOpts = append(mOpts, debias.WithDeltaType(job.Params.DeltaType))
		}
		m, err := debias.NewLinearScalingFromVariable(v, logger, mOpts...)
		if err != nil {
			return nil, err
		}
		return debias.New(m, opts...)

	case MethodDeltaChange:
		var mOpts []debias.DeltaChangeOption
		if job.Params.DeltaType != "" {
			mOpts = append(mOpts, debias.WithDeltaChangeType(job.Params.DeltaType))
		}
		m, err := debias.NewDeltaChangeFromVariable(v, logger, mOpts...)
		if err != nil {
			return nil, err
		}
		return debias.New(m, opts...)

	case MethodQuantileMapping:
		var mOpts []debias.QuantileMappingOption
		if job.Params.WindowLength != 0 || job.Params.WindowStep != 0 {
			mOpts = append(mOpts, debias.WithWindow(job.Params.WindowLength, job.Params.WindowStep))
		}
		m, err := debias.NewQuantileMappingFromVariable(v, logger, mOpts...)
		if err != nil {
			return nil, err
		}
		return debias.NewRunningWindow(m, opts...)

	default:
		return nil, &debias.ConfigurationError{Reason: "unknown method " + job.Method}
	}
}
