// Package debias implements statistical bias adjustment of gridded climate
// model output against an observed reference.
//
// # Inputs
//
// One adjustment call takes three 3-D fields with axes [time, x, y]:
//
//	obs        observed reference over the calibration period
//	cm_hist    model simulation over the same calibration period
//	cm_future  model simulation over the application period
//
// All three must share spatial extents; only time-axis lengths may differ.
// Fields may carry a per-timestep date index for date-sensitive methods.
//
// # Methods
//
// Adjustment methods are pluggable and come in two shapes. Location-wise
// methods ([LinearScaling], [DeltaChange]) see one location's full series at
// a time. Window-wise methods ([QuantileMapping]) see one location's series
// restricted to a temporal running window; the [Debiaser] computes window
// bounds and recombines the window outputs, averaging overlap.
//
// Methods are constructed either explicitly or from a [Variable] via the
// per-method FromVariable constructors, which resolve vetted or experimental
// parameter defaults. Experimental defaults resolve with a logged warning.
//
// # Orchestration
//
// [Debiaser.Apply] iterates the method over every spatial location,
// sequentially or across a bounded worker pool, and assembles a result
// field of the application input's shape. Locations are independent by
// contract, which is what makes the fan-out safe; results are keyed by
// spatial index, so sequential and parallel runs produce identical fields.
// In failsafe mode, per-location failures are logged and sentinel-filled
// instead of aborting the run.
//
// Apply works on any spatial sub-block of a larger field, so it can serve
// as the per-chunk unit function of an external chunked evaluation driver;
// leave internal parallelism off in that mode.
package debias
