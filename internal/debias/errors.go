package debias

import "fmt"

// ConfigurationError reports an invalid method or resolver configuration:
// an unknown variable name, an unrecognized delta type, window parameters
// out of range. It is always fatal at construction time and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "debias configuration: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ShapeMismatchError reports input fields whose extents disagree: differing
// spatial shapes, a non-3-D array, or a date index whose length does not
// match its field's time axis. It is raised before any per-location work.
type ShapeMismatchError struct {
	Reason string
}

func (e *ShapeMismatchError) Error() string {
	return "debias shape mismatch: " + e.Reason
}

func shapeErrorf(format string, args ...any) *ShapeMismatchError {
	return &ShapeMismatchError{Reason: fmt.Sprintf(format, args...)}
}

// AdjustmentError reports a failure while adjusting a single spatial
// location, or one running window at that location. X and Y are indices
// into the chunk being processed; Window is -1 for location-wise methods.
type AdjustmentError struct {
	X, Y   int
	Window int
	Err    error
}

func (e *AdjustmentError) Error() string {
	if e.Window >= 0 {
		return fmt.Sprintf("adjust location (%d,%d) window %d: %v", e.X, e.Y, e.Window, e.Err)
	}
	return fmt.Sprintf("adjust location (%d,%d): %v", e.X, e.Y, e.Err)
}

func (e *AdjustmentError) Unwrap() error {
	return e.Err
}
