package debias

import "log/slog"

// resolveDefaults looks a variable up in a method's vetted defaults first,
// then in its experimental ones. An experimental hit logs exactly one
// warning and still resolves; a miss in both tables is a ConfigurationError.
//
// Resolution is a pure function of its inputs apart from the warning record.
func resolveDefaults[T any](v Variable, method string, vetted, experimental map[string]T, logger *slog.Logger) (T, error) {
	if d, ok := vetted[v.Name]; ok {
		return d, nil
	}
	if d, ok := experimental[v.Name]; ok {
		if logger != nil {
			logger.Warn("using experimental defaults, not evaluated in peer-reviewed literature",
				"method", method, "variable", v.Name)
		}
		return d, nil
	}
	var zero T
	return zero, configErrorf("method %q has no defaults for variable %q", method, v.Name)
}
