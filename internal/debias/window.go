package debias

import "time"

// windowBounds returns the [start, end) index pairs of running windows of
// the given length and step over an axis of n steps. Starts advance by step;
// the final window is shifted left so it ends exactly at n. With step <=
// length (enforced at method construction) the union of windows covers
// [0, n) with no gaps.
func windowBounds(n, length, step int) [][2]int {
	if n <= length {
		return [][2]int{{0, n}}
	}
	var bounds [][2]int
	for start := 0; ; start += step {
		if start+length >= n {
			bounds = append(bounds, [2]int{n - length, n})
			return bounds
		}
		bounds = append(bounds, [2]int{start, start + length})
	}
}

// restrictSeries clips a calibration series to a window computed on the
// application axis. When the window lies entirely outside the series (a
// calibration period shorter than the application period), the whole series
// is used so the window still has calibration data.
func restrictSeries(s []float64, dates []time.Time, start, end int) ([]float64, []time.Time) {
	if start >= len(s) {
		return s, dates
	}
	if end > len(s) {
		end = len(s)
	}
	if dates != nil {
		return s[start:end], dates[start:end]
	}
	return s[start:end], nil
}

// windowSeries restricts all three series of s to one window on the
// application axis.
func windowSeries(s Series, start, end int) Series {
	w := Series{}
	w.Obs, w.ObsDates = restrictSeries(s.Obs, s.ObsDates, start, end)
	w.CMHist, w.CMHistDates = restrictSeries(s.CMHist, s.CMHistDates, start, end)
	w.CMFuture = s.CMFuture[start:end]
	if s.CMFutureDates != nil {
		w.CMFutureDates = s.CMFutureDates[start:end]
	}
	return w
}
