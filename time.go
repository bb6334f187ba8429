package identity

import "time"

// IsWithinThresholdPeriod reports whether t falls inside the validity window
// described by pattern (a time.ParseDuration expression, e.g. "15m"),
// measured back from now.
func IsWithinThresholdPeriod(t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	threshold := time.Now().Add(-duration)
	if t.After(threshold) {
		return true, nil
	}

	return false, nil
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod. The
// token repositories use it to decide expiry.
func IsOutsideThresholdPeriod(t time.Time, pattern string) (bool, error) {
	valid, err := IsWithinThresholdPeriod(t, pattern)
	if err != nil {
		return false, err
	}

	return !valid, nil
}

// slidingWindowCutoff computes now minus the validity window, truncated to
// the top of the hour. The truncation keeps the cutoff value stable across
// repeated lookups within the same hour so responses stay cache friendly; it
// is a performance accommodation, not a correctness requirement.
func slidingWindowCutoff(now time.Time, windowDays int) time.Time {
	return now.AddDate(0, 0, -windowDays).Truncate(time.Hour)
}
