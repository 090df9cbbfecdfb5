package shared

import "time"

const dateOnly = "2006-01-02"

// ParseDate accepts RFC3339 or YYYY-MM-DD and normalizes to UTC.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	return time.Parse(dateOnly, value)
}

// ParseEndDate is ParseDate for the upper bound of a window: a bare
// YYYY-MM-DD covers the whole day.
func ParseEndDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	day, err := time.Parse(dateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}
