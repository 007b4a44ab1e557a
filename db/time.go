package db

import "time"

// timeLayout has fixed width fractional seconds so stored values sort
// lexicographically.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// TimeFormat formats t in UTC with millisecond precision.
// The zero time is stored as the empty string.
func TimeFormat(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// TimeParse parses an RFC3339 string, with or without fractional seconds.
// The empty string yields the zero time.
func TimeParse(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
