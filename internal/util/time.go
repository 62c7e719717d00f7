package util

import "time"

// TimeFormat is the wire format for every timestamp the proxy emits.
// RFC 3339 in UTC with second precision sorts lexicographically.
const TimeFormat = "2006-01-02T15:04:05Z"

// FormatTime renders a timestamp in the wire format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// FormatTimePtr renders an optional timestamp. A nil or zero time yields
// nil, which serializes as JSON null rather than an empty string or a
// zero epoch.
func FormatTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := FormatTime(*t)
	return &s
}
