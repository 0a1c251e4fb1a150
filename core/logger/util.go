package logger

import (
	"strings"
	"time"
)

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SinceMS returns whole milliseconds elapsed since start.
func SinceMS(start time.Time) int64 {
	return RoundMS(time.Since(start)).Milliseconds()
}

// SummarizeStrings joins up to limit elements and reports whether truncation happened.
func SummarizeStrings(values []string, limit int) (string, bool) {
	switch {
	case len(values) == 0:
		return "", false
	case limit <= 0:
		return "", true
	case len(values) <= limit:
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}
