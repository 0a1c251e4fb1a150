package logger

import (
	"testing"
	"time"
)

func TestRoundMS(t *testing.T) {
	if got := RoundMS(-time.Second); got != 0 {
		t.Fatalf("negative = %v", got)
	}
	if got := RoundMS(1499 * time.Microsecond); got != time.Millisecond {
		t.Fatalf("round = %v", got)
	}
}

func TestSummarizeStrings(t *testing.T) {
	cases := []struct {
		values    []string
		limit     int
		want      string
		truncated bool
	}{
		{values: nil, limit: 3, want: "", truncated: false},
		{values: []string{"a"}, limit: 0, want: "", truncated: true},
		{values: []string{"a", "b"}, limit: 3, want: "a, b", truncated: false},
		{values: []string{"a", "b", "c"}, limit: 2, want: "a, b", truncated: true},
	}
	for _, tc := range cases {
		got, truncated := SummarizeStrings(tc.values, tc.limit)
		if got != tc.want || truncated != tc.truncated {
			t.Fatalf("SummarizeStrings(%v, %d) = %q, %v", tc.values, tc.limit, got, truncated)
		}
	}
}
