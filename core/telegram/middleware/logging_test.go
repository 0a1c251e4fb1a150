package middleware

import (
	"testing"
	"time"
)

func TestSeenUpdatesDeduplicates(t *testing.T) {
	s := &seenUpdates{keepFor: time.Second, seen: make(map[int]time.Time)}
	now := time.Now()
	if !s.firstTime(1, now) {
		t.Fatal("first receipt must be logged")
	}
	if s.firstTime(1, now.Add(100*time.Millisecond)) {
		t.Fatal("duplicate receipt logged")
	}
	if !s.firstTime(1, now.Add(2*time.Second)) {
		t.Fatal("expired entry should be forgotten")
	}
}
