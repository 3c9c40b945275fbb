package testhelpers

import (
	"testing"
	"time"
	_ "time/tzdata"
)

// Tokyo returns the business timezone, failing the test if it cannot load.
func Tokyo(t testing.TB) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("loading Asia/Tokyo: %v", err)
	}
	return loc
}

// MustParseTime parses an RFC 3339 timestamp.
func MustParseTime(t testing.TB, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return v
}
