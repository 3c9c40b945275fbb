package utils

import "time"

func Ptr[T any](v T) *T {
	return &v
}

// NowIn returns the current wall-clock time in loc. Batch jobs read it once
// per run and compare every record against that single value.
func NowIn(loc *time.Location) time.Time {
	return time.Now().In(loc)
}
