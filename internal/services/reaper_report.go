package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

// identified is implemented by every model a reaper handles.
type identified interface {
	GetID() string
}

// recordID returns the record's primary key for log lines. Log fields never
// carry the record itself: %v ignores json:"-" and would print secrets.
func recordID(v any) string {
	if r, ok := v.(identified); ok {
		return r.GetID()
	}
	return fmt.Sprintf("%T", v)
}

type recordFailure[T any] struct {
	record T
	err    error
}

// composeReport renders the failure report body: a one-line count followed
// by every failed record and its error.
func composeReport[T any](label string, processed int, failures []recordFailure[T]) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d processed, %d failed\n", label, processed, len(failures))

	for i, f := range failures {
		fmt.Fprintf(&b, "\n[%d] record:\n%s\nerror: %v\n", i+1, dumpRecord(f.record), f.err)
	}
	return b.String()
}

func dumpRecord(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("id=%s (record not serializable: %v)", recordID(v), err)
	}
	return string(out)
}
