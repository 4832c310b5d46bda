package weather

import "fmt"

// ValidationError reports malformed caller input: bad date strings,
// inverted ranges, invalid aggregation levels, empty datasets.
// It is always detected before any network call and never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// FetchError reports an upstream communication failure that survived
// all retries for one segment. The whole fetch fails as a unit so the
// caller never sees a partial time range.
type FetchError struct {
	Station string
	Segment string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch station %s segment %s: %v", e.Station, e.Segment, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ProcessingError reports a row-level failure during table
// transformation, carrying enough context to locate the offending
// record. It is logged with detail but not leaked verbatim to callers.
type ProcessingError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("process row %d field %s=%q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
