package weather

import (
	"errors"
	"testing"
	"time"
)

func TestCivilRangeConvertsLocalBoundariesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)

	init, end, err := CivilRange("2024-01-01", "2024-01-01", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if init != "2023-12-31T23:00:00UTC" {
		t.Fatalf("expected start 2023-12-31T23:00:00UTC, got %s", init)
	}
	if end != "2024-01-01T22:59:59UTC" {
		t.Fatalf("expected end 2024-01-01T22:59:59UTC, got %s", end)
	}
}

func TestCivilRangeUTCZone(t *testing.T) {
	init, end, err := CivilRange("2024-01-01", "2024-01-31", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if init != "2024-01-01T00:00:00UTC" {
		t.Fatalf("expected start 2024-01-01T00:00:00UTC, got %s", init)
	}
	if end != "2024-01-31T23:59:59UTC" {
		t.Fatalf("expected end 2024-01-31T23:59:59UTC, got %s", end)
	}
}

func TestCivilRangeInvalidDates(t *testing.T) {
	cases := []struct {
		name     string
		initDate string
		endDate  string
	}{
		{"slashes", "2024/01/01", "2024-01-02"},
		{"bad end", "2024-01-01", "yesterday"},
		{"day out of range", "2024-02-30", "2024-03-01"},
		{"empty", "", "2024-01-02"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := CivilRange(tc.initDate, tc.endDate, time.UTC)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestParseWire(t *testing.T) {
	got, err := ParseWire("2024-06-15T12:30:45UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := ParseWire("2024-06-15T12:30:45Z"); err == nil {
		t.Fatal("expected error for offset-style instant")
	}
	var vErr *ValidationError
	if _, err := ParseWire("garbage"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
