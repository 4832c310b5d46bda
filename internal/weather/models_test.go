package weather

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFlexFloatUnmarshal(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		{"number", `-2.4`, true, -2.4},
		{"integer", `1012`, true, 1012},
		{"numeric string", `"3.1"`, true, 3.1},
		{"comma decimal string", `"-2,4"`, true, -2.4},
		{"padded string", `" 7.5 "`, true, 7.5},
		{"null", `null`, false, 0},
		{"garbage string", `"broken"`, false, 0},
		{"bool", `true`, false, 0},
		{"object", `{"v": 1}`, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f FlexFloat
			if err := json.Unmarshal([]byte(tc.input), &f); err != nil {
				t.Fatalf("unmarshal should never fail, got %v", err)
			}
			if f.Valid != tc.wantValid {
				t.Fatalf("expected valid=%v, got %+v", tc.wantValid, f)
			}
			if f.Valid && f.Value != tc.wantValue {
				t.Fatalf("expected value %v, got %v", tc.wantValue, f.Value)
			}
		})
	}
}

func TestFlexFloatMarshal(t *testing.T) {
	b, err := json.Marshal(FlexFloat{Value: 23, Valid: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "23" {
		t.Fatalf("expected 23, got %s", b)
	}

	b, err = json.Marshal(FlexFloat{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "null" {
		t.Fatalf("expected null, got %s", b)
	}
}

func TestObservationDropsUnknownFields(t *testing.T) {
	payload := `{"fhora": "2024-01-01T00:00:00UTC", "nombre": "Station1", "temp": 22.5, "pres": 1012, "vel": 10, "humedad": 60, "nieve": 4}`

	var o Observation
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Nombre != "Station1" || !o.Temp.Valid || o.Temp.Value != 22.5 {
		t.Fatalf("canonical fields not decoded: %+v", o)
	}
}

func TestParseAggregationLevel(t *testing.T) {
	cases := []struct {
		input string
		want  AggregationLevel
	}{
		{"", AggregationNone},
		{"none", AggregationNone},
		{"hourly", AggregationHourly},
		{"daily", AggregationDaily},
		{"Monthly", AggregationMonthly},
		{" daily ", AggregationDaily},
	}
	for _, tc := range cases {
		got, err := ParseAggregationLevel(tc.input)
		if err != nil {
			t.Fatalf("ParseAggregationLevel(%q): unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAggregationLevel(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}

	_, err := ParseAggregationLevel("weekly")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
