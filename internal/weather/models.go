package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical AEMET antarctica field names. These are the only fields
// retained from upstream records; everything else is dropped on decode.
const (
	ColTimestamp = "fhora"
	ColStation   = "nombre"
	ColTemp      = "temp"
	ColPressure  = "pres"
	ColWindSpeed = "vel"
)

// MeasurementColumns lists the numeric columns in canonical order.
var MeasurementColumns = []string{ColTemp, ColPressure, ColWindSpeed}

// FlexFloat is a numeric measurement value that may be missing.
// Unmarshaling never fails: numbers and numeric strings (including
// comma decimals) are accepted, anything else becomes a missing value.
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	f.Value, f.Valid = 0, false
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.Value, f.Valid = n, true
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.Value, f.Valid = n, true
		}
	}
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Observation is a single upstream station record reduced to the
// canonical fields. Measurement fields are optional per record.
type Observation struct {
	Fhora  string    `json:"fhora"`
	Nombre string    `json:"nombre"`
	Temp   FlexFloat `json:"temp"`
	Pres   FlexFloat `json:"pres"`
	Vel    FlexFloat `json:"vel"`
}

// Measurement returns the named measurement column of the record.
func (o Observation) Measurement(col string) FlexFloat {
	switch col {
	case ColTemp:
		return o.Temp
	case ColPressure:
		return o.Pres
	case ColWindSpeed:
		return o.Vel
	}
	return FlexFloat{}
}

// Fetcher abstracts the upstream observation source.
// Start and end are wire-format instant strings (see WireTimeLayout).
// A nil error with an empty slice means the range genuinely holds no data.
type Fetcher interface {
	Fetch(ctx context.Context, initDate, endDate, station string) ([]Observation, error)
}

// AggregationLevel selects the temporal bucket for resampling.
type AggregationLevel string

const (
	AggregationNone    AggregationLevel = "none"
	AggregationHourly  AggregationLevel = "hourly"
	AggregationDaily   AggregationLevel = "daily"
	AggregationMonthly AggregationLevel = "monthly"
)

// ParseAggregationLevel maps the query-parameter value to a level.
// An absent value means no aggregation.
func ParseAggregationLevel(s string) (AggregationLevel, error) {
	switch AggregationLevel(strings.ToLower(strings.TrimSpace(s))) {
	case "", AggregationNone:
		return AggregationNone, nil
	case AggregationHourly:
		return AggregationHourly, nil
	case AggregationDaily:
		return AggregationDaily, nil
	case AggregationMonthly:
		return AggregationMonthly, nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("invalid aggregation level %q", s)}
}

// Row is one output record. Time is expressed in the configured local
// zone; Values holds only the retained measurement columns.
type Row struct {
	Time    time.Time
	Station string
	Values  map[string]FlexFloat
}

// Table is the canonical tabular result of the pipeline: fixed
// mandatory columns plus the surviving measurement columns, rows
// sorted ascending by timestamp.
type Table struct {
	Columns []string
	Rows    []Row
}

// Records renders the table as a JSON-ready slice of objects, one per
// row, with the timestamp formatted with its local UTC offset.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		m[ColTimestamp] = r.Time.Format(time.RFC3339)
		m[ColStation] = r.Station
		for col, v := range r.Values {
			m[col] = v
		}
		out = append(out, m)
	}
	return out
}
