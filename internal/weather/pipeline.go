package weather

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Pipeline normalizes raw upstream records into a canonical table:
// validation, column projection, timezone conversion and optional
// temporal aggregation. It is stateless apart from the presentation
// timezone and never mutates its input.
type Pipeline struct {
	loc *time.Location
}

// NewPipeline creates a Pipeline presenting timestamps in loc.
func NewPipeline(loc *time.Location) *Pipeline {
	return &Pipeline{loc: loc}
}

// Process validates records, retains the mandatory columns plus the
// requested measurement columns, converts timestamps to the local
// zone and, when level is not AggregationNone, resamples measurements
// to per-(station, bucket) means. Rows come back sorted ascending by
// timestamp.
func (p *Pipeline) Process(records []Observation, features []string, level AggregationLevel) (*Table, error) {
	if len(records) == 0 {
		return nil, &ValidationError{Msg: "empty dataset"}
	}

	hasTimestamp := false
	for _, r := range records {
		if r.Fhora != "" {
			hasTimestamp = true
			break
		}
	}
	if !hasTimestamp {
		return nil, &ValidationError{Msg: fmt.Sprintf("no record carries a %s field", ColTimestamp)}
	}

	switch level {
	case AggregationNone, AggregationHourly, AggregationDaily, AggregationMonthly:
	default:
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid aggregation level %q", level)}
	}

	cols := retainedColumns(features)

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		ts, err := parseObservationTime(rec.Fhora)
		if err != nil {
			return nil, &ProcessingError{Row: i, Field: ColTimestamp, Value: rec.Fhora, Err: err}
		}

		values := make(map[string]FlexFloat, len(cols))
		for _, c := range cols {
			values[c] = rec.Measurement(c)
		}
		rows = append(rows, Row{Time: ts.In(p.loc), Station: rec.Nombre, Values: values})
	}

	if level != AggregationNone {
		rows = p.aggregate(rows, cols, level)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Time.Equal(rows[j].Time) {
			return rows[i].Time.Before(rows[j].Time)
		}
		return rows[i].Station < rows[j].Station
	})

	columns := append([]string{ColTimestamp, ColStation}, cols...)
	return &Table{Columns: columns, Rows: rows}, nil
}

// retainedColumns projects the requested features onto the canonical
// measurement columns. Unknown names are silently ignored; an empty
// request keeps everything.
func retainedColumns(features []string) []string {
	if len(features) == 0 {
		return append([]string(nil), MeasurementColumns...)
	}

	requested := make(map[string]bool, len(features))
	for _, f := range features {
		requested[strings.ToLower(strings.TrimSpace(f))] = true
	}

	var cols []string
	for _, c := range MeasurementColumns {
		if requested[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// aggregate groups rows by (station, local-time bucket) and replaces
// each measurement with the arithmetic mean of its valid values.
// Missing values are excluded from the mean, never counted as zero.
func (p *Pipeline) aggregate(rows []Row, cols []string, level AggregationLevel) []Row {
	type group struct {
		bucket  time.Time
		station string
		sums    map[string]float64
		counts  map[string]int
	}

	groups := make(map[string]*group)
	for _, r := range rows {
		bucket := p.bucketTime(r.Time, level)
		key := r.Station + "|" + bucket.Format(time.RFC3339)

		g, ok := groups[key]
		if !ok {
			g = &group{
				bucket:  bucket,
				station: r.Station,
				sums:    make(map[string]float64, len(cols)),
				counts:  make(map[string]int, len(cols)),
			}
			groups[key] = g
		}

		for _, c := range cols {
			if v := r.Values[c]; v.Valid {
				g.sums[c] += v.Value
				g.counts[c]++
			}
		}
	}

	out := make([]Row, 0, len(groups))
	for _, g := range groups {
		values := make(map[string]FlexFloat, len(cols))
		for _, c := range cols {
			if n := g.counts[c]; n > 0 {
				values[c] = FlexFloat{Value: g.sums[c] / float64(n), Valid: true}
			} else {
				values[c] = FlexFloat{}
			}
		}
		out = append(out, Row{Time: g.bucket, Station: g.station, Values: values})
	}
	return out
}

// bucketTime truncates t to the containing hour, day or month start on
// the local wall clock, so monthly buckets stay expressed in local time.
func (p *Pipeline) bucketTime(t time.Time, level AggregationLevel) time.Time {
	t = t.In(p.loc)
	switch level {
	case AggregationHourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, p.loc)
	case AggregationDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.loc)
	case AggregationMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, p.loc)
	}
	return t
}

// parseObservationTime accepts the AEMET wire layout and falls back to
// RFC3339, which some upstream datasets use for fhora.
func parseObservationTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	if t, err := time.Parse(WireTimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable timestamp: %w", err)
	}
	return t.UTC(), nil
}
