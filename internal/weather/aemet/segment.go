package aemet

import (
	"time"

	"github.com/aemet-tools/antartida-api/internal/weather"
)

// segment is one upstream-safe slice of the requested range. Bounds
// are inclusive instants in UTC.
type segment struct {
	start time.Time
	end   time.Time
}

func (s segment) String() string {
	return s.start.Format(weather.WireTimeLayout) + ".." + s.end.Format(weather.WireTimeLayout)
}

// split partitions [start, end] into consecutive segments spanning at
// most window each. The next segment starts one second after the
// previous end, so no boundary instant is fetched twice and the union
// covers the full range with no gaps. The final segment ends exactly
// at end.
func split(start, end time.Time, window time.Duration) []segment {
	var segs []segment
	for cur := start; !cur.After(end); {
		segEnd := cur.Add(window)
		if segEnd.After(end) {
			segEnd = end
		}
		segs = append(segs, segment{start: cur, end: segEnd})
		cur = segEnd.Add(time.Second)
	}
	return segs
}
