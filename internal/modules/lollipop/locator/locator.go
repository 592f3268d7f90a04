// Package locator finds the sample nearest in time to a query instant.
package locator

import (
	"math"
	"time"

	"lollipop-server/internal/modules/lollipop/types"
)

// Locate returns the sample whose timestamp is closest to query. Samples at
// equal distance resolve to the one that comes first in samples. The second
// return value is false only when samples is empty.
func Locate(query time.Time, samples []types.Sample) (types.Sample, bool) {
	index := -1
	var minDistance time.Duration = math.MaxInt64
	for i := range samples {
		d := distance(samples[i].Time, query)
		if index < 0 || d < minDistance {
			minDistance = d
			index = i
		}
	}
	if index < 0 {
		return types.Sample{}, false
	}
	return samples[index], true
}

// distance is |a - b|, saturating at the largest representable duration.
func distance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	if d < 0 {
		return math.MaxInt64
	}
	return d
}
