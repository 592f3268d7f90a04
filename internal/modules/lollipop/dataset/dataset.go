// Package dataset holds the fixed hourly samples charted by the server.
package dataset

import (
	"sort"
	"time"

	"lollipop-server/internal/modules/lollipop/types"
)

type reading struct {
	pressure    float64
	temperature float64
	windSpeed   float64
}

// hourly readings for +1h .. +12h.
var hourly = [...]reading{
	{1015.0, 18.2, 6.1},
	{1015.3, 18.2, 8.1},
	{1015.9, 18.2, 9.4},
	{1016.3, 18.2, 5.2},
	{1016.3, 18.2, 12.1},
	{1016.3, 18.2, 11.1},
	{1017.3, 18.2, 10.1},
	{1018.3, 18.2, 11.1},
	{1018.3, 18.2, 9.1},
	{1018.3, 18.2, 8.1},
	{1017.3, 18.2, 19.9},
	{1018.3, 18.2, 7.1},
}

// Len is the number of built-in samples.
const Len = len(hourly)

// Builtin returns the twelve built-in samples one hour apart, the first one
// hour after start. Timestamps are truncated to the second.
func Builtin(start time.Time) []types.Sample {
	start = start.Truncate(time.Second)
	out := make([]types.Sample, 0, len(hourly))
	for i, r := range hourly {
		out = append(out, types.Sample{
			Time:        start.Add(time.Duration(i+1) * time.Hour),
			Pressure:    r.pressure,
			Temperature: r.temperature,
			WindSpeed:   r.windSpeed,
		})
	}
	return out
}

// Dataset is an immutable, time-ascending sequence of samples.
type Dataset struct {
	samples []types.Sample
}

// New copies samples and sorts them by time. Samples with equal timestamps
// keep their relative order.
func New(samples []types.Sample) Dataset {
	cp := make([]types.Sample, len(samples))
	copy(cp, samples)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Time.Before(cp[j].Time) })
	return Dataset{samples: cp}
}

func (d Dataset) Len() int { return len(d.samples) }

// Samples returns a copy of the samples.
func (d Dataset) Samples() []types.Sample {
	out := make([]types.Sample, len(d.samples))
	copy(out, d.samples)
	return out
}

// View returns the backing slice for read-only use by the hot path.
func (d Dataset) View() []types.Sample { return d.samples }

// First returns the earliest sample.
func (d Dataset) First() (types.Sample, bool) {
	if len(d.samples) == 0 {
		return types.Sample{}, false
	}
	return d.samples[0], true
}

// Contains reports whether a sample with the same timestamp is in the dataset.
func (d Dataset) Contains(s types.Sample) bool {
	i := sort.Search(len(d.samples), func(i int) bool { return !d.samples[i].Time.Before(s.Time) })
	return i < len(d.samples) && d.samples[i].Time.Equal(s.Time)
}
