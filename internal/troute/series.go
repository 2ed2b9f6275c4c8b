// Package troute extracts per-location discharge series from t-route routing
// output artifacts. Format detection is an ordered rule cascade over file
// extension and header content; every parser normalizes to the same Series
// shape so aggregation and temporal alignment are format-independent.
package troute

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Series is a discharge time series for one location: parallel timestamp and
// value slices, timestamps strictly increasing.
type Series struct {
	Times  []time.Time
	Values []float64
}

// Empty reports whether the series has no samples.
func (s Series) Empty() bool { return len(s.Values) == 0 }

// Len returns the sample count.
func (s Series) Len() int { return len(s.Values) }

// At returns the value at timestamp t.
func (s Series) At(t time.Time) (float64, bool) {
	i := sort.Search(len(s.Times), func(i int) bool { return !s.Times[i].Before(t) })
	if i < len(s.Times) && s.Times[i].Equal(t) {
		return s.Values[i], true
	}
	return 0, false
}

// Add sums two series elementwise over their overlapping timestamps.
func (s Series) Add(o Series) Series {
	if s.sameAxis(o) {
		vals := make([]float64, len(s.Values))
		copy(vals, s.Values)
		floats.Add(vals, o.Values)
		return Series{Times: s.Times, Values: vals}
	}
	var out Series
	i, j := 0, 0
	for i < len(s.Times) && j < len(o.Times) {
		switch {
		case s.Times[i].Before(o.Times[j]):
			i++
		case o.Times[j].Before(s.Times[i]):
			j++
		default:
			out.Times = append(out.Times, s.Times[i])
			out.Values = append(out.Values, s.Values[i]+o.Values[j])
			i++
			j++
		}
	}
	return out
}

func (s Series) sameAxis(o Series) bool {
	if len(s.Times) != len(o.Times) {
		return false
	}
	for i := range s.Times {
		if !s.Times[i].Equal(o.Times[i]) {
			return false
		}
	}
	return true
}

// Slice returns the samples with from <= t <= to (both bounds inclusive).
func (s Series) Slice(from, to time.Time) Series {
	lo := sort.Search(len(s.Times), func(i int) bool { return !s.Times[i].Before(from) })
	hi := sort.Search(len(s.Times), func(i int) bool { return s.Times[i].After(to) })
	if lo >= hi {
		return Series{}
	}
	return Series{Times: s.Times[lo:hi], Values: s.Values[lo:hi]}
}

// ResampleHourlyFirst resamples onto a fixed one-hour cadence, taking the
// first sample in each bucket. Buckets are left-closed and labeled by their
// start, matching the cadence evaluation compares at; empty buckets carry
// NaN so the axis stays regular.
func (s Series) ResampleHourlyFirst() Series {
	if s.Empty() {
		return Series{}
	}
	first := s.Times[0].Truncate(time.Hour)
	last := s.Times[len(s.Times)-1].Truncate(time.Hour)

	var out Series
	i := 0
	for bucket := first; !bucket.After(last); bucket = bucket.Add(time.Hour) {
		next := bucket.Add(time.Hour)
		if i < len(s.Times) && s.Times[i].Before(next) {
			out.Times = append(out.Times, bucket)
			out.Values = append(out.Values, s.Values[i])
			for i < len(s.Times) && s.Times[i].Before(next) {
				i++
			}
		} else {
			out.Times = append(out.Times, bucket)
			out.Values = append(out.Values, math.NaN())
		}
	}
	return out
}

// sortAndValidate orders a parsed series by time and rejects duplicate
// timestamps, which indicate the wrong parser matched the artifact.
func sortAndValidate(s Series, location string) (Series, error) {
	type sample struct {
		t time.Time
		v float64
	}
	samples := make([]sample, len(s.Times))
	for i := range s.Times {
		samples[i] = sample{s.Times[i], s.Values[i]}
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].t.Before(samples[j].t) })
	out := Series{Times: make([]time.Time, len(samples)), Values: make([]float64, len(samples))}
	for i, smp := range samples {
		if i > 0 && !smp.t.After(out.Times[i-1]) {
			return Series{}, fmt.Errorf("duplicate timestamp %s in output for %s", smp.t, location)
		}
		out.Times[i] = smp.t
		out.Values[i] = smp.v
	}
	return out, nil
}
