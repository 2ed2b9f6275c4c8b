package troute

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func hourlyAxis(start time.Time, n int) []time.Time {
	axis := make([]time.Time, n)
	for i := range axis {
		axis[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return axis
}

func TestAddSameAxis(t *testing.T) {
	start := time.Date(2010, 10, 1, 1, 0, 0, 0, time.UTC)
	axis := hourlyAxis(start, 3)
	a := Series{Times: axis, Values: []float64{1, 1, 1}}
	b := Series{Times: axis, Values: []float64{2, 2, 2}}
	c := Series{Times: axis, Values: []float64{3, 3, 3}}

	sum := a.Add(b).Add(c)
	if diff := cmp.Diff([]float64{6, 6, 6}, sum.Values); diff != "" {
		t.Errorf("sum mismatch (-want +got):\n%s", diff)
	}
	// inputs untouched
	if a.Values[0] != 1 {
		t.Error("Add mutated its receiver")
	}
}

func TestAddIntersectsMismatchedAxes(t *testing.T) {
	start := time.Date(2010, 10, 1, 0, 0, 0, 0, time.UTC)
	a := Series{Times: hourlyAxis(start, 4), Values: []float64{1, 2, 3, 4}}
	b := Series{Times: hourlyAxis(start.Add(time.Hour), 2), Values: []float64{10, 20}}

	sum := a.Add(b)
	if diff := cmp.Diff(hourlyAxis(start.Add(time.Hour), 2), sum.Times); diff != "" {
		t.Errorf("axis mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{12, 23}, sum.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSliceInclusiveBounds(t *testing.T) {
	start := time.Date(2010, 10, 1, 0, 0, 0, 0, time.UTC)
	s := Series{Times: hourlyAxis(start, 5), Values: []float64{0, 1, 2, 3, 4}}

	got := s.Slice(start.Add(time.Hour), start.Add(3*time.Hour))
	if diff := cmp.Diff([]float64{1, 2, 3}, got.Values); diff != "" {
		t.Errorf("slice mismatch (-want +got):\n%s", diff)
	}
	if empty := s.Slice(start.Add(10*time.Hour), start.Add(11*time.Hour)); !empty.Empty() {
		t.Errorf("out-of-range slice = %+v", empty)
	}
}

func TestResampleHourlyFirst(t *testing.T) {
	base := time.Date(2010, 10, 1, 0, 0, 0, 0, time.UTC)
	s := Series{
		Times: []time.Time{
			base.Add(15 * time.Minute),
			base.Add(30 * time.Minute),
			base.Add(time.Hour + 10*time.Minute),
			// hour 2 has no samples
			base.Add(3*time.Hour + 5*time.Minute),
		},
		Values: []float64{1, 2, 3, 4},
	}

	got := s.ResampleHourlyFirst()
	wantTimes := hourlyAxis(base, 4)
	if diff := cmp.Diff(wantTimes, got.Times); diff != "" {
		t.Fatalf("axis mismatch (-want +got):\n%s", diff)
	}
	if got.Values[0] != 1 || got.Values[1] != 3 || got.Values[3] != 4 {
		t.Errorf("values = %v", got.Values)
	}
	if !math.IsNaN(got.Values[2]) {
		t.Errorf("empty bucket = %v, want NaN", got.Values[2])
	}
}

func TestResampleHourlyFirstEmpty(t *testing.T) {
	if got := (Series{}).ResampleHourlyFirst(); !got.Empty() {
		t.Errorf("resampled empty series = %+v", got)
	}
}

func TestSortAndValidate(t *testing.T) {
	base := time.Date(2010, 10, 1, 0, 0, 0, 0, time.UTC)
	s := Series{
		Times:  []time.Time{base.Add(2 * time.Hour), base, base.Add(time.Hour)},
		Values: []float64{3, 1, 2},
	}
	got, err := sortAndValidate(s, "waterbody 1")
	if err != nil {
		t.Fatalf("sortAndValidate: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, got.Values); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	dup := Series{Times: []time.Time{base, base}, Values: []float64{1, 1}}
	if _, err := sortAndValidate(dup, "waterbody 1"); err == nil {
		t.Fatal("duplicate timestamps must fail")
	}
}
