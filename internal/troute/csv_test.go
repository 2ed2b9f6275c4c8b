package troute

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testWindow(hours int) Window {
	start := time.Date(2010, 10, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.Add(time.Duration(hours) * time.Hour), OutputInterval: time.Hour}
}

func writeOutput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRoutingTimestep(t *testing.T) {
	tests := []struct {
		name         string
		routingSteps int
		want         time.Duration
		wantErr      bool
	}{
		// 10 model steps of 3600 s split across 40 routing rows
		{"subhourly", 40, 15 * time.Minute, false},
		{"hourly", 10, time.Hour, false},
		{"uneven", 39, 0, true},
		{"none", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := routingTimestep(tt.routingSteps, testWindow(10))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("step = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoutingAxis(t *testing.T) {
	w := testWindow(2)
	axis := routingAxis(w, 30*time.Minute)
	if len(axis) != 4 {
		t.Fatalf("axis length = %d", len(axis))
	}
	if !axis[0].Equal(w.Start.Add(30 * time.Minute)) {
		t.Errorf("axis[0] = %v, must start after the window start", axis[0])
	}
	if !axis[3].Equal(w.End) {
		t.Errorf("axis[3] = %v, want window end", axis[3])
	}
}

func TestCSVOutputV1(t *testing.T) {
	content := `,"(0, 'q')","(0, 'v')","(0, 'd')","(1, 'q')","(1, 'v')","(1, 'd')"
6680,1.5,9.0,9.0,2.5,9.0,9.0
6681,0.1,9.0,9.0,0.2,9.0,9.0
`
	path := writeOutput(t, "flowveldepth_Ngen.csv", content)
	fn, err := Detect(path, testWindow(2))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	s, err := fn(6680)
	if err != nil {
		t.Fatalf("fn(6680): %v", err)
	}
	if diff := cmp.Diff([]float64{1.5, 2.5}, s.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	// derived axis: (start, end] at the routing step
	want := hourlyAxis(testWindow(2).Start.Add(time.Hour), 2)
	if diff := cmp.Diff(want, s.Times); diff != "" {
		t.Errorf("axis mismatch (-want +got):\n%s", diff)
	}

	absent, err := fn(9999)
	if err != nil {
		t.Fatalf("fn(9999): %v", err)
	}
	if !absent.Empty() {
		t.Errorf("absent id = %+v, want empty", absent)
	}
}

func TestCSVOutputV1UnevenTimestep(t *testing.T) {
	// 7 routing steps cannot divide a 1-hour window of hourly output
	content := `,"(0, 'q')","(1, 'q')","(2, 'q')","(3, 'q')","(4, 'q')","(5, 'q')","(6, 'q')"
6680,1.0,2.0,3.0,4.0,5.0,6.0,7.0
`
	path := writeOutput(t, "flowveldepth_Ngen.csv", content)
	_, err := Detect(path, testWindow(1))
	if err == nil {
		t.Fatal("uneven routing timestep must fail")
	}
	if !strings.Contains(err.Error(), "not evenly divisible") {
		t.Errorf("error = %v", err)
	}
}

func TestStreamCSVV1(t *testing.T) {
	content := `,,t0,time,flow,velocity,depth,nudge
6680,wb,2010-10-01 00:00:00,1:00:00,1.5,0.0,0.0,-9999.0
6680,wb,2010-10-01 00:00:00,2:00:00,2.5,0.0,0.0,-9999.0
6680,wb,2010-10-01 00:00:00,1 days 0:00:00,9.5,0.0,0.0,-9999.0
`
	path := writeOutput(t, "troute_output_201010010000.csv", content)
	fn, err := Detect(path, testWindow(24))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	s, err := fn(6680)
	if err != nil {
		t.Fatalf("fn(6680): %v", err)
	}
	if diff := cmp.Diff([]float64{1.5, 2.5, 9.5}, s.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	day2 := time.Date(2010, 10, 2, 0, 0, 0, 0, time.UTC)
	if !s.Times[2].Equal(day2) {
		t.Errorf("day offset resolved to %v, want %v", s.Times[2], day2)
	}
}

func TestStreamCSVV2(t *testing.T) {
	content := `,,current_time,flow,velocity,depth,nudge
6680,wb,2010-10-01 1:00:00,1.5,0.0,0.0,-9999.0
6680,wb,2010-10-01 2:00:00,2.5,0.0,0.0,-9999.0
6681,wb,2010-10-01 1:00:00,0.1,0.0,0.0,-9999.0
`
	path := writeOutput(t, "troute_output_201010010000.csv", content)
	fn, err := Detect(path, testWindow(2))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	s, err := fn(6680)
	if err != nil {
		t.Fatalf("fn(6680): %v", err)
	}
	want := Series{
		Times: []time.Time{
			time.Date(2010, 10, 1, 1, 0, 0, 0, time.UTC),
			time.Date(2010, 10, 1, 2, 0, 0, 0, time.UTC),
		},
		Values: []float64{1.5, 2.5},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamCSVV2DuplicateTimestamp(t *testing.T) {
	content := `,,current_time,flow,velocity,depth,nudge
6680,wb,2010-10-01 1:00:00,1.5,0.0,0.0,-9999.0
6680,wb,2010-10-01 1:00:00,2.5,0.0,0.0,-9999.0
`
	path := writeOutput(t, "out.csv", content)
	fn, err := Detect(path, testWindow(2))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if _, err := fn(6680); err == nil {
		t.Fatal("duplicate timestamps for one waterbody must fail")
	}
}

func TestParseForecastOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"1:00:00", time.Hour, false},
		{"0:15:00", 15 * time.Minute, false},
		{"1 days 2:30:00", 26*time.Hour + 30*time.Minute, false},
		{"2 days 0:00:00", 48 * time.Hour, false},
		{"0:00:05.500000", 5*time.Second + 500*time.Millisecond, false},
		{"tomorrow", 0, true},
	}
	for _, tt := range tests {
		got, err := parseForecastOffset(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseForecastOffset(%q): err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseForecastOffset(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTupleColumn(t *testing.T) {
	step, variable, err := parseTupleColumn("(12, 'q')")
	if err != nil {
		t.Fatalf("parseTupleColumn: %v", err)
	}
	if step != 12 || variable != "q" {
		t.Errorf("got (%d, %q)", step, variable)
	}
	if _, _, err := parseTupleColumn("flow"); err == nil {
		t.Fatal("non-tuple label must fail")
	}
}
