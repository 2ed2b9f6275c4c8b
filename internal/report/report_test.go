package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ajkhattak/ngen-cal/internal/troute"
)

func sampleSeries() []LabeledSeries {
	start := time.Date(2015, 12, 1, 1, 0, 0, 0, time.UTC)
	sim := troute.Series{
		Times:  []time.Time{start, start.Add(time.Hour), start.Add(2 * time.Hour)},
		Values: []float64{1.5, math.NaN(), 2.5},
	}
	obs := troute.Series{
		Times:  sim.Times,
		Values: []float64{1.2, 1.8, 2.2},
	}
	return []LabeledSeries{
		{Label: "simulated", Series: sim},
		{Label: "observed", Series: obs},
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydrograph.png")
	if err := SavePNG(path, "discharge at nex-10", sampleSeries()...); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("rendered PNG is empty")
	}
}

func TestSaveHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydrograph.html")
	if err := SaveHTML(path, "discharge at nex-10", sampleSeries()...); err != nil {
		t.Fatalf("SaveHTML: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	html := string(b)
	for _, want := range []string{"simulated", "observed", "discharge at nex-10"} {
		if !strings.Contains(html, want) {
			t.Errorf("chart missing %q", want)
		}
	}
}

func TestSaveHTMLNoSeries(t *testing.T) {
	if err := SaveHTML(filepath.Join(t.TempDir(), "empty.html"), "empty"); err == nil {
		t.Fatal("charting zero series must fail")
	}
}
