// Package report renders aligned discharge series for human inspection:
// a static PNG hydrograph and a standalone interactive HTML chart.
package report

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ajkhattak/ngen-cal/internal/troute"
)

// LabeledSeries is one named trace on a hydrograph.
type LabeledSeries struct {
	Label  string
	Series troute.Series
}

// SavePNG renders the series as a hydrograph PNG at path. NaN samples
// (empty resample buckets) are skipped.
func SavePNG(path, title string, series ...LabeledSeries) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = "discharge (m3/s)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02 15:04"}
	p.Legend.Top = true

	for _, ls := range series {
		pts := make(plotter.XYs, 0, ls.Series.Len())
		for i, t := range ls.Series.Times {
			v := ls.Series.Values[i]
			if math.IsNaN(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(t.Unix()), Y: v})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build hydrograph trace %s: %v", ls.Label, err)
		}
		p.Add(line)
		p.Legend.Add(ls.Label, line)
	}

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save hydrograph %s: %v", path, err)
	}
	return nil
}
