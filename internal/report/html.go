package report

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// SaveHTML renders the series as a standalone interactive line chart. All
// series are drawn against the first one's time axis; NaN samples become
// gaps.
func SaveHTML(path, title string, series ...LabeledSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to chart")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	axis := make([]string, 0, series[0].Series.Len())
	for _, t := range series[0].Series.Times {
		axis = append(axis, t.Format("2006-01-02 15:04"))
	}
	line.SetXAxis(axis)

	for _, ls := range series {
		data := make([]opts.LineData, 0, ls.Series.Len())
		for _, v := range ls.Series.Values {
			if math.IsNaN(v) {
				data = append(data, opts.LineData{Value: nil})
			} else {
				data = append(data, opts.LineData{Value: v})
			}
		}
		line.AddSeries(ls.Label, data)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart %s: %v", path, err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return fmt.Errorf("failed to render chart %s: %v", path, err)
	}
	return nil
}
