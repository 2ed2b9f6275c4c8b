package troute

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ajkhattak/ngen-cal/internal/hydrofabric"
	"github.com/ajkhattak/ngen-cal/internal/monitoring"
)

// Output extracts the simulated discharge series for an evaluation nexus from
// a t-route output artifact and aligns it onto the model's comparison
// cadence.
type Output struct {
	Path   string
	Window Window
}

// NewOutput builds an extractor for one routing output artifact.
func NewOutput(path string, w Window) *Output {
	return &Output{Path: path, Window: w}
}

// GetOutput returns the hourly-aligned simulated discharge at the nexus.
//
// Two scenarios are tried in order:
//  1. Per-catchment routing output: sum the series of every contributing
//     catchment.
//  2. Routing output pre-aggregated at the nexus (t-route mask_output):
//     fetch by the nexus's own id.
//
// When both fail the first scenario's error is surfaced: "per-catchment
// output missing" is the diagnosis that matters, not the fallback's.
//
// A missing output file is not an error; it yields an empty series so the
// driver can decide how to score a failed simulation.
func (o *Output) GetOutput(nexus hydrofabric.Nexus) (Series, error) {
	if _, err := os.Stat(o.Path); err != nil {
		monitoring.Logf("routing output %s not found, returning no data", o.Path)
		return Series{}, nil
	}
	fn, err := Detect(o.Path, o.Window)
	if err != nil {
		return Series{}, err
	}

	ds, aggErr := o.sumContributing(fn, nexus)
	if aggErr != nil {
		direct, directErr := o.direct(fn, nexus)
		if directErr != nil {
			return Series{}, aggErr
		}
		monitoring.Logf("using nexus-aggregated routing flows for %s", nexus.ID)
		ds = direct
	} else {
		monitoring.Logf("aggregated contributing routing flows for %s", nexus.ID)
	}

	// The first model output lands at start + output_interval, never at t=0.
	from := o.Window.Start.Add(o.Window.OutputInterval)
	ds = ds.Slice(from, o.Window.End)
	return ds.ResampleHourlyFirst(), nil
}

func (o *Output) sumContributing(fn OutputFn, nexus hydrofabric.Nexus) (Series, error) {
	if len(nexus.Contributing) == 0 {
		return Series{}, fmt.Errorf("nexus %s has no contributing catchments", nexus.ID)
	}
	var sum Series
	for i, catchment := range nexus.Contributing {
		id, err := numericSuffix(catchment)
		if err != nil {
			return Series{}, err
		}
		s, err := fn(id)
		if err != nil {
			return Series{}, err
		}
		if s.Empty() {
			return Series{}, fmt.Errorf("no data for %d", id)
		}
		if i == 0 {
			sum = s
		} else {
			sum = sum.Add(s)
		}
	}
	return sum, nil
}

func (o *Output) direct(fn OutputFn, nexus hydrofabric.Nexus) (Series, error) {
	id, err := numericSuffix(nexus.ID)
	if err != nil {
		return Series{}, err
	}
	s, err := fn(id)
	if err != nil {
		return Series{}, err
	}
	if s.Empty() {
		return Series{}, fmt.Errorf("no data for %d", id)
	}
	return s, nil
}

// numericSuffix extracts the numeric part of a prefixed hydrofabric id
// ("cat-6680", "nex-6680", "wb-6680" -> 6680).
func numericSuffix(id string) (int, error) {
	cut := strings.LastIndex(id, "-")
	n, err := strconv.Atoi(id[cut+1:])
	if err != nil {
		return 0, fmt.Errorf("id %q has no numeric suffix: %v", id, err)
	}
	return n, nil
}
