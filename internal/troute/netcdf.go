package troute

import (
	"fmt"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
)

// openStreamNetCDFV1 parses the gridded binary encoding: a "flow" data
// variable over (time, feature_id) coordinates (either dimension order).
func openStreamNetCDFV1(path string, _ Window) (OutputFn, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open netcdf output %s: %v", path, err)
	}
	defer nc.Close()

	flow, err := nc.GetVariable("flow")
	if err != nil {
		return nil, fmt.Errorf("netcdf output %s has no flow variable: %v", path, err)
	}
	features, err := nc.GetVariable("feature_id")
	if err != nil {
		return nil, fmt.Errorf("netcdf output %s has no feature_id coordinate: %v", path, err)
	}
	timeVar, err := nc.GetVariable("time")
	if err != nil {
		return nil, fmt.Errorf("netcdf output %s has no time coordinate: %v", path, err)
	}

	featureIDs, err := asInts(features.Values)
	if err != nil {
		return nil, fmt.Errorf("netcdf output %s: feature_id: %v", path, err)
	}
	offsets, err := asFloats(timeVar.Values)
	if err != nil {
		return nil, fmt.Errorf("netcdf output %s: time: %v", path, err)
	}
	axis, err := decodeTimeAxis(offsets, timeVar.Attributes)
	if err != nil {
		return nil, fmt.Errorf("netcdf output %s: %v", path, err)
	}

	grid, err := asFloatGrid(flow.Values)
	if err != nil {
		return nil, fmt.Errorf("netcdf output %s: flow: %v", path, err)
	}
	// Accept both (time, feature_id) and (feature_id, time) layouts; the
	// dimension names say which one the writer used.
	timeMajor := len(flow.Dimensions) == 2 && flow.Dimensions[0] == "time"
	if err := checkGridShape(grid, timeMajor, len(axis), len(featureIDs)); err != nil {
		return nil, fmt.Errorf("netcdf output %s: %v", path, err)
	}

	index := make(map[int]int, len(featureIDs))
	for i, id := range featureIDs {
		index[id] = i
	}

	return func(id int) (Series, error) {
		col, ok := index[id]
		if !ok {
			return Series{}, nil
		}
		values := make([]float64, len(axis))
		for t := range axis {
			if timeMajor {
				values[t] = grid[t][col]
			} else {
				values[t] = grid[col][t]
			}
		}
		return sortAndValidate(Series{Times: axis, Values: values}, fmt.Sprintf("feature %d", id))
	}, nil
}

func checkGridShape(grid [][]float64, timeMajor bool, nTimes, nFeatures int) error {
	rows, cols := nFeatures, nTimes
	if timeMajor {
		rows, cols = nTimes, nFeatures
	}
	if len(grid) != rows || (rows > 0 && len(grid[0]) != cols) {
		return fmt.Errorf("flow variable shape does not match %d times x %d features", nTimes, nFeatures)
	}
	return nil
}

// decodeTimeAxis converts CF-convention time offsets ("<unit>s since
// <timestamp>") to wall-clock timestamps.
func decodeTimeAxis(offsets []float64, attrs netcdfAttributes) ([]time.Time, error) {
	units, ok := attributeString(attrs, "units")
	if !ok {
		return nil, fmt.Errorf("time coordinate has no units attribute")
	}
	parts := strings.SplitN(units, " since ", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("unrecognized time units %q", units)
	}
	var unit time.Duration
	switch strings.TrimSpace(parts[0]) {
	case "seconds", "second", "s":
		unit = time.Second
	case "minutes", "minute", "min":
		unit = time.Minute
	case "hours", "hour", "h":
		unit = time.Hour
	case "days", "day", "d":
		unit = 24 * time.Hour
	default:
		return nil, fmt.Errorf("unrecognized time units %q", units)
	}
	epoch, err := parseTimestamp(parts[1])
	if err != nil {
		return nil, fmt.Errorf("unrecognized time units %q: %v", units, err)
	}
	axis := make([]time.Time, len(offsets))
	for i, off := range offsets {
		axis[i] = epoch.Add(time.Duration(off * float64(unit)))
	}
	return axis, nil
}

// netcdfAttributes is the slice of the library's attribute map we consume.
type netcdfAttributes interface {
	Get(key string) (interface{}, bool)
}

func attributeString(attrs netcdfAttributes, key string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func asInts(v interface{}) ([]int, error) {
	switch vals := v.(type) {
	case []int16:
		out := make([]int, len(vals))
		for i, x := range vals {
			out[i] = int(x)
		}
		return out, nil
	case []int32:
		out := make([]int, len(vals))
		for i, x := range vals {
			out[i] = int(x)
		}
		return out, nil
	case []int64:
		out := make([]int, len(vals))
		for i, x := range vals {
			out[i] = int(x)
		}
		return out, nil
	case []float64:
		out := make([]int, len(vals))
		for i, x := range vals {
			out[i] = int(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func asFloats(v interface{}) ([]float64, error) {
	switch vals := v.(type) {
	case []float32:
		out := make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
		return out, nil
	case []float64:
		return vals, nil
	case []int32:
		out := make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func asFloatGrid(v interface{}) ([][]float64, error) {
	switch vals := v.(type) {
	case [][]float64:
		return vals, nil
	case [][]float32:
		out := make([][]float64, len(vals))
		for i, row := range vals {
			out[i] = make([]float64, len(row))
			for j, x := range row {
				out[i][j] = float64(x)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}
