package troute

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// routingTimestep derives the routing-native timestep from the number of
// routing rows observed per location. The model reports its first output at
// start + OutputInterval, so the window holds (end-start)/interval model
// steps; the routing step must divide the model interval exactly or the
// artifact is inconsistent with the configuration.
func routingTimestep(routingSteps int, w Window) (time.Duration, error) {
	if routingSteps <= 0 {
		return 0, fmt.Errorf("routing output has no timesteps")
	}
	modelSteps := int(w.End.Sub(w.Start) / w.OutputInterval)
	if modelSteps <= 0 {
		return 0, fmt.Errorf("simulation window %s..%s holds no output interval of %s", w.Start, w.End, w.OutputInterval)
	}
	intervalSeconds := int64(w.OutputInterval / time.Second)
	total := intervalSeconds * int64(modelSteps)
	if total%int64(routingSteps) != 0 {
		return 0, fmt.Errorf("routing timestep is not evenly divisible by the model output interval: %d routing steps over %d model steps of %ds", routingSteps, modelSteps, intervalSeconds)
	}
	return time.Duration(total/int64(routingSteps)) * time.Second, nil
}

// routingAxis builds the wall-clock axis (start, end] at the routing step.
func routingAxis(w Window, step time.Duration) []time.Time {
	var axis []time.Time
	for t := w.Start.Add(step); !t.After(w.End); t = t.Add(step) {
		axis = append(axis, t)
	}
	return axis
}

// openCSVOutputV1 parses the offset-table encoding: one row per waterbody,
// one column per (timestep, variable) pair, no time axis in the file.
//
//	header: ,"(0, 'q')","(0, 'v')","(0, 'd')",...
//	row   : 2420800,0.0,0.0,0.0,...
func openCSVOutputV1(path string, w Window) (OutputFn, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	header := records[0]

	// Columns carrying discharge ('q'), keyed by timestep.
	type qColumn struct {
		step  int
		index int
	}
	var qCols []qColumn
	steps := make(map[int]bool)
	for i, col := range header[1:] {
		step, variable, err := parseTupleColumn(col)
		if err != nil {
			return nil, fmt.Errorf("failed to parse column %q of %s: %v", col, path, err)
		}
		steps[step] = true
		if variable == "q" {
			qCols = append(qCols, qColumn{step: step, index: i + 1})
		}
	}
	sort.Slice(qCols, func(i, j int) bool { return qCols[i].step < qCols[j].step })

	step, err := routingTimestep(len(steps), w)
	if err != nil {
		return nil, err
	}
	axis := routingAxis(w, step)
	if len(axis) != len(qCols) {
		return nil, fmt.Errorf("routing output %s has %d discharge columns but the window spans %d routing steps", path, len(qCols), len(axis))
	}

	flows := make(map[int][]float64, len(records)-1)
	for _, rec := range records[1:] {
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse waterbody id %q in %s: %v", rec[0], path, err)
		}
		values := make([]float64, len(qCols))
		for i, c := range qCols {
			v, err := strconv.ParseFloat(rec[c.index], 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse discharge for waterbody %d step %d: %v", id, c.step, err)
			}
			values[i] = v
		}
		flows[id] = values
	}

	return func(id int) (Series, error) {
		values, ok := flows[id]
		if !ok {
			return Series{}, nil
		}
		return Series{Times: axis, Values: values}, nil
	}, nil
}

// parseTupleColumn splits a "(12, 'q')" column label into its timestep index
// and variable name.
func parseTupleColumn(s string) (int, string, error) {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, "')") {
		return 0, "", fmt.Errorf("not a (step, 'var') label")
	}
	inner := s[1 : len(s)-2]
	parts := strings.SplitN(inner, ",", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("not a (step, 'var') label")
	}
	step, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, "", fmt.Errorf("bad timestep index: %v", err)
	}
	variable := strings.TrimPrefix(strings.TrimSpace(parts[1]), "'")
	return step, variable, nil
}

// openStreamCSVV1 parses the reference-time encoding: value time is the t0
// reference time plus a forecast offset.
//
//	header: ,,t0,time,flow,velocity,depth,nudge
//	row   : 6680,wb,2010-10-01 00:00:00,1:00:00,0.0,0.0,0.0,-9999.0
func openStreamCSVV1(path string, _ Window) (OutputFn, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(records[0], "t0", "time", "flow")
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}

	flows := make(map[int]Series)
	for _, rec := range records[1:] {
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse waterbody id %q in %s: %v", rec[0], path, err)
		}
		t0, err := parseTimestamp(rec[cols["t0"]])
		if err != nil {
			return nil, fmt.Errorf("failed to parse reference time in %s: %v", path, err)
		}
		offset, err := parseForecastOffset(rec[cols["time"]])
		if err != nil {
			return nil, fmt.Errorf("failed to parse forecast offset in %s: %v", path, err)
		}
		flow, err := strconv.ParseFloat(rec[cols["flow"]], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse flow in %s: %v", path, err)
		}
		s := flows[id]
		s.Times = append(s.Times, t0.Add(offset))
		s.Values = append(s.Values, flow)
		flows[id] = s
	}
	return streamLookup(flows), nil
}

// openStreamCSVV2 parses the absolute-timestamp encoding.
//
//	header: ,,current_time,flow,velocity,depth,nudge
//	row   : 6680,wb,2010-10-01 1:00:00,0.0,0.0,0.0,-9999.0
func openStreamCSVV2(path string, _ Window) (OutputFn, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(records[0], "current_time", "flow")
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}

	flows := make(map[int]Series)
	for _, rec := range records[1:] {
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse waterbody id %q in %s: %v", rec[0], path, err)
		}
		t, err := parseTimestamp(rec[cols["current_time"]])
		if err != nil {
			return nil, fmt.Errorf("failed to parse current_time in %s: %v", path, err)
		}
		flow, err := strconv.ParseFloat(rec[cols["flow"]], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse flow in %s: %v", path, err)
		}
		s := flows[id]
		s.Times = append(s.Times, t)
		s.Values = append(s.Values, flow)
		flows[id] = s
	}
	return streamLookup(flows), nil
}

func streamLookup(flows map[int]Series) OutputFn {
	return func(id int) (Series, error) {
		s, ok := flows[id]
		if !ok {
			return Series{}, nil
		}
		return sortAndValidate(s, fmt.Sprintf("waterbody %d", id))
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output %s: %v", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv %s: %v", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("output file %s is empty", path)
	}
	return records, nil
}

func columnIndex(header []string, names ...string) (map[string]int, error) {
	cols := make(map[string]int, len(names))
	for _, name := range names {
		found := false
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				cols[name] = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseForecastOffset parses t-route forecast offsets: "H:MM:SS" with an
// optional "D days " prefix and optional fractional seconds.
func parseForecastOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var days int
	if i := strings.Index(s, "day"); i >= 0 {
		d, err := strconv.Atoi(strings.TrimSpace(s[:i]))
		if err != nil {
			return 0, fmt.Errorf("unrecognized offset %q", s)
		}
		days = d
		rest := s[i+len("day"):]
		rest = strings.TrimPrefix(rest, "s")
		s = strings.TrimSpace(rest)
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("unrecognized offset %q", s)
	}
	hours, err1 := strconv.Atoi(parts[0])
	minutes, err2 := strconv.Atoi(parts[1])
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, fmt.Errorf("unrecognized offset %q", s)
	}
	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second)), nil
}
