package troute

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Window is the declared simulation window and nominal model output interval,
// needed to reconstruct wall-clock axes for formats that store only offsets.
type Window struct {
	Start          time.Time
	End            time.Time
	OutputInterval time.Duration
}

// OutputFn fetches the discharge series for one numeric location id. A
// location absent from the artifact yields an empty series, not an error.
type OutputFn func(id int) (Series, error)

// UnsupportedFormatError reports an output artifact no detection rule
// matched, carrying the rejected evidence.
type UnsupportedFormatError struct {
	Path      string
	Extension string
	Header    string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Header != "" {
		return fmt.Sprintf("unsupported t-route output %s: unrecognized header %q", e.Path, e.Header)
	}
	return fmt.Sprintf("unsupported t-route output filetype %q: %s", e.Extension, e.Path)
}

// A detection rule pairs a predicate over (extension, header) with a parser
// constructor. Rules are evaluated in order; the first match wins.
type rule struct {
	name  string
	match func(ext, header string) bool
	open  func(path string, w Window) (OutputFn, error)
}

var rules = []rule{
	{
		// csv_output v1: ,"(0, 'q')","(0, 'v')","(0, 'd')",...
		name:  "csv_output v1",
		match: func(ext, header string) bool { return ext == ".csv" && strings.HasPrefix(header, `,"(0, 'q')"`) },
		open:  openCSVOutputV1,
	},
	{
		// stream_output csv v1: ,,t0,time,flow,velocity,depth,nudge
		name:  "stream_output csv v1",
		match: func(ext, header string) bool { return ext == ".csv" && strings.Contains(header, "t0") },
		open:  openStreamCSVV1,
	},
	{
		// stream_output csv v2: ,,current_time,flow,velocity,depth,nudge
		name:  "stream_output csv v2",
		match: func(ext, header string) bool { return ext == ".csv" && strings.Contains(header, "current_time") },
		open:  openStreamCSVV2,
	},
	{
		name:  "stream_output netcdf v1",
		match: func(ext, header string) bool { return ext == ".nc" },
		open:  openStreamNetCDFV1,
	},
	{
		name:  "stream_output parquet v1",
		match: func(ext, header string) bool { return ext == ".parquet" },
		open:  openStreamParquetV1,
	},
}

// Detect inspects path and returns the matching parser. Unknown extensions
// and unrecognized csv headers are *UnsupportedFormatError.
func Detect(path string, w Window) (OutputFn, error) {
	ext := strings.ToLower(filepath.Ext(path))
	header := ""
	if ext == ".csv" {
		h, err := readHeaderLine(path)
		if err != nil {
			return nil, err
		}
		header = h
	}
	for _, r := range rules {
		if r.match(ext, header) {
			return r.open(path, w)
		}
	}
	return nil, &UnsupportedFormatError{Path: path, Extension: ext, Header: header}
}

func readHeaderLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open output %s: %v", path, err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read header of %s: %v", path, err)
		}
		return "", fmt.Errorf("output file %s is empty", path)
	}
	return strings.TrimSpace(scanner.Text()), nil
}
