package realization

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Forcing is a node's forcing source: either a concrete file path, or a
// directory plus a file_pattern template resolved per catchment.
type Forcing struct {
	Path        string `json:"path"`
	FilePattern string `json:"file_pattern,omitempty"`

	extra map[string]json.RawMessage
}

// ResolvePattern substitutes the {{id}} / {{ID}} placeholder tokens of the
// file_pattern with catchmentID, matches the result against the entries of
// the forcing directory, and rewrites Path to the first match. The pattern is
// cleared either way: ngen does not apply pattern resolution to per-catchment
// configs and would read the directory path as a file. A pattern with no
// match leaves Path pointing at the directory; that only becomes fatal when
// the simulator tries to read it.
func (f *Forcing) ResolvePattern(catchmentID string) error {
	pattern := f.FilePattern
	f.FilePattern = ""
	if pattern == "" {
		return nil
	}

	pattern = strings.ReplaceAll(pattern, "{{id}}", catchmentID)
	pattern = strings.ReplaceAll(pattern, "{{ID}}", catchmentID)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("failed to compile forcing file pattern %q: %v", pattern, err)
	}

	entries, err := os.ReadDir(f.Path)
	if err != nil {
		return fmt.Errorf("failed to list forcing directory %s: %v", f.Path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if re.MatchString(name) {
			resolved, err := filepath.Abs(filepath.Join(f.Path, name))
			if err != nil {
				return fmt.Errorf("failed to resolve forcing file %s: %v", name, err)
			}
			f.Path = resolved
			return nil
		}
	}
	return nil
}

func (f *Forcing) UnmarshalJSON(b []byte) error {
	type alias Forcing
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	a.extra = extraFields(b, "path", "file_pattern")
	*f = Forcing(a)
	return nil
}

func (f Forcing) MarshalJSON() ([]byte, error) {
	type alias Forcing
	return mergeExtra(alias(f), f.extra)
}
