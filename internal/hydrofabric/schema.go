package hydrofabric

import (
	"database/sql"
	"fmt"
	"sort"
)

// Version identifies a hydrofabric GeoPackage schema generation.
type Version int

const (
	// V20 covers hydrofabric releases up to 2.1: tables 'flowpaths' and
	// 'flowpath_attributes', gauges under 'rl_gages'.
	V20 Version = iota + 1
	// V21 covers 2.1.x: tables 'flowlines' and 'flowpath-attributes'.
	V21
	// V22 covers 2.2 and later: tables 'flowpaths' and 'flowpath-attributes',
	// gauges under 'gage'.
	V22
)

func (v Version) String() string {
	switch v {
	case V20:
		return "2.0"
	case V21:
		return "2.1"
	case V22:
		return "2.2"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

// SchemaDetectionError reports an indeterminate hydrofabric schema, carrying
// the table names that were observed so the mismatch can be diagnosed.
type SchemaDetectionError struct {
	Path   string
	Tables []string
}

func (e *SchemaDetectionError) Error() string {
	return fmt.Sprintf("could not determine hydrofabric version of %s: observed tables %v", e.Path, e.Tables)
}

// DetectSchema probes the table names of an opened GeoPackage and returns the
// schema generation. The two flow* table names present distinguish the three
// known generations; fewer than two candidates or an unknown pair is a
// *SchemaDetectionError.
func DetectSchema(db *sql.DB, path string) (Version, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name LIKE 'flow%'`)
	if err != nil {
		return 0, fmt.Errorf("failed to query table names from %s: %v", path, err)
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return 0, fmt.Errorf("failed to scan table name: %v", err)
		}
		tables[name] = true
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read table names from %s: %v", path, err)
	}

	if len(tables) < 2 {
		return 0, &SchemaDetectionError{Path: path, Tables: sortedKeys(tables)}
	}

	switch {
	case len(tables) == 2 && tables["flowpaths"] && tables["flowpath_attributes"]:
		return V20, nil
	case len(tables) == 2 && tables["flowlines"] && tables["flowpath-attributes"]:
		return V21, nil
	case len(tables) == 2 && tables["flowpaths"] && tables["flowpath-attributes"]:
		return V22, nil
	}
	return 0, &SchemaDetectionError{Path: path, Tables: sortedKeys(tables)}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
