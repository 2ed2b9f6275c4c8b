package hydrofabric

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ajkhattak/ngen-cal/internal/monitoring"
)

// OpenGeoPackage reads a GeoPackage hydrofabric, detects its schema
// generation, and loads the catchment, nexus, flowpath, and gauge-crosswalk
// tables into a Graph. The three generations differ in flowpath table and
// gauge column naming; all normalize to the same Graph shape.
func OpenGeoPackage(path string) (*Graph, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hydrofabric %s: %v", path, err)
	}
	defer db.Close()

	version, err := DetectSchema(db, path)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("hydrofabric %s: schema generation %s", path, version)

	g := &Graph{
		Version:    version,
		Catchments: make(map[string]Catchment),
		Nexuses:    make(map[string]bool),
		Flowpaths:  make(map[string]Flowpath),
		Crosswalk:  make(map[string]string),
	}

	if err := loadDivides(db, g); err != nil {
		return nil, err
	}
	if err := loadNexuses(db, g); err != nil {
		return nil, err
	}

	flowpathTable := "flowpaths"
	if version == V21 {
		flowpathTable = "flowlines"
	}
	if err := loadFlowpaths(db, g, flowpathTable); err != nil {
		return nil, err
	}

	switch version {
	case V20:
		err = loadCrosswalk(db, g, "flowpath_attributes", "id", "rl_gages")
	case V21:
		// 2.1 releases shipped with either (id, rl_gages) or (link, gage)
		// column naming in flowpath-attributes; accept both. The column set
		// must be probed up front: sqlite resolves an unknown double-quoted
		// identifier as a string literal, so selecting a missing column
		// returns constant garbage instead of an error.
		var cols map[string]bool
		cols, err = tableColumns(db, "flowpath-attributes")
		if err == nil {
			switch {
			case cols["rl_gages"]:
				err = loadCrosswalk(db, g, "flowpath-attributes", "id", "rl_gages")
			case cols["gage"]:
				err = loadCrosswalk(db, g, "flowpath-attributes", "link", "gage")
			default:
				err = fmt.Errorf("flowpath-attributes has no gauge column (rl_gages or gage)")
			}
		}
	case V22:
		err = loadCrosswalk(db, g, "flowpath-attributes", "id", "gage")
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func loadDivides(db *sql.DB, g *Graph) error {
	rows, err := db.Query(`SELECT divide_id, toid FROM divides`)
	if err != nil {
		return fmt.Errorf("failed to read divides table: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, toid string
		if err := rows.Scan(&id, &toid); err != nil {
			return fmt.Errorf("failed to scan divide row: %v", err)
		}
		g.Catchments[id] = Catchment{ID: id, ToID: toid}
	}
	return rows.Err()
}

func loadNexuses(db *sql.DB, g *Graph) error {
	rows, err := db.Query(`SELECT id FROM nexus`)
	if err != nil {
		return fmt.Errorf("failed to read nexus table: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan nexus row: %v", err)
		}
		g.Nexuses[id] = true
	}
	return rows.Err()
}

func loadFlowpaths(db *sql.DB, g *Graph, table string) error {
	rows, err := db.Query(fmt.Sprintf(`SELECT id, toid FROM %q`, table))
	if err != nil {
		return fmt.Errorf("failed to read %s table: %v", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, toid string
		if err := rows.Scan(&id, &toid); err != nil {
			return fmt.Errorf("failed to scan %s row: %v", table, err)
		}
		g.Flowpaths[id] = Flowpath{ID: id, ToID: toid}
	}
	return rows.Err()
}

// tableColumns returns the column names of table per PRAGMA table_info.
func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s columns: %v", table, err)
	}
	defer rows.Close()
	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan %s column info: %v", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func loadCrosswalk(db *sql.DB, g *Graph, table, idCol, gaugeCol string) error {
	q := fmt.Sprintf(`SELECT %q, %q FROM %q WHERE %q IS NOT NULL`, idCol, gaugeCol, table, gaugeCol)
	rows, err := db.Query(q)
	if err != nil {
		return fmt.Errorf("failed to read %s crosswalk (%s/%s): %v", table, idCol, gaugeCol, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, gauge string
		if err := rows.Scan(&id, &gauge); err != nil {
			return fmt.Errorf("failed to scan crosswalk row: %v", err)
		}
		if gauge == "" {
			continue
		}
		g.Crosswalk[id] = gauge
	}
	return rows.Err()
}
