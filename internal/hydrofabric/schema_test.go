package hydrofabric

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func makeDB(t *testing.T, tables ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "hf.gpkg"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	for _, name := range tables {
		if _, err := db.Exec(`CREATE TABLE "` + name + `" (id TEXT)`); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	return db
}

func TestDetectSchema(t *testing.T) {
	tests := []struct {
		name    string
		tables  []string
		want    Version
		wantErr bool
	}{
		{"hydrofabric 2.0", []string{"flowpaths", "flowpath_attributes", "divides", "nexus"}, V20, false},
		{"hydrofabric 2.1", []string{"flowlines", "flowpath-attributes", "divides", "nexus"}, V21, false},
		{"hydrofabric 2.2", []string{"flowpaths", "flowpath-attributes", "divides", "nexus"}, V22, false},
		{"mixed pair", []string{"flowlines", "flowpath_attributes"}, 0, true},
		{"three flow tables", []string{"flowpaths", "flowlines", "flowpath-attributes"}, 0, true},
		{"single flow table", []string{"flowpaths"}, 0, true},
		{"no flow tables", []string{"divides", "nexus"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := makeDB(t, tt.tables...)
			got, err := DetectSchema(db, "hf.gpkg")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DetectSchema(%v) = %v, want error", tt.tables, got)
				}
				var detectErr *SchemaDetectionError
				if !errors.As(err, &detectErr) {
					t.Fatalf("error is %T, want *SchemaDetectionError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectSchema(%v): %v", tt.tables, err)
			}
			if got != tt.want {
				t.Errorf("DetectSchema(%v) = %v, want %v", tt.tables, got, tt.want)
			}
		})
	}
}

func TestSchemaDetectionErrorCarriesEvidence(t *testing.T) {
	db := makeDB(t, "flowlines", "flowpath_attributes")
	_, err := DetectSchema(db, "basin.gpkg")
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"basin.gpkg", "flowlines", "flowpath_attributes"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}
