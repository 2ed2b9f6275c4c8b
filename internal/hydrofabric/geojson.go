package hydrofabric

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LegacyFiles names the three standalone files of the pre-GeoPackage
// hydrofabric layout: catchment boundaries, nexus points, and a flat
// id-to-gauge crosswalk.
type LegacyFiles struct {
	Catchments string
	Nexuses    string
	Crosswalk  string
}

type geoFeature struct {
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type geoFeatureCollection struct {
	Features []geoFeature `json:"features"`
}

// OpenLegacy reads the legacy three-file GeoJSON hydrofabric. All three files
// are required; the crosswalk maps identifiers to objects whose gauge-number
// field may be a scalar or a non-empty list (first element used).
func OpenLegacy(files LegacyFiles) (*Graph, error) {
	if files.Catchments == "" {
		return nil, fmt.Errorf("missing geojson catchments file")
	}
	if files.Nexuses == "" {
		return nil, fmt.Errorf("missing geojson nexus file")
	}
	if files.Crosswalk == "" {
		return nil, fmt.Errorf("missing crosswalk file")
	}

	g := &Graph{
		Catchments: make(map[string]Catchment),
		Nexuses:    make(map[string]bool),
		Flowpaths:  make(map[string]Flowpath),
		Crosswalk:  make(map[string]string),
	}

	cats, err := readFeatureCollection(files.Catchments)
	if err != nil {
		return nil, err
	}
	for _, f := range cats.Features {
		id, toid := f.idAndToID()
		if id == "" {
			return nil, fmt.Errorf("catchment feature without id in %s", files.Catchments)
		}
		g.Catchments[id] = Catchment{ID: id, ToID: toid}
	}

	nexuses, err := readFeatureCollection(files.Nexuses)
	if err != nil {
		return nil, err
	}
	for _, f := range nexuses.Features {
		id, _ := f.idAndToID()
		if id == "" {
			return nil, fmt.Errorf("nexus feature without id in %s", files.Nexuses)
		}
		g.Nexuses[id] = true
	}

	if err := readLegacyCrosswalk(files.Crosswalk, g.Crosswalk); err != nil {
		return nil, err
	}
	return g, nil
}

func readFeatureCollection(path string) (*geoFeatureCollection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", path, err)
	}
	var fc geoFeatureCollection
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse geojson %s: %v", path, err)
	}
	return &fc, nil
}

// idAndToID pulls the feature id and downstream id, tolerating the mixed
// property-name casing found in legacy files (ID/Id/id, toID/toid, ...).
func (f geoFeature) idAndToID() (id, toid string) {
	id = f.ID
	for k, raw := range f.Properties {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		switch strings.ToLower(k) {
		case "id":
			if id == "" {
				id = s
			}
		case "toid":
			toid = s
		}
	}
	return id, toid
}

func readLegacyCrosswalk(path string, into map[string]string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read crosswalk %s: %v", path, err)
	}
	var entries map[string]struct {
		GageNo json.RawMessage `json:"Gage_no"`
	}
	if err := json.Unmarshal(b, &entries); err != nil {
		return fmt.Errorf("failed to parse crosswalk %s: %v", path, err)
	}
	for id, entry := range entries {
		if len(entry.GageNo) == 0 {
			continue
		}
		gauge, err := gaugeNumber(entry.GageNo)
		if err != nil {
			return fmt.Errorf("crosswalk entry %q: %v", id, err)
		}
		if gauge != "" {
			into[id] = gauge
		}
	}
	return nil
}

// gaugeNumber accepts a gauge-number field that is either a scalar string or
// a sequence of strings (first element wins).
func gaugeNumber(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", nil
		}
		return list[0], nil
	}
	return "", fmt.Errorf("gauge number is neither a string nor a list of strings: %s", raw)
}
