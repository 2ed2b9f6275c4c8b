// Package hydrofabric loads watershed connectivity data (catchments, nexuses,
// flowpaths, gauge crosswalk) from a GeoPackage hydrofabric or the legacy
// three-file GeoJSON layout, and indexes it for calibration target
// construction. Geometry is never materialized; rows are carried by id only.
package hydrofabric

import (
	"fmt"
	"sort"
	"strings"
)

// Catchment is one divide row: the smallest simulated land unit, draining to
// the nexus named by ToID.
type Catchment struct {
	ID   string
	ToID string
}

// Flowpath is one flowpath/flowline row. Flowpath ids use the "wb-" prefix
// and pair 1:1 with "cat-" catchment ids.
type Flowpath struct {
	ID   string
	ToID string
}

// Nexus is a confluence point realized for evaluation: an optional bound
// gauge and the ids of the catchments contributing flow to it.
type Nexus struct {
	ID           string
	Gauge        string // empty when ungauged
	Contributing []string
}

// Gauged reports whether a streamflow gauge is bound to this nexus.
func (n Nexus) Gauged() bool { return n.Gauge != "" }

// Graph is the in-memory index over one hydrofabric. It is read-only after
// load and safe to share across calibration iterations.
type Graph struct {
	Version    Version
	Catchments map[string]Catchment
	Nexuses    map[string]bool
	Flowpaths  map[string]Flowpath
	// Crosswalk maps a flowpath (or, for the legacy layout, catchment) id to
	// its gauge identifier. At most one gauge per id; absence means ungauged.
	Crosswalk map[string]string
}

// CatchmentIDs returns all catchment ids in sorted order.
func (g *Graph) CatchmentIDs() []string {
	ids := make([]string, 0, len(g.Catchments))
	for id := range g.Catchments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GaugeFor resolves a flow-path/catchment identifier to its gauge id.
func (g *Graph) GaugeFor(id string) (string, bool) {
	gauge, ok := g.Crosswalk[id]
	return gauge, ok
}

// ContributingTo returns the sorted ids of catchments draining to nexusID.
func (g *Graph) ContributingTo(nexusID string) []string {
	var ids []string
	for id, c := range g.Catchments {
		if c.ToID == nexusID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// FlowpathTo returns a flowpath draining to nexusID. When several match the
// lexicographically first is returned; ok is false when none do or the
// hydrofabric carries no flowpath table (legacy GeoJSON).
func (g *Graph) FlowpathTo(nexusID string) (Flowpath, bool) {
	var match Flowpath
	found := false
	for _, fp := range g.Flowpaths {
		if fp.ToID != nexusID {
			continue
		}
		if !found || fp.ID < match.ID {
			match = fp
			found = true
		}
	}
	return match, found
}

// GaugedNexuses realizes a Nexus for every gauged crosswalk entry: the
// flowpath id is normalized to its catchment id, the downstream nexus looked
// up, and all catchments sharing that nexus collected as contributors.
// Entries sharing a nexus collapse to one Nexus.
func (g *Graph) GaugedNexuses() ([]Nexus, error) {
	ids := make([]string, 0, len(g.Crosswalk))
	for id := range g.Crosswalk {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seen := make(map[string]bool)
	var nexuses []Nexus
	for _, wbID := range ids {
		catID := WaterbodyToCatchment(wbID)
		cat, ok := g.Catchments[catID]
		if !ok {
			return nil, fmt.Errorf("crosswalk entry %q has no matching catchment %q", wbID, catID)
		}
		if seen[cat.ToID] {
			continue
		}
		seen[cat.ToID] = true
		nexuses = append(nexuses, Nexus{
			ID:           cat.ToID,
			Gauge:        g.Crosswalk[wbID],
			Contributing: g.ContributingTo(cat.ToID),
		})
	}
	return nexuses, nil
}

// FindEvalFeature filters candidate nexuses by an evaluation feature string,
// which may be a nexus id ("nex-"), a flowpath or catchment id ("wb-"/"cat-",
// translated to "cat-"), or a bare gauge identifier.
//
// When selected by catchment id, only that catchment remains a contributor:
// the comparison is pinned at that divide, not the whole confluence.
func FindEvalFeature(feature string, nexuses []Nexus) []Nexus {
	if strings.HasPrefix(feature, "wb-") {
		feature = WaterbodyToCatchment(feature)
	}

	var candidates []Nexus
	for _, n := range nexuses {
		switch {
		case strings.HasPrefix(feature, "nex-"):
			if feature == n.ID {
				candidates = append(candidates, n)
			}
		case strings.HasPrefix(feature, "cat-"):
			for _, id := range n.Contributing {
				if feature == id {
					pinned := n
					pinned.Contributing = []string{id}
					candidates = append(candidates, pinned)
					break
				}
			}
		default:
			if feature == n.Gauge {
				candidates = append(candidates, n)
			}
		}
	}
	return candidates
}

// WaterbodyToCatchment translates a "wb-" flowpath id to its "cat-" twin.
// Flowpath wb-x pairs with catchment cat-x by hydrofabric convention.
func WaterbodyToCatchment(id string) string {
	return strings.Replace(id, "wb", "cat", 1)
}

// CatchmentToWaterbody translates a "cat-" catchment id to its "wb-" twin.
func CatchmentToWaterbody(id string) string {
	return strings.Replace(id, "cat", "wb", 1)
}
