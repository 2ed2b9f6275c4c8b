package hydrofabric

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testGraph wires three catchments into two nexuses; wb-1 and wb-2 share
// nex-10, wb-3 drains to nex-20. Gauges sit on wb-1 and wb-3.
func testGraph() *Graph {
	return &Graph{
		Catchments: map[string]Catchment{
			"cat-1": {ID: "cat-1", ToID: "nex-10"},
			"cat-2": {ID: "cat-2", ToID: "nex-10"},
			"cat-3": {ID: "cat-3", ToID: "nex-20"},
		},
		Nexuses: map[string]bool{"nex-10": true, "nex-20": true},
		Flowpaths: map[string]Flowpath{
			"wb-1": {ID: "wb-1", ToID: "nex-10"},
			"wb-2": {ID: "wb-2", ToID: "nex-10"},
			"wb-3": {ID: "wb-3", ToID: "nex-20"},
		},
		Crosswalk: map[string]string{"wb-1": "01646500", "wb-3": "02146562"},
	}
}

func TestGaugedNexuses(t *testing.T) {
	got, err := testGraph().GaugedNexuses()
	if err != nil {
		t.Fatalf("GaugedNexuses: %v", err)
	}
	want := []Nexus{
		{ID: "nex-10", Gauge: "01646500", Contributing: []string{"cat-1", "cat-2"}},
		{ID: "nex-20", Gauge: "02146562", Contributing: []string{"cat-3"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GaugedNexuses mismatch (-want +got):\n%s", diff)
	}
}

func TestGaugedNexusesUnmatchedCrosswalk(t *testing.T) {
	g := testGraph()
	g.Crosswalk["wb-99"] = "09999999"
	if _, err := g.GaugedNexuses(); err == nil {
		t.Fatal("expected error for crosswalk entry without catchment")
	}
}

func TestFindEvalFeature(t *testing.T) {
	nexuses, err := testGraph().GaugedNexuses()
	if err != nil {
		t.Fatalf("GaugedNexuses: %v", err)
	}

	tests := []struct {
		name    string
		feature string
		wantIDs []string
	}{
		{"nexus id", "nex-20", []string{"nex-20"}},
		{"gauge id", "01646500", []string{"nex-10"}},
		{"catchment id", "cat-3", []string{"nex-20"}},
		{"flowpath id translated", "wb-1", []string{"nex-10"}},
		{"no match", "nex-99", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindEvalFeature(tt.feature, nexuses)
			var ids []string
			for _, n := range got {
				ids = append(ids, n.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("FindEvalFeature(%q) mismatch (-want +got):\n%s", tt.feature, diff)
			}
		})
	}
}

func TestFindEvalFeatureByCatchmentPinsContribution(t *testing.T) {
	nexuses, err := testGraph().GaugedNexuses()
	if err != nil {
		t.Fatalf("GaugedNexuses: %v", err)
	}
	got := FindEvalFeature("cat-2", nexuses)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	// only the named catchment contributes, not its nexus siblings
	if diff := cmp.Diff([]string{"cat-2"}, got[0].Contributing); diff != "" {
		t.Errorf("contributing mismatch (-want +got):\n%s", diff)
	}
}

func TestFlowpathTo(t *testing.T) {
	g := testGraph()
	fp, ok := g.FlowpathTo("nex-10")
	if !ok || fp.ID != "wb-1" {
		t.Errorf("FlowpathTo(nex-10) = %v, %v; want wb-1 (first by id)", fp, ok)
	}
	if _, ok := g.FlowpathTo("nex-99"); ok {
		t.Error("FlowpathTo(nex-99) should not match")
	}
}

func TestPrefixTranslation(t *testing.T) {
	if got := WaterbodyToCatchment("wb-42"); got != "cat-42" {
		t.Errorf("WaterbodyToCatchment = %q", got)
	}
	if got := CatchmentToWaterbody("cat-42"); got != "wb-42" {
		t.Errorf("CatchmentToWaterbody = %q", got)
	}
}
