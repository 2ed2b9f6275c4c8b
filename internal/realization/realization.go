// Package realization models the ngen realization configuration document:
// the simulation time window, the global formulation tree, and per-catchment
// overrides. The document is read once at calibration start and rewritten
// every iteration with updated parameter values, so unknown keys are carried
// through load/save untouched.
package realization

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ajkhattak/ngen-cal/internal/param"
)

// UnsupportedFeatureError marks a realization using a feature the calibration
// core rejects at load time.
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported realization feature: %s", e.Feature)
}

const timeLayout = "2006-01-02 15:04:05"

// DateTime is a timestamp in the realization's "YYYY-MM-DD HH:MM:SS" wire
// format (RFC 3339 accepted on read).
type DateTime struct {
	time.Time
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(timeLayout))
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	if err != nil {
		return fmt.Errorf("failed to parse realization time %q: %v", s, err)
	}
	d.Time = t
	return nil
}

// Time is the simulation window and nominal model output cadence.
type Time struct {
	StartTime      DateTime `json:"start_time"`
	EndTime        DateTime `json:"end_time"`
	OutputInterval int      `json:"output_interval"` // seconds
}

// Realization is the top-level realization document.
type Realization struct {
	Time         Time                        `json:"time"`
	GlobalConfig *CatchmentConfig            `json:"global,omitempty"`
	Catchments   map[string]*CatchmentConfig `json:"catchments,omitempty"`
	Routing      json.RawMessage             `json:"routing,omitempty"`
	OutputRoot   string                      `json:"output_root,omitempty"`

	extra map[string]json.RawMessage
}

// CatchmentConfig is one realization node: the global configuration or one
// catchment's override. The optional calibration block declares the
// adjustable parameters per sub-model for the explicit strategy.
type CatchmentConfig struct {
	Formulations []Formulation                `json:"formulations"`
	Forcing      *Forcing                     `json:"forcing,omitempty"`
	Calibration  map[string][]param.Parameter `json:"calibration,omitempty"`

	extra map[string]json.RawMessage
}

// Load reads and validates a realization document.
func Load(path string) (*Realization, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read realization %s: %v", path, err)
	}
	var r Realization
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("failed to parse realization %s: %v", path, err)
	}
	if r.OutputRoot != "" {
		return nil, &UnsupportedFeatureError{Feature: "output_root"}
	}
	return &r, nil
}

// Save writes the document back to path in the simulator's on-disk format.
func (r *Realization) Save(path string) error {
	b, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize realization: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write realization %s: %v", path, err)
	}
	return nil
}

// Clone deep-copies a catchment configuration node.
func (c *CatchmentConfig) Clone() (*CatchmentConfig, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to clone configuration: %v", err)
	}
	var out CatchmentConfig
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to clone configuration: %v", err)
	}
	return &out, nil
}

// Module returns the node's formulation module. Every realization node
// carries exactly one formulation by ngen convention.
func (c *CatchmentConfig) Module() (*Module, error) {
	if len(c.Formulations) == 0 || c.Formulations[0].Params == nil {
		return nil, fmt.Errorf("configuration node has no formulation")
	}
	return c.Formulations[0].Params, nil
}

func (r *Realization) UnmarshalJSON(b []byte) error {
	type alias Realization
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	a.extra = extraFields(b, "time", "global", "catchments", "routing", "output_root")
	*r = Realization(a)
	return nil
}

func (r Realization) MarshalJSON() ([]byte, error) {
	type alias Realization
	return mergeExtra(alias(r), r.extra)
}

func (c *CatchmentConfig) UnmarshalJSON(b []byte) error {
	type alias CatchmentConfig
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	a.extra = extraFields(b, "formulations", "forcing", "calibration")
	*c = CatchmentConfig(a)
	return nil
}

func (c CatchmentConfig) MarshalJSON() ([]byte, error) {
	type alias CatchmentConfig
	return mergeExtra(alias(c), c.extra)
}

// extraFields collects the keys of b not claimed by known field names.
func extraFields(b []byte, known ...string) map[string]json.RawMessage {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// mergeExtra marshals v and splices the retained unknown keys back in.
func mergeExtra(v interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return b, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
