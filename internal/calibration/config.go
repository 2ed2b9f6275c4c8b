// Package calibration builds calibration targets from a hydrofabric and a
// realization, maps optimizer parameter vectors back into realization
// documents, and keeps per-run bookkeeping. It is single-threaded by design:
// the external driver loop guarantees iterations never overlap.
package calibration

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ajkhattak/ngen-cal/internal/hydrofabric"
	"github.com/ajkhattak/ngen-cal/internal/param"
)

// Strategy selects how the adjustable set is constructed.
type Strategy string

const (
	// StrategyUniform permutes one global parameter space applied to every
	// catchment.
	StrategyUniform Strategy = "uniform"
	// StrategyExplicit calibrates only catchments that declare a calibration
	// block in the realization, each independently.
	StrategyExplicit Strategy = "explicit"
	// StrategyIndependent gives every catchment its own configuration cloned
	// from the global one, all sharing one parameter space.
	StrategyIndependent Strategy = "independent"
)

// DefaultRoutingOutput is the routing output file ngen writes when the
// routing configuration does not override it.
const DefaultRoutingOutput = "flowveldepth_Ngen.csv"

// Config is the calibration-side model-exec configuration.
type Config struct {
	Strategy    Strategy `json:"strategy"`
	Realization string   `json:"realization"`

	// Either a GeoPackage hydrofabric, or the legacy three-file layout.
	Hydrofabric string `json:"hydrofabric,omitempty"`
	Catchments  string `json:"catchments,omitempty"`
	Nexus       string `json:"nexus,omitempty"`
	Crosswalk   string `json:"crosswalk,omitempty"`

	EvalFeature   string                       `json:"eval_feature,omitempty"`
	RoutingOutput string                       `json:"routing_output,omitempty"`
	Params        map[string][]param.Parameter `json:"params,omitempty"`

	Binary     string `json:"binary,omitempty"`
	Args       string `json:"args,omitempty"`
	Parallel   int    `json:"parallel,omitempty"`
	Partitions string `json:"partitions,omitempty"`
	Workdir    string `json:"workdir,omitempty"`
}

// LoadConfig reads a calibration configuration and applies defaults.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration config %s: %v", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse calibration config %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints and fills defaulted fields.
func (c *Config) Validate() error {
	if c.Parallel > 1 && c.Partitions == "" {
		return fmt.Errorf("must provide partitions if using parallel")
	}
	if c.Realization == "" {
		return fmt.Errorf("missing realization file")
	}
	if c.Hydrofabric == "" && c.Catchments == "" && c.Nexus == "" && c.Crosswalk == "" {
		return fmt.Errorf("must provide a geopackage hydrofabric or catchment, nexus, and crosswalk geojson files")
	}
	switch c.Strategy {
	case StrategyUniform, StrategyExplicit, StrategyIndependent:
	case "":
		return fmt.Errorf("missing calibration strategy")
	default:
		return fmt.Errorf("unknown calibration strategy %q", c.Strategy)
	}

	if c.RoutingOutput == "" {
		c.RoutingOutput = DefaultRoutingOutput
	}
	if c.Workdir == "" {
		c.Workdir = "."
	}
	if c.Binary == "" {
		c.Binary = "ngen"
	}

	customArgs := c.Args != ""
	if !customArgs {
		name := filepath.Base(c.Realization)
		if c.Hydrofabric != "" {
			c.Args = fmt.Sprintf(`%s "all" %s "all" %s`, c.Hydrofabric, c.Hydrofabric, name)
		} else {
			c.Args = fmt.Sprintf(`%s "all" %s "all" %s`, c.Catchments, c.Nexus, name)
		}
	}
	if c.Parallel > 0 && c.Partitions != "" {
		c.Binary = fmt.Sprintf("mpirun -n %d %s", c.Parallel, c.Binary)
		if !customArgs {
			c.Args += " " + c.Partitions
		}
	}

	// eval_feature may also come from the environment.
	if c.EvalFeature == "" {
		c.EvalFeature = os.Getenv("eval_feature")
	}
	return nil
}

// OpenGraph loads the watershed graph named by the configuration.
func (c *Config) OpenGraph() (*hydrofabric.Graph, error) {
	if c.Hydrofabric != "" {
		return hydrofabric.OpenGeoPackage(c.Hydrofabric)
	}
	return hydrofabric.OpenLegacy(hydrofabric.LegacyFiles{
		Catchments: c.Catchments,
		Nexuses:    c.Nexus,
		Crosswalk:  c.Crosswalk,
	})
}

// BackupRealization copies the realization file aside before the first
// rewrite clobbers it.
func (c *Config) BackupRealization() error {
	src, err := os.Open(c.Realization)
	if err != nil {
		return fmt.Errorf("failed to open realization %s: %v", c.Realization, err)
	}
	defer src.Close()
	dst, err := os.Create(c.Realization + "_original")
	if err != nil {
		return fmt.Errorf("failed to create realization backup: %v", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to back up realization: %v", err)
	}
	return nil
}
