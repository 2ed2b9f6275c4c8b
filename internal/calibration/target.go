package calibration

import (
	"fmt"
	"sort"

	"github.com/ajkhattak/ngen-cal/internal/hydrofabric"
	"github.com/ajkhattak/ngen-cal/internal/monitoring"
	"github.com/ajkhattak/ngen-cal/internal/param"
	"github.com/ajkhattak/ngen-cal/internal/realization"
)

// Kind tags the calibration target variant.
type Kind int

const (
	// Single is one catchment with its own parameter slice (explicit).
	Single Kind = iota + 1
	// Aggregate is many catchments sharing one parameter slice, evaluated at
	// one gauged nexus (independent).
	Aggregate
	// Global is the whole hydrofabric under one shared parameter slice
	// (uniform).
	Global
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Aggregate:
		return "aggregate"
	case Global:
		return "global"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Target is one calibration unit: the catchments whose parameters move
// together, the shared parameter table, and the single evaluation nexus the
// simulated series is extracted at. Catchment and nexus data are referenced
// by id into the watershed graph, never copied.
type Target struct {
	Kind Kind
	// CatchmentIDs lists the member catchments whose realization configs are
	// rewritten each iteration. Empty for Global, which rewrites the global
	// configuration only.
	CatchmentIDs []string
	Params       *param.Table
	Nexus        hydrofabric.Nexus
	// OutputVariable is the formulation's main output variable (explicit
	// strategy only).
	OutputVariable string
}

// BuildTargets constructs the calibration targets for the configured
// strategy. Every returned target has exactly one evaluation nexus; zero or
// ambiguous candidates fail construction.
func BuildTargets(cfg *Config, g *hydrofabric.Graph, r *realization.Realization) ([]*Target, error) {
	switch cfg.Strategy {
	case StrategyExplicit:
		return buildExplicit(g, r)
	case StrategyIndependent:
		return buildIndependent(cfg, g, r)
	case StrategyUniform:
		return buildUniform(cfg, g)
	}
	return nil, fmt.Errorf("unknown calibration strategy %q", cfg.Strategy)
}

// paramsForModule flattens a parameter specification against a formulation
// module: composite modules concatenate each sub-model's parameters in module
// order, leaf modules take only their own model's.
func paramsForModule(spec map[string][]param.Parameter, m *realization.Module) *param.Table {
	if !m.Composite() {
		return param.Build(spec, m.ModelName)
	}
	models := make([]string, 0, len(m.Modules))
	for _, sub := range m.SubModules() {
		models = append(models, sub.ModelName)
	}
	return param.Build(spec, models...)
}

// buildExplicit walks the realization's per-catchment overrides and produces
// one Single target for every catchment declaring a calibration block. A
// declared catchment that cannot be resolved to a gauge or a nexus is fatal.
func buildExplicit(g *hydrofabric.Graph, r *realization.Realization) ([]*Target, error) {
	ids := make([]string, 0, len(r.Catchments))
	for id := range r.Catchments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var targets []*Target
	for _, id := range ids {
		cc := r.Catchments[id]
		if cc.Calibration == nil {
			continue
		}
		fabric, ok := g.Catchments[id]
		if !ok {
			continue
		}
		gauge, ok := g.GaugeFor(id)
		if !ok {
			return nil, fmt.Errorf("cannot establish mapping of catchment %s to gauge location in cross walk", id)
		}
		if !g.Nexuses[fabric.ToID] {
			return nil, fmt.Errorf("no suitable nexus found for catchment %s", id)
		}
		module, err := cc.Module()
		if err != nil {
			return nil, fmt.Errorf("catchment %s: %v", id, err)
		}
		targets = append(targets, &Target{
			Kind:         Single,
			CatchmentIDs: []string{id},
			Params:       paramsForModule(cc.Calibration, module),
			Nexus: hydrofabric.Nexus{
				ID:           fabric.ToID,
				Gauge:        gauge,
				Contributing: []string{id},
			},
			OutputVariable: module.MainOutputVariable,
		})
	}
	return targets, nil
}

// buildIndependent clones the global configuration onto every catchment in
// the graph (resolving forcing file patterns per catchment), collects the
// gauged nexuses as evaluation candidates, and produces one Aggregate target
// over the whole set. Ungauged catchments still participate as
// simulated-but-unobserved members.
func buildIndependent(cfg *Config, g *hydrofabric.Graph, r *realization.Realization) ([]*Target, error) {
	if cfg.Params == nil {
		return nil, fmt.Errorf("independent strategy requires a params mapping")
	}
	if r.GlobalConfig == nil {
		return nil, fmt.Errorf("independent strategy requires a global configuration to clone")
	}

	ids := g.CatchmentIDs()
	overrides := make(map[string]*realization.CatchmentConfig, len(ids))
	for _, id := range ids {
		clone, err := r.GlobalConfig.Clone()
		if err != nil {
			return nil, fmt.Errorf("catchment %s: %v", id, err)
		}
		if clone.Forcing != nil {
			if err := clone.Forcing.ResolvePattern(id); err != nil {
				return nil, fmt.Errorf("catchment %s: %v", id, err)
			}
		}
		overrides[id] = clone
	}
	// The rewriter serializes these per-catchment configs from here on.
	r.Catchments = overrides

	var evalCandidates []hydrofabric.Nexus
	for _, id := range ids {
		fabric := g.Catchments[id]
		if !g.Nexuses[fabric.ToID] {
			return nil, fmt.Errorf("no suitable nexus found for catchment %s", id)
		}
		// Prefer the flowpath-keyed crosswalk entry, fall back to the raw id.
		gauge, ok := g.GaugeFor(hydrofabric.CatchmentToWaterbody(id))
		if !ok {
			gauge, ok = g.GaugeFor(id)
		}
		if ok {
			evalCandidates = append(evalCandidates, hydrofabric.Nexus{
				ID:           fabric.ToID,
				Gauge:        gauge,
				Contributing: []string{id},
			})
		}
	}

	if cfg.EvalFeature != "" {
		for _, n := range evalCandidates {
			fp, ok := g.FlowpathTo(n.ID)
			if ok && fp.ID == cfg.EvalFeature {
				evalCandidates = []hydrofabric.Nexus{n}
				break
			}
		}
	}
	if len(evalCandidates) != 1 {
		return nil, fmt.Errorf("currently only a single nexus in the hydrofabric can be gauged (found %d), set the eval_feature key to pick one", len(evalCandidates))
	}
	monitoring.Logf("independent strategy: %d catchments, evaluating at %s (gauge %s)",
		len(ids), evalCandidates[0].ID, evalCandidates[0].Gauge)

	module, err := r.GlobalConfig.Module()
	if err != nil {
		return nil, err
	}
	return []*Target{{
		Kind:         Aggregate,
		CatchmentIDs: ids,
		Params:       paramsForModule(cfg.Params, module),
		Nexus:        evalCandidates[0],
	}}, nil
}

// buildUniform produces the one Global target: the whole hydrofabric under
// the global configuration, evaluated at the single gauged nexus (or the one
// picked by eval_feature).
func buildUniform(cfg *Config, g *hydrofabric.Graph) ([]*Target, error) {
	if cfg.Params == nil {
		return nil, fmt.Errorf("uniform strategy requires a params mapping")
	}
	nexuses, err := g.GaugedNexuses()
	if err != nil {
		return nil, err
	}
	if cfg.EvalFeature != "" {
		nexuses = hydrofabric.FindEvalFeature(cfg.EvalFeature, nexuses)
	}
	if len(nexuses) != 1 {
		return nil, fmt.Errorf("currently only a single nexus in the hydrofabric can be gauged (found %d), set the eval_feature key to pick one", len(nexuses))
	}
	return []*Target{{
		Kind:   Global,
		Params: param.Build(cfg.Params),
		Nexus:  nexuses[0],
	}}, nil
}
