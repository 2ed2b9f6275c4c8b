package calibration

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ajkhattak/ngen-cal/internal/param"
	"github.com/ajkhattak/ngen-cal/internal/realization"
)

// transientOutputGlob matches the per-run routing artifacts cleared before
// each iteration so a failed run cannot be scored against stale output.
const transientOutputGlob = "*NEXOUT.parquet"

// Rewriter writes iteration parameter values into the realization document
// and serializes it back to the path the simulator reads. It borrows a
// target's parameter table transiently; the only persistent effect of Apply
// is the file on disk.
type Rewriter struct {
	Realization *realization.Realization
	// FileName is the realization file name written under the work
	// directory (the name the simulator was told to read).
	FileName string
}

// Apply writes iteration i's parameter values into the configuration node for
// id ("" selects the global node), saves the document under dir, and clears
// transient routing artifacts from dir.
func (w *Rewriter) Apply(i int, table *param.Table, id string, dir string) error {
	var node *realization.CatchmentConfig
	if id == "" {
		node = w.Realization.GlobalConfig
		if node == nil {
			return fmt.Errorf("realization has no global configuration to update")
		}
	} else {
		node = w.Realization.Catchments[id]
		if node == nil {
			return fmt.Errorf("realization has no configuration for catchment %s", id)
		}
	}
	module, err := node.Module()
	if err != nil {
		return err
	}

	if module.Composite() {
		for _, sub := range module.SubModules() {
			rows := table.ModelGroup(sub.ModelName)
			if len(rows) == 0 {
				continue
			}
			values, err := iterationValues(rows, i)
			if err != nil {
				return err
			}
			sub.SetModelParams(values)
		}
	} else {
		rows := table.ModelGroup(module.ModelName)
		if len(rows) == 0 {
			return fmt.Errorf("parameter table has no rows for model %s", module.ModelName)
		}
		values, err := iterationValues(rows, i)
		if err != nil {
			return err
		}
		module.SetModelParams(values)
	}

	if err := w.Realization.Save(filepath.Join(dir, w.FileName)); err != nil {
		return err
	}
	return ClearTransientOutputs(dir)
}

// ApplyTarget rewrites every configuration node a target owns: each member
// catchment for single/aggregate targets, the global node for a global one.
func (w *Rewriter) ApplyTarget(i int, t *Target, dir string) error {
	if t.Kind == Global {
		return w.Apply(i, t.Params, "", dir)
	}
	for _, id := range t.CatchmentIDs {
		if err := w.Apply(i, t.Params, id, dir); err != nil {
			return err
		}
	}
	return nil
}

func iterationValues(rows []*param.Row, i int) (map[string]float64, error) {
	values := make(map[string]float64, len(rows))
	for _, r := range rows {
		v, ok := r.Value(i)
		if !ok {
			return nil, fmt.Errorf("iteration column %q missing for parameter %s/%s", strconv.Itoa(i), r.Model, r.Param)
		}
		values[r.Param] = v
	}
	return values, nil
}

// ClearTransientOutputs removes leftover per-run routing artifacts from dir.
// Idempotent: no matches is success.
func ClearTransientOutputs(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, transientOutputGlob))
	if err != nil {
		return fmt.Errorf("failed to glob transient outputs: %v", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove transient output %s: %v", m, err)
		}
	}
	return nil
}
