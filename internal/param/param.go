// Package param holds the calibration parameter space: an ordered table of
// (sub-model, parameter) rows with bounds, a starting value, and one value
// column per optimizer iteration. The composite (model, parameter) key keeps
// identically-named parameters of different sub-models distinct.
package param

import (
	"fmt"
	"sort"
	"strconv"
)

// Parameter is one adjustable parameter declaration.
type Parameter struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Init float64 `json:"init"`
}

// Row is one table entry. Values is keyed by the stringified iteration index,
// matching the optimizer's column contract.
type Row struct {
	Model  string
	Param  string
	Min    float64
	Max    float64
	Init   float64
	Values map[string]float64
}

// Value returns the row's value for iteration i.
func (r *Row) Value(i int) (float64, bool) {
	v, ok := r.Values[strconv.Itoa(i)]
	return v, ok
}

// SetValue records the row's value for iteration i.
func (r *Row) SetValue(i int, v float64) {
	if r.Values == nil {
		r.Values = make(map[string]float64)
	}
	r.Values[strconv.Itoa(i)] = v
}

// Table is the parameter space for one calibration target. Row order is fixed
// at build time; only per-iteration values mutate afterwards.
type Table struct {
	rows  []*Row
	index map[string]*Row
}

func rowKey(model, name string) string { return model + "\x00" + name }

// Build flattens a model-name -> parameter-list specification into a table.
// With no filter, all models are included in sorted name order; with a
// filter, models are appended in the given order and absent names contribute
// nothing. Declaration order within a model is preserved.
func Build(spec map[string][]Parameter, models ...string) *Table {
	if len(models) == 0 {
		models = make([]string, 0, len(spec))
		for m := range spec {
			models = append(models, m)
		}
		sort.Strings(models)
	}

	t := &Table{index: make(map[string]*Row)}
	for _, model := range models {
		for _, p := range spec[model] {
			t.append(&Row{
				Model:  model,
				Param:  p.Name,
				Min:    p.Min,
				Max:    p.Max,
				Init:   p.Init,
				Values: make(map[string]float64),
			})
		}
	}
	return t
}

func (t *Table) append(r *Row) {
	key := rowKey(r.Model, r.Param)
	if _, ok := t.index[key]; ok {
		return
	}
	t.rows = append(t.rows, r)
	t.index[key] = r
}

// Concat appends other's rows, keeping the receiver's on key collisions.
func (t *Table) Concat(other *Table) {
	for _, r := range other.rows {
		t.append(r)
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the ordered rows. The slice is shared; callers must not
// reorder it.
func (t *Table) Rows() []*Row { return t.rows }

// Get looks up a row by its composite key.
func (t *Table) Get(model, name string) (*Row, bool) {
	r, ok := t.index[rowKey(model, name)]
	return r, ok
}

// ModelGroup returns the rows belonging to one sub-model, in table order.
func (t *Table) ModelGroup(model string) []*Row {
	var out []*Row
	for _, r := range t.rows {
		if r.Model == model {
			out = append(out, r)
		}
	}
	return out
}

// Bounds returns the per-row lower and upper bounds in table order, the shape
// the optimizer consumes.
func (t *Table) Bounds() (min, max []float64) {
	min = make([]float64, len(t.rows))
	max = make([]float64, len(t.rows))
	for i, r := range t.rows {
		min[i] = r.Min
		max[i] = r.Max
	}
	return min, max
}

// Seed fills iteration i's column with each row's starting value.
func (t *Table) Seed(i int) {
	for _, r := range t.rows {
		r.SetValue(i, r.Init)
	}
}

// Flatten returns iteration i's values as a vector in table order. Every row
// must carry a value for i.
func (t *Table) Flatten(i int) ([]float64, error) {
	out := make([]float64, len(t.rows))
	for j, r := range t.rows {
		v, ok := r.Value(i)
		if !ok {
			return nil, fmt.Errorf("iteration column %q missing for parameter %s/%s", strconv.Itoa(i), r.Model, r.Param)
		}
		out[j] = v
	}
	return out, nil
}

// Unflatten writes the optimizer's vector for iteration i back into the
// table. The vector length must match the row count exactly.
func (t *Table) Unflatten(i int, values []float64) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("parameter vector has %d values, table has %d rows", len(values), len(t.rows))
	}
	for j, r := range t.rows {
		r.SetValue(i, values[j])
	}
	return nil
}
