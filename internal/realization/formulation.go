package realization

import "encoding/json"

// MultiBMIName is the model_type_name of the composite BMI formulation.
const MultiBMIName = "bmi_multi"

// Formulation is one named entry of a node's formulation list.
type Formulation struct {
	Name   string  `json:"name"`
	Params *Module `json:"params"`
}

// Module is a node of the formulation tree: either a leaf BMI model with its
// own parameter map, or a composite multi-BMI module with ordered sub-modules.
// Keys this package does not model (init_config, library_file, ...) survive a
// load/save round trip via extra.
type Module struct {
	ModelName          string                 `json:"model_type_name"`
	MainOutputVariable string                 `json:"main_output_variable,omitempty"`
	ModelParams        map[string]interface{} `json:"model_params,omitempty"`
	Modules            []Formulation          `json:"modules,omitempty"`

	extra map[string]json.RawMessage
}

// Composite reports whether the module carries sub-modules rather than being
// a leaf model.
func (m *Module) Composite() bool {
	return m.ModelName == MultiBMIName || len(m.Modules) > 0
}

// SubModules returns the ordered sub-modules of a composite node, or a
// single-element list holding the leaf itself.
func (m *Module) SubModules() []*Module {
	if !m.Composite() {
		return []*Module{m}
	}
	out := make([]*Module, 0, len(m.Modules))
	for i := range m.Modules {
		if m.Modules[i].Params != nil {
			out = append(out, m.Modules[i].Params)
		}
	}
	return out
}

// SetModelParams replaces the leaf module's parameter map.
func (m *Module) SetModelParams(values map[string]float64) {
	params := make(map[string]interface{}, len(values))
	for k, v := range values {
		params[k] = v
	}
	m.ModelParams = params
}

func (m *Module) UnmarshalJSON(b []byte) error {
	type alias Module
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	a.extra = extraFields(b, "model_type_name", "main_output_variable", "model_params", "modules")
	*m = Module(a)
	return nil
}

func (m Module) MarshalJSON() ([]byte, error) {
	type alias Module
	return mergeExtra(alias(m), m.extra)
}
