package param

// Catalog returns the conventional calibration parameter set for a known
// sub-model, or nil. Bounds and starting values follow the ranges commonly
// used when calibrating these modules under ngen; they are a convenience for
// building a parameter specification, not a constraint.
func Catalog(model string) []Parameter {
	switch model {
	case "CFE":
		return []Parameter{
			{Name: "b", Min: 0.0, Max: 21.94, Init: 4.05},
			{Name: "satdk", Min: 0.0, Max: 0.000726, Init: 3.38e-06},
			{Name: "satpsi", Min: 0.0, Max: 0.995, Init: 0.355},
			{Name: "slope", Min: 0.0, Max: 1.0, Init: 0.01},
			{Name: "maxsmc", Min: 0.20554, Max: 0.6, Init: 0.439},
			{Name: "wltsmc", Min: 0.0, Max: 0.138, Init: 0.066},
			{Name: "expon", Min: 1.0, Max: 8.0, Init: 6.0},
			{Name: "Cgw", Min: 1.8e-06, Max: 0.0018, Init: 1.8e-05},
			{Name: "Kn", Min: 0.0, Max: 1.0, Init: 0.03},
			{Name: "Klf", Min: 0.0, Max: 1.0, Init: 0.01},
		}
	case "NoahOWP":
		return []Parameter{
			{Name: "refkdt", Min: 0.1, Max: 4.0, Init: 3.0},
			{Name: "slope", Min: 0.0, Max: 1.0, Init: 0.5},
		}
	case "SacSMA", "SacSma":
		return []Parameter{
			{Name: "uztwm", Min: 10, Max: 300, Init: 75},
			{Name: "uzfwm", Min: 5, Max: 150, Init: 30},
			{Name: "lztwm", Min: 10, Max: 500, Init: 150},
			{Name: "lzfsm", Min: 5, Max: 400, Init: 25},
			{Name: "lzfpm", Min: 10, Max: 1000, Init: 120},
			{Name: "uzk", Min: 0.1, Max: 0.75, Init: 0.3},
			{Name: "lzsk", Min: 0.01, Max: 0.35, Init: 0.05},
			{Name: "lzpk", Min: 0.001, Max: 0.05, Init: 0.01},
			{Name: "zperc", Min: 1, Max: 350, Init: 40},
			{Name: "rexp", Min: 1, Max: 5, Init: 2},
			{Name: "pfree", Min: 0, Max: 0.8, Init: 0.1},
		}
	case "Snow17":
		return []Parameter{
			{Name: "mfmax", Min: 0.5, Max: 2.0, Init: 1.0},
			{Name: "mfmin", Min: 0.05, Max: 0.49, Init: 0.2},
			{Name: "uadj", Min: 0.03, Max: 0.19, Init: 0.05},
			{Name: "scf", Min: 0.7, Max: 1.4, Init: 1.0},
			{Name: "pxtemp", Min: -2.0, Max: 2.0, Init: 1.0},
		}
	}
	return nil
}
