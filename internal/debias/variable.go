package debias

// Variable identifies a climate quantity by its canonical CMIP short name.
// It is an immutable lookup key into the per-method default tables and
// carries no behavior.
type Variable struct {
	Name        string
	Unit        string
	Description string
}

// Standard variables with CMIP naming, matching the conventions of CMIP6
// model output and the ERA5 reanalysis.
var (
	Tas     = Variable{Name: "tas", Unit: "K", Description: "daily mean near-surface air temperature"}
	Tasmin  = Variable{Name: "tasmin", Unit: "K", Description: "daily minimum near-surface air temperature"}
	Tasmax  = Variable{Name: "tasmax", Unit: "K", Description: "daily maximum near-surface air temperature"}
	Pr      = Variable{Name: "pr", Unit: "kg m-2 s-1", Description: "precipitation flux"}
	Hurs    = Variable{Name: "hurs", Unit: "%", Description: "near-surface relative humidity"}
	Psl     = Variable{Name: "psl", Unit: "Pa", Description: "sea level pressure"}
	SfcWind = Variable{Name: "sfcWind", Unit: "m s-1", Description: "near-surface wind speed"}
)

var variablesByName = map[string]Variable{
	Tas.Name:     Tas,
	Tasmin.Name:  Tasmin,
	Tasmax.Name:  Tasmax,
	Pr.Name:      Pr,
	Hurs.Name:    Hurs,
	Psl.Name:     Psl,
	SfcWind.Name: SfcWind,
}

// VariableFromName resolves a canonical variable name. Unknown names are a
// ConfigurationError.
func VariableFromName(name string) (Variable, error) {
	v, ok := variablesByName[name]
	if !ok {
		return Variable{}, configErrorf("unknown variable %q", name)
	}
	return v, nil
}
