package univariate

import "math"

type RootTestFunction struct {
	F       Func
	DF      Func
	InitLoc float64
	Root    float64 // NaN if there is no real root
	Name    string
}

func RootTestFunctions() []RootTestFunction {
	return []RootTestFunction{
		{
			F:       math.Sin,
			DF:      math.Cos,
			InitLoc: 0.1,
			Root:    0,
			Name:    "sin",
		},
		{
			F:       func(x float64) float64 { return x*x + 2*x - math.Cos(x) },
			DF:      func(x float64) float64 { return 2*x + 2 + math.Sin(x) },
			InitLoc: 0.1,
			Root:    0.38772212025498526,
			Name:    "quadcos",
		},
		{
			F:       func(x float64) float64 { return (x - 3) * (x + 2) },
			DF:      func(x float64) float64 { return 2*x - 1 },
			InitLoc: 10,
			Root:    3,
			Name:    "quadratic",
		},
		{
			F:       func(x float64) float64 { return x*x*x - 2*x - 5 },
			DF:      func(x float64) float64 { return 3*x*x - 2 },
			InitLoc: 2,
			Root:    2.0945514815423265,
			Name:    "wallis",
		},
	}
}

// quiet returns default settings without any trace output
func quiet() *Settings {
	s := DefaultSettings()
	s.WriteSettings = nil
	return s
}

// hooked counts the calls to the optional hooks of a function
type hooked struct {
	Func
	inits   int
	results int
}

func (h *hooked) Init()   { h.inits++ }
func (h *hooked) Result() { h.results++ }
