package univariate

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/btracey/rootfind/common"
	"github.com/btracey/rootfind/write"
)

// Function is a real function of one real variable
type Function interface {
	Eval(x float64) float64
}

// Func allows an ordinary function to be used as a Function
type Func func(x float64) float64

func (f Func) Eval(x float64) float64 {
	return f(x)
}

// ErrNonFinite is returned (wrapped in an *EvalError) when the function,
// its derivative, or the estimate of the root is NaN or infinite
var ErrNonFinite = errors.New("non-finite value")

// EvalError reports where a non-finite value appeared
type EvalError struct {
	Func  string  // "f", "df", "x0" or "x"
	Loc   float64 // Location at which Func was evaluated (the previous estimate for "x")
	Value float64
	Iter  int
}

func (e *EvalError) Error() string {
	return "univariate: non-finite " + e.Func + " = " + strconv.FormatFloat(e.Value, 'g', -1, 64) +
		" at x = " + strconv.FormatFloat(e.Loc, 'g', -1, 64) +
		" (iteration " + strconv.Itoa(e.Iter) + ")"
}

func (e *EvalError) Unwrap() error {
	return ErrNonFinite
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Iteration is a single entry of the trace of a run
type Iteration struct {
	Index int     // Starts at one for the initial location
	Loc   float64 // Estimate of the root
	F     float64 // Function value at Loc
}

// Recorder receives every iteration of a run, starting with the initial location.
// Recorders are observational and cannot change the result.
type Recorder interface {
	Record(Iteration)
}

// RecorderFunc allows an ordinary function to be used as a Recorder
type RecorderFunc func(Iteration)

func (r RecorderFunc) Record(it Iteration) {
	r(it)
}

// Trace is a Recorder that keeps all of the iterations in order
type Trace struct {
	Iterations []Iteration
}

func (t *Trace) Record(it Iteration) {
	t.Iterations = append(t.Iterations, it)
}

// Settings is a structure containing settings for univariate
// root finders. Some settings may not apply to certain algorithms
type Settings struct {
	*common.CommonSettings
	*common.ToleranceSettings
	Recorders            []Recorder
	InitialFunctionValue float64 // The value of the function at the initial location. NaN means evaluate it
}

// DefaultSettings returns the default settings for univariate root finders.
// A run stops when |f(x)| < 1e-10, when |f'(x)| < 1e-10, or after 100
// iterations, and the trace is written to standard output.
func DefaultSettings() *Settings {
	return &Settings{
		CommonSettings:       common.DefaultCommonSettings(),
		ToleranceSettings:    common.DefaultToleranceSettings(),
		InitialFunctionValue: math.NaN(),
	}
}

// Validate checks that the settings can be used for a run
func (s *Settings) Validate() error {
	if s.CommonSettings == nil {
		return errors.New("univariate: nil CommonSettings")
	}
	if s.ToleranceSettings == nil {
		return errors.New("univariate: nil ToleranceSettings")
	}
	if s.MaximumIterations < 1 {
		return fmt.Errorf("univariate: MaximumIterations must be at least 1, got %d", s.MaximumIterations)
	}
	// NaN disables the function tolerance, but a negative one can never be met
	if s.FunctionAbsTol < 0 {
		return fmt.Errorf("univariate: negative FunctionAbsTol %v", s.FunctionAbsTol)
	}
	if math.IsNaN(s.DerivativeAbsTol) || s.DerivativeAbsTol < 0 {
		return fmt.Errorf("univariate: invalid DerivativeAbsTol %v", s.DerivativeAbsTol)
	}
	if s.LocChangeTol > 0 && s.LocChangeWindow < 2 {
		return fmt.Errorf("univariate: LocChangeWindow must be at least 2, got %d", s.LocChangeWindow)
	}
	return nil
}

// Helper is a helper struct for root finders. Not intended for use by
// callers of root finding functions, but exported to aid others who are building
// root finding algorithms
//
// Implementers should call Init() at the beginning of a run
// and should call Status() to check tolerances. After every step should call
// Iterate()
type Helper struct {
	*common.Common
	*common.RootTolerances

	recorders []Recorder

	locCurr float64
	fCurr   float64
}

// NewHelper creates a new helper and adds itself to the data adders
func NewHelper() *Helper {
	u := &Helper{
		Common:         common.NewCommon(),
		RootTolerances: common.NewRootTolerances(),
	}
	u.AddDataAdder(u, u.FunctionWrapper)
	return u
}

func (u *Helper) AppendWriteData(v []*write.Value) []*write.Value {
	v = append(v, &write.Value{Heading: "X", Value: u.locCurr})
	v = append(v, &write.Value{Heading: "F", Value: u.fCurr})
	return v
}

// Init starts a run at initLoc. nFunEvals is the number of evaluations
// spent finding initF.
func (u *Helper) Init(s *Settings, function interface{}, initLoc, initF float64, nFunEvals int) {
	u.locCurr = initLoc
	u.fCurr = initF
	u.recorders = s.Recorders

	u.Common.Init(s.CommonSettings, function, nFunEvals)
	u.RootTolerances.Init(s.ToleranceSettings, initLoc, initF)
	u.record()
}

func (u *Helper) Iterate(loc, f float64, nFunEvals int) {
	u.locCurr = loc
	u.fCurr = f

	u.Common.Iterate(nFunEvals)
	u.RootTolerances.Iterate(loc, f)
	u.record()
}

func (u *Helper) record() {
	it := Iteration{Index: u.Iter(), Loc: u.locCurr, F: u.fCurr}
	u.Logger().Debug("iteration",
		zap.Int("iter", it.Index),
		zap.Float64("x", it.Loc),
		zap.Float64("f", it.F),
	)
	for _, r := range u.recorders {
		r.Record(it)
	}
}

// Status checks convergence before the iteration and evaluation budgets
func (u *Helper) Status() common.Status {
	status := u.RootTolerances.Status()
	if status != common.Continue {
		return status
	}
	return u.Common.Status()
}

func (u *Helper) Result(status common.Status) *Result {
	return &Result{
		CommonResult: u.Common.Result(status),
		Loc:          u.locCurr,
		F:            u.fCurr,
		Deriv:        math.NaN(),
	}
}

// Result is the outcome of a run. Status tells whether Loc is a root
// (Status.Converged()), or the run stalled or ran out of budget, in which
// case Loc is the last estimate.
type Result struct {
	*common.CommonResult
	Loc   float64 // Final estimate of the root
	F     float64 // Function value at Loc
	Deriv float64 // Derivative at the start of the last step, NaN if no step was attempted
}
