package univariate

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/btracey/rootfind/common"
)

// Method represents a root finding method which uses the derivative
type Method interface {
	Init(s *Settings, f, df Function, initLoc, initF float64) error
	Status() common.Status
	// Iterate takes one step. If the method stops without moving, its
	// Status must report why before the next call.
	Iterate() (loc float64, f float64, nFunEvals int, err error)
	// Result does any cleanup needed
	Result()
}

// Sloper is implemented by methods that evaluate the derivative
type Sloper interface {
	Slope() float64
}

// Wrapper is a convenience wrapper around a root finding method that
// allows more fine-grained control over the progress of a run. See FindRoot
// for example usage
type Wrapper struct {
	method Method
	helper *Helper
}

func NewWrapper(method Method) *Wrapper {
	return &Wrapper{
		method: method,
		helper: NewHelper(),
	}
}

func (g *Wrapper) Init(settings *Settings, f, df Function, initLoc float64) error {
	if !isFinite(initLoc) {
		return &EvalError{Func: "x0", Loc: initLoc, Value: initLoc, Iter: 1}
	}
	var nFunEvals int
	initF := settings.InitialFunctionValue
	if math.IsNaN(initF) {
		initF = f.Eval(initLoc)
		nFunEvals++
	}
	if !isFinite(initF) {
		return &EvalError{Func: "f", Loc: initLoc, Value: initF, Iter: 1}
	}

	g.helper.Init(settings, f, initLoc, initF, nFunEvals)
	return g.method.Init(settings, f, df, initLoc, initF)
}

// Status reports a stall of the method before the budgets of the helper
func (g *Wrapper) Status() common.Status {
	return common.CheckStatus(g.method, g.helper)
}

func (g *Wrapper) Iterate() (loc, f float64, err error) {
	var nFunEvals int
	loc, f, nFunEvals, err = g.method.Iterate()
	if err != nil {
		g.helper.AddFunctionEvaluations(nFunEvals)
		return loc, f, fmt.Errorf("error iterating: %w", err)
	}
	if g.method.Status() != common.Continue {
		// No step was taken
		g.helper.AddFunctionEvaluations(nFunEvals)
		return loc, f, nil
	}
	g.helper.Iterate(loc, f, nFunEvals)
	return loc, f, nil
}

func (g *Wrapper) Result(status common.Status) *Result {
	g.method.Result()
	r := g.helper.Result(status)
	if s, ok := g.method.(Sloper); ok {
		r.Deriv = s.Slope()
	}
	return r
}

// FindRoot searches for x such that f(x) = 0 starting from initLoc, where df
// is the derivative of f. If settings is nil, DefaultSettings is used. If
// method is nil, Newton's method is used.
//
// Failing to find a root is not an error: the returned Result holds the last
// estimate and its Status says whether it converged, stalled on a flat
// derivative, or ran out of iterations. An error is returned for invalid
// input and when a non-finite value is encountered (see ErrNonFinite).
func FindRoot(f, df Function, initLoc float64, settings *Settings, method Method) (*Result, error) {
	if f == nil {
		return nil, errors.New("univariate: nil function")
	}
	if df == nil {
		return nil, errors.New("univariate: nil derivative")
	}
	if settings == nil {
		settings = DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if method == nil {
		method = NewNewton()
	}

	wrapper := NewWrapper(method)

	err := wrapper.Init(settings, f, df, initLoc)
	if err != nil {
		return nil, fmt.Errorf("error initializing: %w", err)
	}

	var status common.Status
	for {
		status = wrapper.Status()
		if status != common.Continue {
			break
		}

		_, _, err := wrapper.Iterate()
		if err != nil {
			wrapper.helper.Logger().Warn("root finding failed", zap.Error(err))
			return nil, err
		}
	}
	return wrapper.Result(status), nil
}

// Root runs Newton's method with the default settings and returns the final
// estimate. Root is silent: no trace is written. Use FindRoot with
// DefaultSettings for the per-iteration lines. As with FindRoot the estimate
// is not necessarily a root; the caller should check f at the returned point.
func Root(f, df Function, initLoc float64) (float64, error) {
	settings := DefaultSettings()
	settings.WriteSettings = nil
	result, err := FindRoot(f, df, initLoc, settings, nil)
	if err != nil {
		return math.NaN(), err
	}
	return result.Loc, nil
}
