package univariate

import (
	"errors"
	"math"

	"github.com/btracey/rootfind/common"
)

// Newton finds a root with Newton's method, x_{n+1} = x_n - f(x_n)/f'(x_n).
// It refuses to divide by a derivative whose magnitude is below
// DerivativeAbsTol and reports common.DerivativeTooSmall instead.
type Newton struct {
	f  Function
	df Function

	derivTol float64

	loc     float64
	fLoc    float64
	slope   float64
	stalled bool
	iter    int
}

func NewNewton() *Newton {
	return &Newton{}
}

func (n *Newton) Init(s *Settings, f, df Function, initLoc, initF float64) error {
	if df == nil {
		return errors.New("newton: nil derivative")
	}
	n.f = f
	n.df = df
	n.derivTol = s.DerivativeAbsTol
	n.loc = initLoc
	n.fLoc = initF
	n.slope = math.NaN()
	n.stalled = false
	n.iter = 1
	return nil
}

func (n *Newton) Status() common.Status {
	if n.stalled {
		return common.DerivativeTooSmall
	}
	return common.Continue
}

// Iterate takes a Newton step from the current location. If the derivative is
// too flat the location is returned unchanged and Status reports the stall.
func (n *Newton) Iterate() (loc, f float64, nFunEvals int, err error) {
	n.slope = n.df.Eval(n.loc)
	nFunEvals++
	if !isFinite(n.slope) {
		return n.loc, n.fLoc, nFunEvals, &EvalError{Func: "df", Loc: n.loc, Value: n.slope, Iter: n.iter}
	}
	if math.Abs(n.slope) < n.derivTol {
		n.stalled = true
		return n.loc, n.fLoc, nFunEvals, nil
	}

	next := n.loc - n.fLoc/n.slope
	if !isFinite(next) {
		return n.loc, n.fLoc, nFunEvals, &EvalError{Func: "x", Loc: n.loc, Value: next, Iter: n.iter}
	}
	fNext := n.f.Eval(next)
	nFunEvals++
	n.iter++
	if !isFinite(fNext) {
		return next, fNext, nFunEvals, &EvalError{Func: "f", Loc: next, Value: fNext, Iter: n.iter}
	}
	n.loc = next
	n.fLoc = fNext
	return n.loc, n.fLoc, nFunEvals, nil
}

// Slope returns the derivative at the location of the last step, NaN
// before the first step. A stalled run reports the flat derivative.
func (n *Newton) Slope() float64 {
	return n.slope
}

func (n *Newton) Result() {}
