package common

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/btracey/rootfind/write"
)

// DefaultEpsilon is the default tolerance on the function value and the
// smallest derivative magnitude that is divided by
const DefaultEpsilon = 1e-10

// DefaultMaximumIterations bounds the iteration counter, which starts at one
const DefaultMaximumIterations = 100

type Initer interface {
	Init()
}

type Resulter interface {
	Result()
}

// FunctionWrapper holds the user function and calls its optional hooks.
//
// If the function is an Initer it will be called once at the start of a run.
// If the function is a Statuser it may end the run. If it is a Resulter it
// is called when the run finishes. If it is a write.DataAdder its values are
// added to the trace.
type FunctionWrapper struct {
	fun interface{}
}

func (o *FunctionWrapper) Init(function interface{}) {
	o.fun = function
	initer, ok := function.(Initer)
	if ok {
		initer.Init()
	}
}

func (o *FunctionWrapper) Status() Status {
	statuser, isStatuser := o.fun.(Statuser)
	if isStatuser {
		return statuser.Status()
	}
	return Continue
}

func (o *FunctionWrapper) Result() {
	resulter, ok := o.fun.(Resulter)
	if ok {
		resulter.Result()
	}
}

func (o *FunctionWrapper) AppendWriteData(v []*write.Value) []*write.Value {
	dataWriter, ok := o.fun.(write.DataAdder)
	if ok {
		return dataWriter.AppendWriteData(v)
	}
	return v
}

type ToleranceSettings struct {
	FunctionAbsTol   float64 // Converged once |f(x)| is below this value. NaN disables the check
	DerivativeAbsTol float64 // Stop rather than divide by a derivative whose magnitude is below this value
	LocChangeTol     float64 // Converged once x moves less than this over LocChangeWindow iterations. Negative disables
	LocChangeWindow  int     // Window for measuring the change in location
}

func DefaultToleranceSettings() *ToleranceSettings {
	return &ToleranceSettings{
		FunctionAbsTol:   DefaultEpsilon,
		DerivativeAbsTol: DefaultEpsilon,
		LocChangeTol:     -1,
		LocChangeWindow:  5,
	}
}

// RootTolerances tracks the convergence of root finders which have a
// single output
type RootTolerances struct {
	fun *UniToler
	loc *UniToler
}

func NewRootTolerances() *RootTolerances {
	return &RootTolerances{
		fun: &UniToler{},
		loc: &UniToler{},
	}
}

func (s *RootTolerances) Init(settings *ToleranceSettings, initLoc, initFun float64) {
	s.fun.Init(settings.FunctionAbsTol, -1, 0, initFun)
	s.loc.Init(math.NaN(), settings.LocChangeTol, settings.LocChangeWindow, initLoc)
}

func (s *RootTolerances) Iterate(loc, fun float64) {
	s.fun.Add(fun)
	s.loc.Add(loc)
}

func (s *RootTolerances) Status() Status {
	if s.fun.AbsConverged() {
		return FunctionAbsTol
	}
	if s.loc.RelConverged() {
		return LocChangeTol
	}
	return Continue
}

// CommonSettings is a set of options available to all root finders
type CommonSettings struct {
	MaximumIterations          int         // Stops once the iteration counter, which starts at one, reaches this value
	MaximumFunctionEvaluations int         // Sets the maximum number of function and derivative evaluations. Negative means no maximum
	Logger                     *zap.Logger // Receives per-iteration debug entries and a summary. nil means no logging
	*write.WriteSettings
}

// DefaultCommonSettings returns the default settings for the common structure
func DefaultCommonSettings() *CommonSettings {
	return &CommonSettings{
		MaximumIterations:          DefaultMaximumIterations,
		MaximumFunctionEvaluations: -1,
		Logger:                     zap.NewNop(),
		WriteSettings:              write.DefaultWriteSettings(),
	}
}

// CommonResult is a list of results from the common structure
type CommonResult struct {
	RunID               string // Identifies the run in the log output
	Iterations          int    // Value of the iteration counter at the end of the run
	FunctionEvaluations int    // Total number of function and derivative evaluations
	Status              Status // How did the root finder end
}

// Common provides routines for controlling the settings provided by common.
type Common struct {
	iter     int
	funEvals int
	runID    string

	settings *CommonSettings
	logger   *zap.Logger

	*write.Display
	*FunctionWrapper
}

// NewCommon creates a new Common structure, and adds itself to the display
func NewCommon() *Common {
	c := &Common{
		Display:         write.NewDisplay(),
		FunctionWrapper: &FunctionWrapper{},
	}
	c.AddDataAdder(c)
	return c
}

// Init initializes all of the values in common at the start of the run.
// nFunEvals is the number of evaluations already spent on the initial location.
// The initial location counts as the first iteration and is written to the display.
func (c *Common) Init(settings *CommonSettings, function interface{}, nFunEvals int) {
	c.iter = 1
	c.funEvals = nFunEvals
	c.runID = uuid.NewString()

	c.settings = settings
	c.logger = settings.Logger
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("run", c.runID))

	c.FunctionWrapper.Init(function)
	if err := c.Display.Init(c.settings.WriteSettings); err != nil {
		c.logger.Warn("trace output disabled", zap.Error(err))
		_ = c.Display.Init(nil)
	}
	c.writeDisplay()
}

func (c *Common) AppendWriteData(d []*write.Value) []*write.Value {
	return append(d, &write.Value{Heading: "Iter", Value: c.iter})
}

// Logger returns the logger for the current run
func (c *Common) Logger() *zap.Logger {
	return c.logger
}

// Iter returns the current value of the iteration counter
func (c *Common) Iter() int {
	return c.iter
}

// FunctionEvaluations returns the number of evaluations so far
func (c *Common) FunctionEvaluations() int {
	return c.funEvals
}

// AddFunctionEvaluations records evaluations that happen outside of Iterate,
// such as a derivative evaluated while checking the status
func (c *Common) AddFunctionEvaluations(n int) {
	c.funEvals += n
}

// Note: These have names that are different because we want root finders
// to specifically implement all of them. If it has the name Status(), then
// a root finder will implement by embedding common

// Status checks if any of the budgets controlled by common have been reached
func (c *Common) Status() Status {
	status := c.FunctionWrapper.Status()
	if status != Continue {
		return status
	}
	if c.iter >= c.settings.MaximumIterations {
		return MaximumIterations
	}
	if c.settings.MaximumFunctionEvaluations > -1 && c.funEvals >= c.settings.MaximumFunctionEvaluations {
		return MaximumFunctionEvaluations
	}
	return Continue
}

// Result returns the results from the common structure
func (c *Common) Result(status Status) *CommonResult {
	c.FunctionWrapper.Result()
	r := &CommonResult{
		RunID:               c.runID,
		Iterations:          c.iter,
		FunctionEvaluations: c.funEvals,
		Status:              status,
	}
	c.logger.Info("root finding finished",
		zap.Stringer("status", status),
		zap.Int("iterations", r.Iterations),
		zap.Int("evaluations", r.FunctionEvaluations),
	)
	return r
}

// Iterate performs an iteration of the common structure, incrementing
// the iteration, adding the number of function evaluations, and
// writing to the writers
func (c *Common) Iterate(nFunEvals int) {
	c.iter++
	c.funEvals += nFunEvals
	c.writeDisplay()
}

// writeDisplay writes the trace. Write failures are logged and never change
// the result of the run.
func (c *Common) writeDisplay() {
	if err := c.Display.Iterate(); err != nil {
		c.logger.Warn("writing trace", zap.Int("iter", c.iter), zap.Error(err))
	}
}
