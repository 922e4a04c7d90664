// Package demo exercises the root finder on two sample functions.
package demo

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/btracey/rootfind/common"
	"github.com/btracey/rootfind/univariate"
	"github.com/btracey/rootfind/write"
)

// F is sin(x)
func F(x float64) float64 {
	return math.Sin(x)
}

func DFdx(x float64) float64 {
	return math.Cos(x)
}

// G is x^2 + 2x - cos(x)
func G(x float64) float64 {
	return (x * x) + (2.0 * x) - math.Cos(x)
}

func DGdx(x float64) float64 {
	return (2.0 * x) + 2.0 + math.Sin(x)
}

// Sums are the totals of the accumulation loop
type Sums struct {
	X float64
	Y float64
}

// Accumulate sums F(i) + F'(i/2) into X and G(i) - G'(i/2) into Y for
// i = 1 .. n-1. It checks ctx every block of terms.
func Accumulate(ctx context.Context, n int) (Sums, error) {
	const block = 4096
	xs := make([]float64, 0, block)
	ys := make([]float64, 0, block)
	var s Sums
	for start := 1; start < n; start += block {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		xs, ys = xs[:0], ys[:0]
		for i := start; i < n && i < start+block; i++ {
			fi := float64(i)
			xs = append(xs, F(fi)+DFdx(fi/2.0))
			ys = append(ys, G(fi)-DGdx(fi/2.0))
		}
		s.X += floats.Sum(xs)
		s.Y += floats.Sum(ys)
	}
	return s, nil
}

// Outcome is the result of finding the root of one sample function
type Outcome struct {
	Name   string
	Result *univariate.Result
	Found  bool // |f(root)| is below the tolerance
}

func (o Outcome) String() string {
	if !o.Found {
		return "root of " + o.Name + "(x) not found."
	}
	return "root of " + o.Name + "(x) found at x=" + strconv.FormatFloat(o.Result.Loc, 'g', -1, 64) + "."
}

// Report collects the outcomes of a demonstration run
type Report struct {
	Sums     Sums
	Outcomes []Outcome
}

type sample struct {
	name string
	f    univariate.Func
	df   univariate.Func
}

var samples = []sample{
	{"F", F, DFdx},
	{"G", G, DGdx},
}

// Run runs the accumulation loop and finds the roots of F and G from x0,
// concurrently. settings is used as a template: each search gets its own copy,
// and its trace is buffered and written to the configured writers in one piece
// once both searches finish, F first. Recorders in settings are shared by
// both searches and must be safe for concurrent use.
func Run(ctx context.Context, settings *univariate.Settings, x0 float64, sumIterations int) (*Report, error) {
	if settings == nil {
		settings = univariate.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	report := &Report{Outcomes: make([]Outcome, len(samples))}
	buffers := make([][]*bytes.Buffer, len(samples))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sums, err := Accumulate(ctx, sumIterations)
		if err != nil {
			return err
		}
		report.Sums = sums
		logger.Debug("accumulated", zap.Float64("x", sums.X), zap.Float64("y", sums.Y))
		return nil
	})
	for i, smp := range samples {
		i, smp := i, smp
		var s *univariate.Settings
		s, buffers[i] = withBufferedTrace(settings)
		g.Go(func() error {
			result, err := univariate.FindRoot(smp.f, smp.df, x0, s, nil)
			if err != nil {
				return fmt.Errorf("root of %s: %w", smp.name, err)
			}
			report.Outcomes[i] = Outcome{
				Name:   smp.name,
				Result: result,
				Found:  math.Abs(smp.f(result.Loc)) < tolerance(s),
			}
			logger.Info("root search finished",
				zap.String("function", smp.name),
				zap.Float64("x", result.Loc),
				zap.Stringer("status", result.Status),
				zap.String("run", result.RunID),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if settings.WriteSettings != nil {
		for _, bufs := range buffers {
			for j, w := range settings.DisplayWriters {
				if _, err := bufs[j].WriteTo(w); err != nil {
					return report, fmt.Errorf("writing trace: %w", err)
				}
			}
		}
	}
	return report, nil
}

// tolerance is the caller's test for a root, falling back to the default
// when the function tolerance is disabled
func tolerance(s *univariate.Settings) float64 {
	if math.IsNaN(s.FunctionAbsTol) {
		return common.DefaultEpsilon
	}
	return s.FunctionAbsTol
}

// withBufferedTrace copies s, giving every trace writer its own buffer
func withBufferedTrace(s *univariate.Settings) (*univariate.Settings, []*bytes.Buffer) {
	c := *s
	cs := *s.CommonSettings
	c.CommonSettings = &cs
	tol := *s.ToleranceSettings
	c.ToleranceSettings = &tol
	if s.WriteSettings == nil {
		return &c, nil
	}
	ws := &write.WriteSettings{}
	bufs := make([]*bytes.Buffer, len(s.DisplayWriters))
	for i, w := range s.DisplayWriters {
		bufs[i] = &bytes.Buffer{}
		ws.DisplayWriters = append(ws.DisplayWriters, write.Writer{Writer: bufs[i], T: w.T})
	}
	c.WriteSettings = ws
	return &c, bufs
}
