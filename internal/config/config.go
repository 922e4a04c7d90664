package config

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/btracey/rootfind/common"
	"github.com/btracey/rootfind/univariate"
	"github.com/btracey/rootfind/write"
)

// TraceNone disables the iteration trace
const TraceNone = "none"

// Config holds the configuration of the newton driver.
type Config struct {
	Solver  SolverConfig  `yaml:"solver"`
	Demo    DemoConfig    `yaml:"demo"`
	Logging LoggingConfig `yaml:"logging"`
}

// SolverConfig configures the root finder.
type SolverConfig struct {
	// Epsilon is the tolerance on |f(x)|.
	Epsilon float64 `yaml:"epsilon"`
	// DerivativeEpsilon is the smallest |f'(x)| divided by. Zero uses Epsilon.
	DerivativeEpsilon float64 `yaml:"derivative_epsilon"`
	// MaxIterations limits the iteration counter, which counts x0 as 1.
	MaxIterations int `yaml:"max_iterations"`
	// MaxFunctionEvaluations is negative for no limit.
	MaxFunctionEvaluations int `yaml:"max_function_evaluations"`

	LocChangeTol    float64 `yaml:"loc_change_tol,omitempty"`
	LocChangeWindow int     `yaml:"loc_change_window,omitempty"`

	Trace string `yaml:"trace"` // tabbed, csv, none
}

// DemoConfig configures the demonstration run.
type DemoConfig struct {
	X0            float64 `yaml:"x0"`
	SumIterations int     `yaml:"sum_iterations"` // the accumulation loop runs for i = 1 .. SumIterations-1
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			Epsilon:                common.DefaultEpsilon,
			MaxIterations:          common.DefaultMaximumIterations,
			MaxFunctionEvaluations: -1,
			Trace:                  write.Tabbed.String(),
		},
		Demo: DemoConfig{
			X0:            0.1,
			SumIterations: 1000000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file gives the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ROOTFIND_EPSILON"); v != "" {
		eps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ROOTFIND_EPSILON: %w", err)
		}
		c.Solver.Epsilon = eps
	}
	if v := os.Getenv("ROOTFIND_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ROOTFIND_MAX_ITERATIONS: %w", err)
		}
		c.Solver.MaxIterations = n
	}
	if v := os.Getenv("ROOTFIND_TRACE"); v != "" {
		c.Solver.Trace = v
	}
	if v := os.Getenv("ROOTFIND_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration for values the root finder would reject.
func (c *Config) Validate() error {
	if math.IsNaN(c.Solver.Epsilon) || c.Solver.Epsilon <= 0 {
		return fmt.Errorf("solver.epsilon must be positive, got %v", c.Solver.Epsilon)
	}
	if c.Solver.DerivativeEpsilon < 0 {
		return fmt.Errorf("solver.derivative_epsilon must not be negative, got %v", c.Solver.DerivativeEpsilon)
	}
	if c.Solver.MaxIterations < 1 {
		return fmt.Errorf("solver.max_iterations must be at least 1, got %d", c.Solver.MaxIterations)
	}
	if c.Solver.LocChangeTol > 0 && c.Solver.LocChangeWindow < 2 {
		return fmt.Errorf("solver.loc_change_window must be at least 2, got %d", c.Solver.LocChangeWindow)
	}
	if _, err := c.traceType(); err != nil {
		return err
	}
	if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// traceType returns the writer type of the trace, or -1 if it is disabled.
func (c *Config) traceType() (write.Type, error) {
	if strings.EqualFold(c.Solver.Trace, TraceNone) || c.Solver.Trace == "" {
		return -1, nil
	}
	return write.ParseType(c.Solver.Trace)
}

// Settings converts the solver configuration into root finder settings that
// write the trace to w and log to logger.
func (c *Config) Settings(w io.Writer, logger *zap.Logger) (*univariate.Settings, error) {
	typ, err := c.traceType()
	if err != nil {
		return nil, err
	}

	s := univariate.DefaultSettings()
	s.FunctionAbsTol = c.Solver.Epsilon
	s.DerivativeAbsTol = c.Solver.Epsilon
	if c.Solver.DerivativeEpsilon > 0 {
		s.DerivativeAbsTol = c.Solver.DerivativeEpsilon
	}
	s.MaximumIterations = c.Solver.MaxIterations
	s.MaximumFunctionEvaluations = c.Solver.MaxFunctionEvaluations
	if c.Solver.LocChangeTol > 0 {
		s.LocChangeTol = c.Solver.LocChangeTol
		s.LocChangeWindow = c.Solver.LocChangeWindow
	}
	s.Logger = logger

	s.WriteSettings = nil
	if typ >= 0 && w != nil {
		s.WriteSettings = &write.WriteSettings{DisplayWriters: []write.Writer{{Writer: w, T: typ}}}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
