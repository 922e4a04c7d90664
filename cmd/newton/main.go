package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/btracey/rootfind/internal/config"
	"github.com/btracey/rootfind/internal/demo"
	"github.com/btracey/rootfind/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// run flags
	x0            float64
	maxIterations int
	epsilon       float64
	traceFormat   string
	sumIterations int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "newton",
	Short: "Newton-Raphson root finding demo",
	Long: `newton finds the roots of sin(x) and x^2 + 2x - cos(x) with Newton's method,
printing one "<iteration>\t<x>\t<f(x)>" line per iteration of each search
followed by whether a root was found.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Find the roots of the two sample functions",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Write the effective configuration as YAML",
	Long: `Writes the configuration after applying the config file and environment
overrides (ROOTFIND_EPSILON, ROOTFIND_MAX_ITERATIONS, ROOTFIND_TRACE,
ROOTFIND_LOG_LEVEL) to path, or prints it when no path is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: writeConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every iteration")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	runCmd.Flags().Float64Var(&x0, "x0", 0.1, "initial estimate")
	runCmd.Flags().IntVar(&maxIterations, "max-iterations", 100, "limit on the iteration counter, which counts x0 as 1")
	runCmd.Flags().Float64Var(&epsilon, "epsilon", 1e-10, "tolerance on |f(x)| and smallest |f'(x)| divided by")
	runCmd.Flags().StringVar(&traceFormat, "trace", "tabbed", "trace format: tabbed, csv or none")
	runCmd.Flags().IntVar(&sumIterations, "sum-iterations", 1000000, "length of the accumulation loop")

	rootCmd.AddCommand(runCmd, configCmd)
}

// loadConfig loads the config file and applies the flags that were set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("x0") {
		cfg.Demo.X0 = x0
	}
	if flags.Changed("max-iterations") {
		cfg.Solver.MaxIterations = maxIterations
	}
	if flags.Changed("epsilon") {
		cfg.Solver.Epsilon = epsilon
	}
	if flags.Changed("trace") {
		cfg.Solver.Trace = traceFormat
	}
	if flags.Changed("sum-iterations") {
		cfg.Demo.SumIterations = sumIterations
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	settings, err := cfg.Settings(out, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := demo.Run(ctx, settings, cfg.Demo.X0, cfg.Demo.SumIterations)
	if err != nil {
		return fmt.Errorf("demo failed: %w", err)
	}
	return printReport(out, report)
}

func printReport(w io.Writer, report *demo.Report) error {
	for _, o := range report.Outcomes {
		if _, err := fmt.Fprintf(w, "\n%s\n", o); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if err := cfg.Save(args[0]); err != nil {
			return err
		}
		logger.Info("wrote configuration", zap.String("path", args[0]))
		return nil
	}
	return printYAML(cmd.OutOrStdout(), cfg)
}

func printYAML(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return enc.Close()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
