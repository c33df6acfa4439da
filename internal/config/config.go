// Package config provides the configuration management for the fmmeval
// application. It defines the data structure for the configuration, handles
// the parsing of command-line arguments, and performs validation on the
// configuration values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/agbru/fmmeval/internal/errors"
	"github.com/agbru/fmmeval/internal/evaluator"
)

const (
	// EnvPrefix is the prefix for all environment variables used by fmmeval.
	// Environment variables provide an alternative to CLI flags for
	// configuration, following the 12-Factor App methodology.
	EnvPrefix = "FMMEVAL_"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultNumBodies is the default number of source/target bodies.
	DefaultNumBodies = 2000
	// DefaultTimeout is the default evaluation timeout.
	DefaultTimeout = 5 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultDistribution is the default point-cloud generator.
	DefaultDistribution = "uniform"
	// DefaultMaxLeafSize is the default octree leaf capacity.
	DefaultMaxLeafSize = 32
	// DefaultMode is the default evaluator algorithm.
	DefaultMode = "fmm"
	// DefaultTheta is the default multipole acceptance threshold.
	DefaultTheta = 0.5
	// DefaultKernel is the default analytic kernel.
	DefaultKernel = "coulomb"
	// DefaultSeed is the default RNG seed for point-cloud generation.
	DefaultSeed = 1
)

// AppConfig aggregates the application's configuration parameters, parsed
// from command-line flags. It encapsulates all settings that control a
// single run, from the body count and point distribution to the evaluator's
// mode and acceptance threshold.
type AppConfig struct {
	// NumBodies is the number of source/target bodies to generate.
	NumBodies int
	// Distribution selects the point-cloud generator ("uniform", "plummer",
	// "shell").
	Distribution string
	// Seed is the RNG seed used to generate the point cloud, for
	// reproducible runs.
	Seed int64
	// MaxLeafSize is the octree's leaf capacity.
	MaxLeafSize int
	// Mode selects "fmm" or "treecode".
	Mode string
	// Theta is the multipole acceptance threshold, in (0, 1].
	Theta float64
	// Kernel selects "coulomb", "laplace", "laplacegradient", or "identity".
	Kernel string
	// Verbose, if true, instructs the application to display per-body
	// results.
	Verbose bool
	// Details, if true, provides a detailed report including traversal
	// statistics.
	Details bool
	// Timeout sets the maximum duration for the evaluation.
	Timeout time.Duration
	// Compare, if true, runs FMM, Treecode, and a direct sum concurrently
	// and reports their relative error against each other.
	Compare bool
	// Calibrate, if true, runs calibration mode to find a good theta and
	// leaf size for the current machine and workload.
	Calibrate bool
	// AutoCalibrate, if true, runs a short automatic calibration at startup
	// to refine Theta and MaxLeafSize.
	AutoCalibrate bool
	// CalibrationProfile is the path to a calibration profile file. If set,
	// the application loads/saves calibration results from/to this path. If
	// empty, uses the default path (~/.fmmeval_calibration.json).
	CalibrationProfile string
	// JSONOutput, if true, outputs the result in JSON format.
	JSONOutput bool
	// ServerMode, if true, starts the application as an HTTP server.
	ServerMode bool
	// Port specifies the port to listen on in server mode.
	Port string
	// NoColor, if true, disables all color output in the CLI. Also respects
	// the NO_COLOR environment variable.
	NoColor bool
	// OutputFile, if specified, saves the result to this file path.
	OutputFile string
	// Quiet mode - minimal output for scripting purposes. Suppresses
	// progress bars, banners, and informational messages.
	Quiet bool
}

// ToOptions converts the application configuration into evaluator.Options
// for use by the Evaluator.
func (c AppConfig) ToOptions() evaluator.Options {
	mode := evaluator.ModeFMM
	if strings.EqualFold(c.Mode, "treecode") {
		mode = evaluator.ModeTreecode
	}
	return evaluator.Options{Mode: mode, Theta: c.Theta}
}

var validDistributions = []string{"uniform", "plummer", "shell"}
var validKernels = []string{"coulomb", "laplace", "laplacegradient", "identity"}

// Validate checks the semantic consistency of the configuration parameters.
// It ensures numerical values are within valid ranges and that the chosen
// mode, distribution, and kernel are supported.
func (c AppConfig) Validate() error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.NumBodies <= 0 {
		return apperrors.NewConfigError("number of bodies must be strictly positive: %d", c.NumBodies)
	}
	if c.MaxLeafSize <= 0 {
		return apperrors.NewConfigError("max leaf size must be strictly positive: %d", c.MaxLeafSize)
	}
	if c.Theta <= 0 || c.Theta > 1 {
		return apperrors.NewConfigError("theta must be in (0, 1]: %v", c.Theta)
	}
	if !strings.EqualFold(c.Mode, "fmm") && !strings.EqualFold(c.Mode, "treecode") {
		return apperrors.NewConfigError("unrecognized mode: '%s'. Valid modes are: fmm, treecode", c.Mode)
	}
	if !oneOf(c.Distribution, validDistributions) {
		return apperrors.NewConfigError("unrecognized distribution: '%s'. Valid distributions are: %s", c.Distribution, strings.Join(validDistributions, ", "))
	}
	if !oneOf(c.Kernel, validKernels) {
		return apperrors.NewConfigError("unrecognized kernel: '%s'. Valid kernels are: %s", c.Kernel, strings.Join(validKernels, ", "))
	}
	return nil
}

func oneOf(v string, valid []string) bool {
	for _, a := range valid {
		if strings.EqualFold(a, v) {
			return true
		}
	}
	return false
}

// ParseConfig parses the command-line arguments and populates an AppConfig
// struct. It defines all the command-line flags, sets their default values,
// and handles the parsing process. After parsing, it performs validation on
// the resulting configuration.
//
// The function is designed to be testable by allowing the input arguments
// and output writer to be specified.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	fs.IntVar(&config.NumBodies, "n", DefaultNumBodies, "Number of source/target bodies to generate.")
	fs.StringVar(&config.Distribution, "distribution", DefaultDistribution, fmt.Sprintf("Point-cloud generator: one of [%s].", strings.Join(validDistributions, ", ")))
	fs.Int64Var(&config.Seed, "seed", DefaultSeed, "RNG seed for point-cloud generation.")
	fs.IntVar(&config.MaxLeafSize, "leaf-size", DefaultMaxLeafSize, "Octree leaf capacity (bodies per leaf).")
	fs.StringVar(&config.Mode, "mode", DefaultMode, "Evaluator mode: 'fmm' or 'treecode'.")
	fs.Float64Var(&config.Theta, "theta", DefaultTheta, "Multipole acceptance threshold, in (0, 1].")
	fs.StringVar(&config.Kernel, "kernel", DefaultKernel, fmt.Sprintf("Analytic kernel: one of [%s].", strings.Join(validKernels, ", ")))
	fs.BoolVar(&config.Verbose, "v", false, "Display per-body results.")
	fs.BoolVar(&config.Details, "d", false, "Display traversal statistics and metadata.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the evaluation.")
	fs.BoolVar(&config.Compare, "compare", false, "Run FMM, Treecode, and a direct sum concurrently and report relative error.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Run calibration mode to determine good theta/leaf-size values.")
	fs.BoolVar(&config.AutoCalibrate, "auto-calibrate", false, "Enable quick automatic calibration at startup (may increase loading time).")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to calibration profile file (default: ~/.fmmeval_calibration.json).")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the result.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&config, fs)

	config.Mode = strings.ToLower(config.Mode)
	config.Distribution = strings.ToLower(config.Distribution)
	config.Kernel = strings.ToLower(config.Kernel)
	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return config, nil
}
