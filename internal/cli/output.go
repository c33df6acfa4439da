// Package cli provides output utilities for exporting evaluation results.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/fmmeval/internal/service"
	"github.com/agbru/fmmeval/pkg/geom"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the result (empty for no file output).
	OutputFile string
	// JSONOutput emits the result as JSON instead of the default text report.
	JSONOutput bool
	// Quiet mode suppresses verbose output.
	Quiet bool
	// Verbose shows per-body results.
	Verbose bool
	// Details shows traversal statistics.
	Details bool
}

// jsonResult is the on-disk/stdout JSON shape for an evaluation result.
type jsonResult struct {
	NumBodies    int       `json:"num_bodies"`
	Mode         string    `json:"mode"`
	Kernel       string    `json:"kernel"`
	Theta        float64   `json:"theta"`
	DurationMs   float64   `json:"duration_ms"`
	PairsVisited int       `json:"pairs_visited"`
	FarField     int       `json:"far_field_pairs"`
	P2P          int       `json:"p2p_pairs"`
	Results      []float64   `json:"results,omitempty"`
	Gradients    []geom.Vec3 `json:"gradients,omitempty"`
}

func toJSONResult(res *service.Result, mode, kernel string, theta float64, duration time.Duration, includeResults bool) jsonResult {
	j := jsonResult{
		NumBodies:    len(res.Results),
		Mode:         mode,
		Kernel:       kernel,
		Theta:        theta,
		DurationMs:   float64(duration.Microseconds()) / 1000.0,
		PairsVisited: res.Stats.PairsVisited,
		FarField:     res.Stats.FarField,
		P2P:          res.Stats.P2P,
	}
	if includeResults {
		j.Results = res.Results
		j.Gradients = res.Gradients
	}
	return j
}

// WriteResultToFile writes an evaluation result to a file, either as a
// commented text report or as JSON depending on config.JSONOutput.
func WriteResultToFile(res *service.Result, mode, kernel string, theta float64, duration time.Duration, config OutputConfig) error {
	if config.OutputFile == "" {
		return nil
	}

	dir := filepath.Dir(config.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if config.JSONOutput {
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		return enc.Encode(toJSONResult(res, mode, kernel, theta, duration, true))
	}

	fmt.Fprintf(file, "# fmmeval evaluation result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Mode: %s\n", mode)
	fmt.Fprintf(file, "# Kernel: %s\n", kernel)
	fmt.Fprintf(file, "# Theta: %v\n", theta)
	fmt.Fprintf(file, "# Duration: %s\n", duration)
	fmt.Fprintf(file, "# Bodies: %d\n", len(res.Results))
	fmt.Fprintf(file, "# PairsVisited: %d, FarField: %d, P2P: %d\n\n", res.Stats.PairsVisited, res.Stats.FarField, res.Stats.P2P)
	for i, r := range res.Results {
		fmt.Fprintf(file, "%d\t%.17g\n", i, r)
	}
	return nil
}

// DisplayResultWithConfig displays a result with the given output
// configuration, handling quiet/JSON/text modes, and optionally saves it
// to a file.
func DisplayResultWithConfig(out io.Writer, res *service.Result, mode, kernel string, theta float64, duration time.Duration, config OutputConfig) error {
	switch {
	case config.JSONOutput:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(toJSONResult(res, mode, kernel, theta, duration, config.Verbose)); err != nil {
			return err
		}
	case config.Quiet:
		fmt.Fprintf(out, "bodies=%d pairs_visited=%d far_field=%d p2p=%d duration=%s\n",
			len(res.Results), res.Stats.PairsVisited, res.Stats.FarField, res.Stats.P2P, FormatExecutionDuration(duration))
	default:
		DisplayResult(res, mode, kernel, duration, config.Verbose, config.Details, out)
	}

	if config.OutputFile != "" {
		if err := WriteResultToFile(res, mode, kernel, theta, duration, config); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n", ColorGreen(), ColorCyan(), config.OutputFile, ColorReset())
		}
	}

	return nil
}
