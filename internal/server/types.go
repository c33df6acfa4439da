package server

import "github.com/agbru/fmmeval/pkg/geom"

// Response represents the standardized JSON response for an evaluation
// request.
type Response struct {
	// NumBodies is the number of bodies evaluated.
	NumBodies int `json:"num_bodies"`
	// Mode is the evaluator mode used ("fmm" or "treecode").
	Mode string `json:"mode"`
	// Kernel is the analytic kernel used.
	Kernel string `json:"kernel"`
	// Theta is the multipole acceptance threshold used.
	Theta float64 `json:"theta"`
	// Duration is the formatted execution time string.
	Duration string `json:"duration"`
	// Results holds the per-body evaluation results. Omitted if an error
	// occurred, or if the caller did not request them.
	Results []float64 `json:"results,omitempty"`
	// Gradients holds the per-body field gradient, present only when Kernel
	// is "laplacegradient" and the caller requested Results.
	Gradients []geom.Vec3 `json:"gradients,omitempty"`
	// PairsVisited, FarField, and P2P report traversal statistics.
	PairsVisited int `json:"pairs_visited"`
	FarField     int `json:"far_field_pairs"`
	P2P          int `json:"p2p_pairs"`
	// Error contains the error message if the evaluation failed.
	Error string `json:"error,omitempty"`
}

// ErrorResponse represents the standardized JSON response for an API error.
type ErrorResponse struct {
	// Error is the short error code or status text.
	Error string `json:"error"`
	// Message is a descriptive error message.
	Message string `json:"message,omitempty"`
}

// EvaluateParseError represents a parameter parsing error with HTTP status.
type EvaluateParseError struct {
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e EvaluateParseError) Error() string {
	return e.Message
}
