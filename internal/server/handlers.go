package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agbru/fmmeval/internal/config"
	"github.com/agbru/fmmeval/internal/service"
)

// handleHealth responds to health check requests.
// It returns a 200 OK status with a JSON payload indicating the service is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleAlgorithms returns the list of available analytic kernels.
func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]any{
		"kernels": []string{"coulomb", "laplace", "laplacegradient", "identity"},
		"modes":   []string{"fmm", "treecode"},
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleEvaluate processes requests to evaluate a point cloud under a
// kernel. It parses the query parameters describing body count,
// distribution, mode, theta, kernel, and seed, runs the evaluation, and
// returns the result in JSON format.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cfg, err := parseEvaluateParams(r, s.cfg)
	if err != nil {
		if parseErr, ok := err.(EvaluateParseError); ok {
			s.writeErrorResponse(w, parseErr.StatusCode, parseErr.Message)
		} else {
			s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if uint64(cfg.NumBodies) > s.securityConfig.MaxBodies {
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("number of bodies exceeds maximum allowed (%d)", s.securityConfig.MaxBodies))
		return
	}

	if !s.rateLimiter.AllowN(getClientIP(r), evaluationCost(cfg.NumBodies)) {
		s.writeErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded for this body count; try again later or request fewer bodies")
		return
	}

	// The evaluator core runs synchronously to completion with no suspension
	// points, so the request timeout is enforced by the HTTP server's write
	// timeout rather than a context passed into Evaluate.
	start := time.Now()
	result, err := s.service.Evaluate(cfg)
	duration := time.Since(start)

	if errors.Is(err, service.ErrMaxBodiesExceeded) {
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("number of bodies exceeds maximum allowed (%d)", s.securityConfig.MaxBodies))
		return
	}

	if err == nil {
		s.metrics.ObserveEvaluation(result.Stats, cfg.Mode, cfg.Kernel, duration)
	}

	resp := buildEvaluateResponse(cfg, result, duration, err)
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// parseEvaluateParams extracts and validates the evaluation parameters
// from the request's query string, falling back to the server's base
// configuration for any parameter not supplied.
func parseEvaluateParams(r *http.Request, base config.AppConfig) (config.AppConfig, error) {
	cfg := base
	q := r.URL.Query()

	if v := q.Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, EvaluateParseError{
				Message:    "Invalid 'n' parameter: must be a positive integer",
				StatusCode: http.StatusBadRequest,
			}
		}
		cfg.NumBodies = n
	}

	if v := q.Get("distribution"); v != "" {
		cfg.Distribution = v
	}

	if v := q.Get("mode"); v != "" {
		cfg.Mode = v
	}

	if v := q.Get("kernel"); v != "" {
		cfg.Kernel = v
	}

	if v := q.Get("theta"); v != "" {
		theta, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, EvaluateParseError{
				Message:    "Invalid 'theta' parameter: must be a number",
				StatusCode: http.StatusBadRequest,
			}
		}
		cfg.Theta = theta
	}

	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, EvaluateParseError{
				Message:    "Invalid 'seed' parameter: must be an integer",
				StatusCode: http.StatusBadRequest,
			}
		}
		cfg.Seed = seed
	}

	if v := q.Get("leaf_size"); v != "" {
		leaf, err := strconv.Atoi(v)
		if err != nil || leaf <= 0 {
			return cfg, EvaluateParseError{
				Message:    "Invalid 'leaf_size' parameter: must be a positive integer",
				StatusCode: http.StatusBadRequest,
			}
		}
		cfg.MaxLeafSize = leaf
	}

	cfg.Verbose = q.Get("verbose") == "true"

	return cfg, nil
}

// buildEvaluateResponse constructs the response struct for an evaluation.
func buildEvaluateResponse(cfg config.AppConfig, result *service.Result, duration time.Duration, err error) Response {
	resp := Response{
		NumBodies: cfg.NumBodies,
		Mode:      cfg.Mode,
		Kernel:    cfg.Kernel,
		Theta:     cfg.Theta,
		Duration:  duration.String(),
	}

	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	resp.PairsVisited = result.Stats.PairsVisited
	resp.FarField = result.Stats.FarField
	resp.P2P = result.Stats.P2P
	if cfg.Verbose {
		resp.Results = result.Results
		resp.Gradients = result.Gradients
	}

	return resp
}

// writeJSONResponse helper function to write a JSON response with the correct content type.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

// writeErrorResponse helper function to write a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	errResp := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	s.writeJSONResponse(w, statusCode, errResp)
}
