// Package calibration auto-tunes the evaluator's theta (multipole
// acceptance threshold) and octree leaf size against the current hardware
// and a representative workload.
// This file implements adaptive candidate generation based on hardware
// characteristics.
package calibration

import "runtime"

// ─────────────────────────────────────────────────────────────────────────────
// Adaptive Leaf-Size Candidate Generation
// ─────────────────────────────────────────────────────────────────────────────

// GenerateLeafSizeCandidates generates a list of octree leaf capacities to
// test based on the number of available CPU cores.
//
// The rationale: more cores benefit from smaller leaves, since runLevel's
// intra-level parallelism has more, finer-grained boxes to distribute; few
// cores favor larger leaves, which keep P2P batches large enough to
// amortize per-box overhead.
func GenerateLeafSizeCandidates() []int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		return []int{32, 64, 128}
	case numCPU <= 4:
		return []int{16, 32, 64, 128}
	case numCPU <= 8:
		return []int{8, 16, 32, 64, 128}
	default:
		return []int{8, 16, 32, 64, 128, 256}
	}
}

// GenerateQuickLeafSizeCandidates generates a smaller set of leaf-size
// candidates for quick auto-calibration at startup.
func GenerateQuickLeafSizeCandidates() []int {
	numCPU := runtime.NumCPU()

	if numCPU <= 4 {
		return []int{16, 32, 64}
	}
	return []int{8, 32, 128}
}

// ─────────────────────────────────────────────────────────────────────────────
// Adaptive Theta Candidate Generation
// ─────────────────────────────────────────────────────────────────────────────

// GenerateThetaCandidates generates multipole acceptance thresholds to test.
// Theta trades accuracy for speed uniformly across hardware, so unlike leaf
// size this set is not CPU-dependent: it spans the useful range from
// conservative (close to exact) to aggressive (heavily approximated).
func GenerateThetaCandidates() []float64 {
	return []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
}

// GenerateQuickThetaCandidates generates a smaller set for quick
// auto-calibration.
func GenerateQuickThetaCandidates() []float64 {
	return []float64{0.4, 0.6, 0.8}
}

// ─────────────────────────────────────────────────────────────────────────────
// Candidate Estimation (without benchmarking)
// ─────────────────────────────────────────────────────────────────────────────

// EstimateOptimalLeafSize provides a heuristic estimate of a good leaf size
// without running benchmarks, as a fallback or starting point.
func EstimateOptimalLeafSize() int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU == 1:
		return 64
	case numCPU <= 4:
		return 32
	case numCPU <= 16:
		return 16
	default:
		return 8
	}
}

// EstimateOptimalTheta provides a heuristic estimate of a good theta
// without running benchmarks. Unlike leaf size, theta has no hardware
// dependence, so this simply returns the well-established default from the
// Barnes-Hut literature.
func EstimateOptimalTheta() float64 {
	return 0.5
}

// ─────────────────────────────────────────────────────────────────────────────
// Candidate Validation
// ─────────────────────────────────────────────────────────────────────────────

// ValidateCandidates clamps theta and leaf size to reasonable bounds.
func ValidateCandidates(theta float64, leafSize int) (float64, int) {
	if theta <= 0 {
		theta = 0.1
	}
	if theta > 1 {
		theta = 1
	}
	if leafSize < 1 {
		leafSize = 1
	}
	if leafSize > 4096 {
		leafSize = 4096
	}
	return theta, leafSize
}

// ─────────────────────────────────────────────────────────────────────────────
// Combined Candidate Generation
// ─────────────────────────────────────────────────────────────────────────────

// CandidateSet represents a complete set of candidates to test.
type CandidateSet struct {
	Theta    []float64
	LeafSize []int
}

// GenerateFullCandidateSet generates all candidates for comprehensive
// calibration.
func GenerateFullCandidateSet() CandidateSet {
	return CandidateSet{
		Theta:    GenerateThetaCandidates(),
		LeafSize: GenerateLeafSizeCandidates(),
	}
}

// GenerateQuickCandidateSet generates candidates for quick auto-calibration.
func GenerateQuickCandidateSet() CandidateSet {
	return CandidateSet{
		Theta:    GenerateQuickThetaCandidates(),
		LeafSize: GenerateQuickLeafSizeCandidates(),
	}
}

// EstimatedCandidates returns heuristic estimates without benchmarking.
func EstimatedCandidates() (theta float64, leafSize int) {
	return EstimateOptimalTheta(), EstimateOptimalLeafSize()
}
