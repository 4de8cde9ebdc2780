// Package handlers provides HTTP handlers for QAOA solve operations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/qaoa/internal/modules/circuit"
	"github.com/aristath/qaoa/internal/modules/hamiltonian"
	"github.com/aristath/qaoa/internal/modules/qaoa"
	"github.com/aristath/qaoa/internal/modules/qubo"
	"github.com/aristath/qaoa/internal/modules/simulator"
)

// Request bounds mirror the API contract: shallow circuits, bounded
// optimization budgets, bounded shot counts.
const (
	MinDepth   = 1
	MaxDepth   = 5
	MinMaxiter = 10
	MaxMaxiter = 200
	MinShots   = 100
	MaxShots   = 10000

	DefaultDepth   = 1
	DefaultMaxiter = 50
	DefaultShots   = 1024
)

// Handler handles QAOA HTTP requests
type Handler struct {
	service        *qaoa.Service
	defaultBackend string
	log            zerolog.Logger
}

// NewHandler creates a new QAOA handler
func NewHandler(service *qaoa.Service, defaultBackend string, log zerolog.Logger) *Handler {
	return &Handler{
		service:        service,
		defaultBackend: defaultBackend,
		log:            log.With().Str("handler", "qaoa").Logger(),
	}
}

// SolveRequest is the request body for POST /api/solve-qaoa
type SolveRequest struct {
	Expression string `json:"expression"`
	P          int    `json:"p"`
	Maxiter    int    `json:"maxiter"`
	Shots      int    `json:"shots"`
	Backend    string `json:"backend"`
}

// HamiltonianData carries a Hamiltonian as parallel arrays
type HamiltonianData struct {
	Paulis []string  `json:"paulis"`
	Coeffs []float64 `json:"coeffs"`
}

// RunRequest is the request body for POST /api/run-qaoa
type RunRequest struct {
	NumQubits   int             `json:"num_qubits"`
	Hamiltonian HamiltonianData `json:"hamiltonian"`
	P           int             `json:"p"`
	Maxiter     int             `json:"maxiter"`
	Shots       int             `json:"shots"`
	Backend     string          `json:"backend"`
}

// SolveResponse is returned by both solve endpoints
type SolveResponse struct {
	Success         bool                      `json:"success"`
	RunID           string                    `json:"run_id,omitempty"`
	OptimalCost     *float64                  `json:"optimal_cost,omitempty"`
	OptimalParams   []float64                 `json:"optimal_params,omitempty"`
	OptimalGamma    []float64                 `json:"optimal_gamma,omitempty"`
	OptimalBeta     []float64                 `json:"optimal_beta,omitempty"`
	SolutionCounts  map[string]int            `json:"solution_counts,omitempty"`
	Probabilities   []qaoa.OutcomeProbability `json:"probabilities,omitempty"`
	NumIterations   int                       `json:"num_iterations,omitempty"`
	NumQubits       int                       `json:"num_qubits,omitempty"`
	Converged       *bool                     `json:"converged,omitempty"`
	Backend         string                    `json:"backend,omitempty"`
	VariableMapping map[string]string         `json:"variable_mapping,omitempty"`
	Error           string                    `json:"error,omitempty"`
}

// HandleSolve handles POST /api/solve-qaoa: expression in, distribution out
func (h *Handler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if req.Expression == "" {
		h.writeFailure(w, http.StatusBadRequest, fmt.Errorf("expression is required"))
		return
	}

	depth, maxiter, shots, backend, err := h.applyBounds(req.P, req.Maxiter, req.Shots, req.Backend)
	if err != nil {
		h.writeFailure(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.Solve(r.Context(), qaoa.SolveRequest{
		Expression:    req.Expression,
		Depth:         depth,
		MaxIterations: maxiter,
		Shots:         shots,
		Backend:       backend,
	})
	if err != nil {
		h.writeSolveError(w, err)
		return
	}

	h.writeResult(w, result, backend)
}

// HandleRun handles POST /api/run-qaoa: pre-built Hamiltonian in
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if req.NumQubits < 1 {
		h.writeFailure(w, http.StatusBadRequest, fmt.Errorf("num_qubits must be >= 1"))
		return
	}
	if len(req.Hamiltonian.Paulis) != len(req.Hamiltonian.Coeffs) {
		h.writeFailure(w, http.StatusBadRequest, fmt.Errorf("paulis and coeffs must have the same length, got %d and %d",
			len(req.Hamiltonian.Paulis), len(req.Hamiltonian.Coeffs)))
		return
	}
	if len(req.Hamiltonian.Paulis) == 0 {
		h.writeFailure(w, http.StatusBadRequest, fmt.Errorf("hamiltonian must have at least one term"))
		return
	}

	depth, maxiter, shots, backend, err := h.applyBounds(req.P, req.Maxiter, req.Shots, req.Backend)
	if err != nil {
		h.writeFailure(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.RunHamiltonian(r.Context(), qaoa.RunRequest{
		NumQubits:     req.NumQubits,
		Paulis:        req.Hamiltonian.Paulis,
		Coeffs:        req.Hamiltonian.Coeffs,
		Depth:         depth,
		MaxIterations: maxiter,
		Shots:         shots,
		Backend:       backend,
	})
	if err != nil {
		h.writeSolveError(w, err)
		return
	}

	h.writeResult(w, result, backend)
}

// applyBounds fills defaults and enforces request bounds
func (h *Handler) applyBounds(p, maxiter, shots int, backend string) (int, int, int, string, error) {
	if p == 0 {
		p = DefaultDepth
	}
	if maxiter == 0 {
		maxiter = DefaultMaxiter
	}
	if shots == 0 {
		shots = DefaultShots
	}
	if backend == "" {
		backend = h.defaultBackend
	}

	if p < MinDepth || p > MaxDepth {
		return 0, 0, 0, "", fmt.Errorf("p must be between %d and %d, got %d", MinDepth, MaxDepth, p)
	}
	if maxiter < MinMaxiter || maxiter > MaxMaxiter {
		return 0, 0, 0, "", fmt.Errorf("maxiter must be between %d and %d, got %d", MinMaxiter, MaxMaxiter, maxiter)
	}
	if shots < MinShots || shots > MaxShots {
		return 0, 0, 0, "", fmt.Errorf("shots must be between %d and %d, got %d", MinShots, MaxShots, shots)
	}
	return p, maxiter, shots, backend, nil
}

func (h *Handler) writeResult(w http.ResponseWriter, result *qaoa.Result, backend string) {
	cost := result.OptimalCost
	converged := result.Converged
	h.writeJSON(w, http.StatusOK, SolveResponse{
		Success:         true,
		RunID:           result.RunID,
		OptimalCost:     &cost,
		OptimalParams:   result.OptimalParams,
		OptimalGamma:    result.Gamma,
		OptimalBeta:     result.Beta,
		SolutionCounts:  result.Counts,
		Probabilities:   result.Probabilities,
		NumIterations:   result.Iterations,
		NumQubits:       result.NumQubits,
		Converged:       &converged,
		Backend:         backend,
		VariableMapping: result.VariableMapping,
	})
}

// writeSolveError maps solver errors to status codes. Caller errors
// (malformed expressions, bad parameters, unknown backends) are 400s;
// everything else is a 500.
func (h *Handler) writeSolveError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, qubo.ErrDegreeViolation),
		errors.Is(err, circuit.ErrParameterCount),
		errors.Is(err, hamiltonian.ErrInvalidPauli),
		errors.Is(err, simulator.ErrUnsupportedBackend):
		status = http.StatusBadRequest
	}
	h.writeFailure(w, status, err)
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, err error) {
	h.log.Error().Err(err).Msg("Solve request failed")
	h.writeJSON(w, status, SolveResponse{
		Success: false,
		Error:   err.Error(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
