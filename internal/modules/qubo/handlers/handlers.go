// Package handlers provides HTTP handlers for QUBO generation.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/qaoa/internal/modules/hamiltonian"
	"github.com/aristath/qaoa/internal/modules/qubo"
)

// Handler handles QUBO HTTP requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new QUBO handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "qubo").Logger(),
	}
}

// GenerateRequest is the request body for POST /api/generate-qubo
type GenerateRequest struct {
	Expression string `json:"expression"`
}

// HamiltonianData carries a Hamiltonian as parallel arrays
type HamiltonianData struct {
	Paulis []string  `json:"paulis"`
	Coeffs []float64 `json:"coeffs"`
}

// GenerateResponse is returned by POST /api/generate-qubo
type GenerateResponse struct {
	Success         bool              `json:"success"`
	QMatrix         [][]float64       `json:"Q_matrix,omitempty"`
	Hamiltonian     *HamiltonianData  `json:"hamiltonian,omitempty"`
	Offset          *float64          `json:"offset,omitempty"`
	NumQubits       int               `json:"num_qubits,omitempty"`
	VariableMapping map[string]string `json:"variable_mapping,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// HandleGenerate handles POST /api/generate-qubo: expression in, QUBO
// matrix and cost Hamiltonian out. No optimization is run.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if req.Expression == "" {
		h.writeFailure(w, http.StatusBadRequest, fmt.Errorf("expression is required"))
		return
	}

	// Parse and degree errors alike originate in the submitted
	// expression, so everything here maps to a 400.
	matrix, variables, err := qubo.FromExpression(req.Expression)
	if err != nil {
		h.writeFailure(w, http.StatusBadRequest, err)
		return
	}

	ham, offset := hamiltonian.FromQUBO(matrix)
	paulis, coeffs := ham.Lists()

	mapping := make(map[string]string, len(variables))
	for idx, v := range variables {
		mapping[fmt.Sprintf("q%d", idx)] = v.ID()
	}

	h.writeJSON(w, http.StatusOK, GenerateResponse{
		Success:         true,
		QMatrix:         matrix.Rows(),
		Hamiltonian:     &HamiltonianData{Paulis: paulis, Coeffs: coeffs},
		Offset:          &offset,
		NumQubits:       matrix.Size(),
		VariableMapping: mapping,
	})
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, err error) {
	h.log.Error().Err(err).Msg("QUBO generation failed")
	h.writeJSON(w, status, GenerateResponse{
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
