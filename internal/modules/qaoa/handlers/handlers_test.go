package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qaoa/internal/modules/qaoa"
	"github.com/aristath/qaoa/internal/modules/simulator"
)

func setupRouter() chi.Router {
	local := simulator.New(simulator.Config{MaxQubits: 10, Seed: 3}, zerolog.Nop())
	service := qaoa.NewService(qaoa.ServiceConfig{
		Local: local,
		Seed:  3,
		Log:   zerolog.Nop(),
	})

	r := chi.NewRouter()
	NewHandler(service, simulator.SelectorSimulator, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, router chi.Router, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleSolve(t *testing.T) {
	router := setupRouter()

	rec := postJSON(t, router, "/solve-qaoa",
		`{"expression": "5*x[0] + 3*x[1] - 2*x[0]*x[1]", "p": 1, "maxiter": 15, "shots": 200}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RunID)
	require.NotNil(t, resp.OptimalCost)
	assert.Len(t, resp.OptimalGamma, 1)
	assert.Len(t, resp.OptimalBeta, 1)
	assert.Equal(t, 2, resp.NumQubits)
	assert.Equal(t, simulator.SelectorSimulator, resp.Backend)
	require.NotNil(t, resp.Converged)

	totalShots := 0
	for _, count := range resp.SolutionCounts {
		totalShots += count
	}
	assert.Equal(t, 200, totalShots)
	assert.NotEmpty(t, resp.Probabilities)
}

func TestHandleSolveDefaults(t *testing.T) {
	router := setupRouter()

	// Omitted p/maxiter/shots fall back to defaults instead of failing
	rec := postJSON(t, router, "/solve-qaoa", `{"expression": "x[0]"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	totalShots := 0
	for _, count := range resp.SolutionCounts {
		totalShots += count
	}
	assert.Equal(t, DefaultShots, totalShots)
}

func TestHandleSolveBounds(t *testing.T) {
	router := setupRouter()

	tests := []struct {
		name string
		body string
	}{
		{"p too large", `{"expression": "x[0]", "p": 6}`},
		{"maxiter too small", `{"expression": "x[0]", "maxiter": 5}`},
		{"maxiter too large", `{"expression": "x[0]", "maxiter": 500}`},
		{"shots too small", `{"expression": "x[0]", "shots": 50}`},
		{"shots too large", `{"expression": "x[0]", "shots": 100000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, "/solve-qaoa", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp SolveResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandleSolveCallerErrors(t *testing.T) {
	router := setupRouter()

	rec := postJSON(t, router, "/solve-qaoa", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/solve-qaoa", `{"expression": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/solve-qaoa",
		`{"expression": "x[0]*x[1]*x[2]", "maxiter": 10, "shots": 100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "degree violation is a caller error")

	rec = postJSON(t, router, "/solve-qaoa",
		`{"expression": "x[0]", "backend": "quantum_hardware", "maxiter": 10, "shots": 100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown backend is rejected up front")

	rec = postJSON(t, router, "/solve-qaoa",
		`{"expression": "x[0]", "backend": "remote", "maxiter": 10, "shots": 100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "remote backend is not configured")
}

func TestHandleRun(t *testing.T) {
	router := setupRouter()

	rec := postJSON(t, router, "/run-qaoa", `{
		"num_qubits": 2,
		"hamiltonian": {"paulis": ["ZI", "IZ", "ZZ"], "coeffs": [-2.0, -1.0, -0.5]},
		"p": 1, "maxiter": 15, "shots": 100
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.NumQubits)
	assert.Nil(t, resp.VariableMapping)
}

func TestHandleRunErrors(t *testing.T) {
	router := setupRouter()

	rec := postJSON(t, router, "/run-qaoa", `{"num_qubits": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Parallel arrays of different length
	rec = postJSON(t, router, "/run-qaoa", `{
		"num_qubits": 2,
		"hamiltonian": {"paulis": ["ZI", "IZ"], "coeffs": [1.0]},
		"maxiter": 10, "shots": 100
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Pauli width disagrees with num_qubits
	rec = postJSON(t, router, "/run-qaoa", `{
		"num_qubits": 3,
		"hamiltonian": {"paulis": ["ZI"], "coeffs": [1.0]},
		"maxiter": 10, "shots": 100
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}
