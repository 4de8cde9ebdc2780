package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qaoa/internal/modules/hamiltonian"
)

func TestRemoteEvaluate(t *testing.T) {
	var captured remoteEvaluateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/evaluate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(remoteEvaluateResponse{Expectation: -1.25})
	}))
	defer srv.Close()

	backend := NewRemoteBackend(srv.URL, zerolog.Nop())
	h, err := hamiltonian.FromLists(2, []string{"ZI", "ZZ"}, []float64{-2.0, -0.5})
	require.NoError(t, err)

	value, err := backend.Evaluate(context.Background(), uniformCircuit(2), h)
	require.NoError(t, err)
	assert.Equal(t, -1.25, value)

	assert.Equal(t, []string{"ZI", "ZZ"}, captured.Paulis)
	assert.Equal(t, []float64{-2.0, -0.5}, captured.Coeffs)
	require.NotNil(t, captured.Circuit)
	assert.Equal(t, 2, captured.Circuit.NumQubits)
}

func TestRemoteEvaluateReportedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteEvaluateResponse{Error: "device offline"})
	}))
	defer srv.Close()

	backend := NewRemoteBackend(srv.URL, zerolog.Nop())
	h, err := hamiltonian.FromLists(1, []string{"Z"}, []float64{1})
	require.NoError(t, err)

	_, err = backend.Evaluate(context.Background(), uniformCircuit(1), h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device offline")
}

func TestRemoteEvaluateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	backend := NewRemoteBackend(srv.URL, zerolog.Nop())
	h, err := hamiltonian.FromLists(1, []string{"Z"}, []float64{1})
	require.NoError(t, err)

	_, err = backend.Evaluate(context.Background(), uniformCircuit(1), h)
	assert.Error(t, err)
}

func TestRemoteSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sample", r.URL.Path)
		var req remoteSampleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 100, req.Shots)
		json.NewEncoder(w).Encode(remoteSampleResponse{Counts: map[string]int{"00": 60, "11": 40}})
	}))
	defer srv.Close()

	backend := NewRemoteBackend(srv.URL, zerolog.Nop())
	counts, err := backend.Sample(context.Background(), uniformCircuit(2), 100)
	require.NoError(t, err)
	assert.Equal(t, Counts{"00": 60, "11": 40}, counts)
}

func TestRemoteSampleRejectsBadTotals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteSampleResponse{Counts: map[string]int{"00": 10}})
	}))
	defer srv.Close()

	backend := NewRemoteBackend(srv.URL, zerolog.Nop())
	_, err := backend.Sample(context.Background(), uniformCircuit(2), 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 100 shots")
}

func TestRemoteUnreachable(t *testing.T) {
	backend := NewRemoteBackend("http://127.0.0.1:1", zerolog.Nop())
	h, err := hamiltonian.FromLists(1, []string{"Z"}, []float64{1})
	require.NoError(t, err)

	_, err = backend.Evaluate(context.Background(), uniformCircuit(1), h)
	assert.Error(t, err)
}
