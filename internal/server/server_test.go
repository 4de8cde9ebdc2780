package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qaoa/internal/config"
	"github.com/aristath/qaoa/internal/events"
	"github.com/aristath/qaoa/internal/modules/qaoa"
	"github.com/aristath/qaoa/internal/modules/runs"
	"github.com/aristath/qaoa/internal/modules/simulator"

	_ "modernc.org/sqlite"
)

func setupServer(t *testing.T) *Server {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo, err := runs.NewRepository(db, zerolog.Nop())
	require.NoError(t, err)

	bus := events.NewBus()
	local := simulator.New(simulator.Config{MaxQubits: 10, Seed: 17}, zerolog.Nop())
	service := qaoa.NewService(qaoa.ServiceConfig{
		Local:  local,
		Runs:   repo,
		Events: events.NewManager(bus, zerolog.Nop()),
		Seed:   17,
		Log:    zerolog.Nop(),
	})

	return New(Config{
		Log: zerolog.Nop(),
		Config: &config.Config{
			Port:           8000,
			DefaultBackend: config.BackendSimulator,
			MaxQubits:      10,
			DevMode:        true,
		},
		Service:  service,
		RunsRepo: repo,
		EventBus: bus,
	})
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := setupServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, config.BackendSimulator, body["backend"])
	}
}

func TestRootListsEndpoints(t *testing.T) {
	s := setupServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "running", body["status"])
	assert.Contains(t, body["endpoints"], "/api/solve-qaoa")
}

func TestSolveRouteIsWired(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/solve-qaoa",
		strings.NewReader(`{"expression": "x[0]", "maxiter": 10, "shots": 100}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])

	// The completed run is immediately visible through the history routes
	runID, _ := body["run_id"].(string)
	require.NotEmpty(t, runID)

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+runID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateQuboRouteIsWired(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate-qubo",
		strings.NewReader(`{"expression": "x[0] + x[1]"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSystemStatus(t *testing.T) {
	s := setupServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, config.BackendSimulator, status.DefaultBackend)
	assert.Equal(t, 10, status.MaxQubits)
	assert.GreaterOrEqual(t, status.UptimeHours, 0.0)
}

func TestEventsStreamHandshake(t *testing.T) {
	s := setupServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events/stream", nil).WithContext(ctx)
	rec := doRequest(s, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "connected")
}

func TestUnknownRouteIs404(t *testing.T) {
	s := setupServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
