package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/qaoa/internal/modules/circuit"
	"github.com/aristath/qaoa/internal/modules/hamiltonian"
)

// RemoteBackend delegates circuit evaluation to a remote evaluator service.
// Submission, hardware queuing and retries all live on the remote side; this
// client makes one synchronous request per call and surfaces failures
// explicitly. A failed call aborts the in-progress optimization run; no
// default value is ever substituted.
type RemoteBackend struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewRemoteBackend creates a client for a remote evaluator service
func NewRemoteBackend(baseURL string, log zerolog.Logger) *RemoteBackend {
	return &RemoteBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		log:     log.With().Str("backend", "remote").Str("url", baseURL).Logger(),
	}
}

type remoteEvaluateRequest struct {
	Circuit *circuit.Circuit `json:"circuit"`
	Paulis  []string         `json:"paulis"`
	Coeffs  []float64        `json:"coeffs"`
}

type remoteEvaluateResponse struct {
	Expectation float64 `json:"expectation"`
	Error       string  `json:"error,omitempty"`
}

type remoteSampleRequest struct {
	Circuit *circuit.Circuit `json:"circuit"`
	Shots   int              `json:"shots"`
}

type remoteSampleResponse struct {
	Counts map[string]int `json:"counts"`
	Error  string         `json:"error,omitempty"`
}

// Evaluate requests an expectation value from the remote evaluator
func (b *RemoteBackend) Evaluate(ctx context.Context, c *circuit.Circuit, h *hamiltonian.Hamiltonian) (float64, error) {
	paulis, coeffs := h.Lists()
	var result remoteEvaluateResponse
	err := b.post(ctx, "/api/evaluate", remoteEvaluateRequest{
		Circuit: c,
		Paulis:  paulis,
		Coeffs:  coeffs,
	}, &result)
	if err != nil {
		return 0, fmt.Errorf("remote evaluation failed: %w", err)
	}
	if result.Error != "" {
		return 0, fmt.Errorf("remote evaluation failed: %s", result.Error)
	}
	return result.Expectation, nil
}

// Sample requests measurement counts from the remote evaluator
func (b *RemoteBackend) Sample(ctx context.Context, c *circuit.Circuit, shots int) (Counts, error) {
	var result remoteSampleResponse
	err := b.post(ctx, "/api/sample", remoteSampleRequest{
		Circuit: c,
		Shots:   shots,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("remote sampling failed: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("remote sampling failed: %s", result.Error)
	}

	counts := make(Counts, len(result.Counts))
	total := 0
	for bitstring, count := range result.Counts {
		counts[bitstring] = count
		total += count
	}
	if total != shots {
		return nil, fmt.Errorf("remote counts sum to %d, expected %d shots", total, shots)
	}
	return counts, nil
}

func (b *RemoteBackend) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	b.log.Debug().Str("path", path).Msg("Submitting to remote evaluator")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("evaluator returned status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
