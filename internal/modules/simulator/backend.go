package simulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/qaoa/internal/modules/circuit"
	"github.com/aristath/qaoa/internal/modules/hamiltonian"
)

// Backend evaluates circuits. The optimizer and sampler depend only on this
// interface; whether evaluation happens in-process or behind a remote queue
// is invisible to them. Both calls are synchronous: a remote implementation
// owns its own submission, queuing and retry policy and either returns a
// value or fails explicitly.
type Backend interface {
	// Evaluate returns the expectation value <psi|H|psi> for the circuit's
	// output state
	Evaluate(ctx context.Context, c *circuit.Circuit, h *hamiltonian.Hamiltonian) (float64, error)
	// Sample returns measurement counts over the circuit's output
	// distribution; counts sum to shots
	Sample(ctx context.Context, c *circuit.Circuit, shots int) (Counts, error)
}

// ErrUnsupportedBackend is returned for unknown backend selectors, before
// any computation starts.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// Selector values accepted at the API boundary
const (
	SelectorSimulator = "simulator"
	SelectorRemote    = "remote"
)

// ForSelector resolves a backend selector to an implementation. remote may
// be nil when no remote evaluator is configured.
func ForSelector(selector string, local *Simulator, remote *RemoteBackend) (Backend, error) {
	switch selector {
	case SelectorSimulator, "":
		return local, nil
	case SelectorRemote:
		if remote == nil {
			return nil, fmt.Errorf("%w: %q (no remote evaluator configured)", ErrUnsupportedBackend, selector)
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, selector)
	}
}
