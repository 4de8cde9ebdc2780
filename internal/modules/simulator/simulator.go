package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/qaoa/internal/modules/circuit"
	"github.com/aristath/qaoa/internal/modules/hamiltonian"
)

// Counts maps measured bitstrings to occurrence counts. Character q of a
// bitstring is the measured value of qubit q.
type Counts map[string]int

// TotalShots returns the sum of all counts
func (c Counts) TotalShots() int {
	total := 0
	for _, count := range c {
		total += count
	}
	return total
}

// Config holds simulator configuration
type Config struct {
	// MaxQubits is the exact-simulation ceiling. State size is 2^n, so this
	// bounds the whole system's problem size.
	MaxQubits int
	// Seed makes sampling reproducible; 0 seeds from the clock.
	Seed int64
}

// Simulator is the local exact state-vector backend
type Simulator struct {
	maxQubits int
	rng       *rand.Rand
	mu        sync.Mutex
	log       zerolog.Logger
}

// New creates a local simulator backend
func New(cfg Config, log zerolog.Logger) *Simulator {
	maxQubits := cfg.MaxQubits
	if maxQubits <= 0 {
		maxQubits = 20
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		maxQubits: maxQubits,
		rng:       rand.New(rand.NewSource(seed)),
		log:       log.With().Str("backend", "simulator").Logger(),
	}
}

func (s *Simulator) checkSize(numQubits int) error {
	if numQubits < 1 {
		return fmt.Errorf("circuit must have at least 1 qubit")
	}
	if numQubits > s.maxQubits {
		return fmt.Errorf("circuit has %d qubits, exact simulation is capped at %d", numQubits, s.maxQubits)
	}
	return nil
}

// Evaluate computes the exact expectation value <psi|H|psi> of the
// Hamiltonian against the circuit's output state.
func (s *Simulator) Evaluate(ctx context.Context, c *circuit.Circuit, h *hamiltonian.Hamiltonian) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.checkSize(c.NumQubits); err != nil {
		return 0, err
	}
	if h.NumQubits() != c.NumQubits {
		return 0, fmt.Errorf("hamiltonian covers %d qubits, circuit has %d", h.NumQubits(), c.NumQubits)
	}

	return run(c).expectation(h), nil
}

// Sample draws shots independent measurements from the circuit's output
// distribution. Counts always sum to shots.
func (s *Simulator) Sample(ctx context.Context, c *circuit.Circuit, shots int) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkSize(c.NumQubits); err != nil {
		return nil, err
	}
	if shots < 1 {
		return nil, fmt.Errorf("shots must be positive, got %d", shots)
	}

	probs := run(c).probabilities()

	// Cumulative distribution for categorical draws
	cumulative := make([]float64, len(probs))
	total := 0.0
	for i, p := range probs {
		total += p
		cumulative[i] = total
	}
	// Guard the final bucket against floating-point shortfall
	cumulative[len(cumulative)-1] = total

	counts := make(Counts)
	s.mu.Lock()
	for i := 0; i < shots; i++ {
		r := s.rng.Float64() * total
		idx := sort.SearchFloat64s(cumulative, r)
		if idx >= len(probs) {
			idx = len(probs) - 1
		}
		// SearchFloat64s finds the first cumulative >= r; advance past
		// zero-probability buckets that share the same cumulative value.
		for probs[idx] == 0 && idx < len(probs)-1 {
			idx++
		}
		counts[FormatBitstring(idx, c.NumQubits)]++
	}
	s.mu.Unlock()

	s.log.Debug().
		Int("shots", shots).
		Int("outcomes", len(counts)).
		Msg("Sampled circuit")

	return counts, nil
}

// FormatBitstring renders a basis-state index as a bitstring where character
// q is the value of qubit q ("10" means qubit0=1, qubit1=0).
func FormatBitstring(basisState, numQubits int) string {
	buf := make([]byte, numQubits)
	for q := 0; q < numQubits; q++ {
		if basisState&(1<<q) != 0 {
			buf[q] = '1'
		} else {
			buf[q] = '0'
		}
	}
	return string(buf)
}

// ParseBitstring is the inverse of FormatBitstring
func ParseBitstring(bitstring string) (int, error) {
	basisState := 0
	for q := 0; q < len(bitstring); q++ {
		switch bitstring[q] {
		case '1':
			basisState |= 1 << q
		case '0':
		default:
			return 0, fmt.Errorf("invalid bitstring %q", bitstring)
		}
	}
	return basisState, nil
}
