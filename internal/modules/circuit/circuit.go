// Package circuit describes QAOA circuits as ordered gate sequences and
// builds them from cost Hamiltonians.
package circuit

import (
	"errors"
	"fmt"

	"github.com/aristath/qaoa/internal/modules/hamiltonian"
)

// GateType identifies one of the restricted gate set required by
// diagonal-Ising cost Hamiltonians.
type GateType string

const (
	// GateHadamard prepares a uniform superposition on one qubit
	GateHadamard GateType = "H"
	// GateRZ is a single-qubit Z rotation
	GateRZ GateType = "RZ"
	// GateRZZ is a two-qubit ZZ rotation
	GateRZZ GateType = "RZZ"
	// GateRX is a single-qubit X rotation
	GateRX GateType = "RX"
)

// Gate is one operation in a circuit. Qubit2 is only meaningful for RZZ.
type Gate struct {
	Type   GateType `json:"type"`
	Qubit  int      `json:"qubit"`
	Qubit2 int      `json:"qubit2,omitempty"`
	Theta  float64  `json:"theta,omitempty"`
}

// Circuit is an ordered gate sequence over a fixed qubit count. Immutable
// once built for a given parameter vector.
type Circuit struct {
	NumQubits int    `json:"num_qubits"`
	Gates     []Gate `json:"gates"`
	// Layers counts logical layers: 1 init + depth cost + depth mixer
	Layers int `json:"layers"`
}

// ErrParameterCount is returned when gamma/beta lengths do not match the
// declared depth. This is a caller error.
var ErrParameterCount = errors.New("parameter count mismatch")

// Ansatz builds layered QAOA circuits for a cost Hamiltonian. The mixer is
// fixed: one unit-coefficient X per qubit.
type Ansatz struct {
	cost  *hamiltonian.Hamiltonian
	mixer *hamiltonian.Hamiltonian
	depth int
}

// NewAnsatz creates an ansatz of the given depth (p >= 1)
func NewAnsatz(cost *hamiltonian.Hamiltonian, depth int) (*Ansatz, error) {
	if depth < 1 {
		return nil, fmt.Errorf("depth must be >= 1, got %d", depth)
	}
	if cost.NumQubits() < 1 {
		return nil, fmt.Errorf("hamiltonian must cover at least 1 qubit")
	}
	return &Ansatz{
		cost:  cost,
		mixer: hamiltonian.Mixer(cost.NumQubits()),
		depth: depth,
	}, nil
}

// Depth returns the number of cost/mixer layer pairs
func (a *Ansatz) Depth() int {
	return a.depth
}

// Build constructs the circuit for the given parameter vectors. gamma and
// beta must each have length equal to the ansatz depth.
func (a *Ansatz) Build(gamma, beta []float64) (*Circuit, error) {
	if len(gamma) != a.depth || len(beta) != a.depth {
		return nil, fmt.Errorf("%w: expected %d parameters, got gamma=%d beta=%d",
			ErrParameterCount, a.depth, len(gamma), len(beta))
	}

	n := a.cost.NumQubits()
	c := &Circuit{NumQubits: n}

	// Uniform superposition init
	for q := 0; q < n; q++ {
		c.Gates = append(c.Gates, Gate{Type: GateHadamard, Qubit: q})
	}
	c.Layers++

	for layer := 0; layer < a.depth; layer++ {
		if err := applyHamiltonian(c, a.cost, gamma[layer]); err != nil {
			return nil, err
		}
		c.Layers++
		if err := applyHamiltonian(c, a.mixer, beta[layer]); err != nil {
			return nil, err
		}
		c.Layers++
	}

	return c, nil
}

// applyHamiltonian appends the rotation gates for one evolution layer.
// Each term with one Z becomes RZ(2*angle*coeff), two Z's become
// RZZ(2*angle*coeff), a single X becomes RX(2*angle*coeff). Terms are
// visited in the Hamiltonian's stable enumeration order.
func applyHamiltonian(c *Circuit, h *hamiltonian.Hamiltonian, angle float64) error {
	for _, term := range h.Terms() {
		theta := 2 * angle * term.Coeff
		zQubits := term.ZQubits()
		xQubits := term.XQubits()

		switch {
		case len(zQubits) == 1 && len(xQubits) == 0:
			c.Gates = append(c.Gates, Gate{Type: GateRZ, Qubit: zQubits[0], Theta: theta})
		case len(zQubits) == 2 && len(xQubits) == 0:
			c.Gates = append(c.Gates, Gate{Type: GateRZZ, Qubit: zQubits[0], Qubit2: zQubits[1], Theta: theta})
		case len(zQubits) == 0 && len(xQubits) == 1:
			c.Gates = append(c.Gates, Gate{Type: GateRX, Qubit: xQubits[0], Theta: theta})
		default:
			return fmt.Errorf("term %q is outside the supported gate set (single Z, ZZ pair, single X)", term.Pauli)
		}
	}
	return nil
}
