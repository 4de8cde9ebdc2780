// Package simulator evaluates circuits by exact state-vector simulation and
// exposes the backend abstraction used by the optimizer and sampler.
package simulator

import (
	"math"
	"math/bits"
	"math/cmplx"

	"github.com/aristath/qaoa/internal/modules/circuit"
	"github.com/aristath/qaoa/internal/modules/hamiltonian"
)

// state holds 2^n complex amplitudes. Basis-state index bit q is the value
// of qubit q, and character q of a bitstring corresponds to qubit q.
type state struct {
	amps      []complex128
	numQubits int
}

// newState prepares |00...0>
func newState(numQubits int) *state {
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &state{amps: amps, numQubits: numQubits}
}

// run applies a circuit's gate sequence to |00...0>
func run(c *circuit.Circuit) *state {
	s := newState(c.NumQubits)
	for _, g := range c.Gates {
		switch g.Type {
		case circuit.GateHadamard:
			s.applyH(g.Qubit)
		case circuit.GateRZ:
			s.applyRZ(g.Qubit, g.Theta)
		case circuit.GateRZZ:
			s.applyRZZ(g.Qubit, g.Qubit2, g.Theta)
		case circuit.GateRX:
			s.applyRX(g.Qubit, g.Theta)
		}
	}
	return s
}

func (s *state) applyH(q int) {
	factor := complex(1.0/math.Sqrt2, 0)
	bit := 1 << q
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			a, b := s.amps[i], s.amps[j]
			s.amps[i] = factor * (a + b)
			s.amps[j] = factor * (a - b)
		}
	}
}

// applyRZ applies diag(e^{-i theta/2}, e^{i theta/2}) on qubit q
func (s *state) applyRZ(q int, theta float64) {
	phase := cmplx.Exp(complex(0, theta/2))
	bit := 1 << q
	for i := range s.amps {
		if i&bit != 0 {
			s.amps[i] *= phase
		} else {
			s.amps[i] *= cmplx.Conj(phase)
		}
	}
}

// applyRZZ phases each basis state by e^{-i theta/2} when the two qubits
// agree and e^{+i theta/2} when they differ (exp(-i theta/2 Z⊗Z))
func (s *state) applyRZZ(q1, q2 int, theta float64) {
	phase := cmplx.Exp(complex(0, theta/2))
	conj := cmplx.Conj(phase)
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := range s.amps {
		if (i&bit1 != 0) == (i&bit2 != 0) {
			s.amps[i] *= conj
		} else {
			s.amps[i] *= phase
		}
	}
}

func (s *state) applyRX(q int, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	bit := 1 << q
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			a, b := s.amps[i], s.amps[j]
			s.amps[i] = c*a + js*b
			s.amps[j] = js*a + c*b
		}
	}
}

// probabilities returns the Born-rule distribution over basis states
func (s *state) probabilities() []float64 {
	probs := make([]float64, len(s.amps))
	for i, amp := range s.amps {
		probs[i] = real(amp)*real(amp) + imag(amp)*imag(amp)
	}
	return probs
}

// expectation computes <psi|H|psi> exactly. Each Pauli string acts as
// Z on zmask and X on xmask (disjoint by construction):
//
//	<psi|P|psi> = sum_j conj(psi[j]) * (-1)^popcount(j & zmask) * psi[j ^ xmask]
func (s *state) expectation(h *hamiltonian.Hamiltonian) float64 {
	total := 0.0
	for _, term := range h.Terms() {
		if term.Coeff == 0 {
			continue
		}
		var zmask, xmask int
		for _, q := range term.ZQubits() {
			zmask |= 1 << q
		}
		for _, q := range term.XQubits() {
			xmask |= 1 << q
		}

		value := 0.0
		for j, amp := range s.amps {
			contrib := real(cmplx.Conj(amp) * s.amps[j^xmask])
			if bits.OnesCount(uint(j&zmask))%2 == 1 {
				value -= contrib
			} else {
				value += contrib
			}
		}
		total += term.Coeff * value
	}
	return total
}
