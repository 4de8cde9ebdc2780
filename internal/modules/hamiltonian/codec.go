package hamiltonian

import (
	"fmt"
)

// The API boundary exchanges Hamiltonians as parallel arrays of Pauli
// strings and coefficients, e.g. paulis=["ZI","IZ","ZZ"],
// coeffs=[-2.0,-1.0,-0.5].

// FromLists decodes the parallel-array form. Duplicate Pauli strings are
// coefficient-summed. numQubits must match the width of every string.
func FromLists(numQubits int, paulis []string, coeffs []float64) (*Hamiltonian, error) {
	if len(paulis) != len(coeffs) {
		return nil, fmt.Errorf("paulis and coeffs length mismatch: %d vs %d", len(paulis), len(coeffs))
	}
	if len(paulis) == 0 {
		return nil, fmt.Errorf("hamiltonian has no terms")
	}

	h := New(numQubits)
	for i, pauli := range paulis {
		if err := h.Add(pauli, coeffs[i]); err != nil {
			return nil, fmt.Errorf("term %d: %w", i, err)
		}
	}
	return h, nil
}

// Lists encodes the Hamiltonian into the parallel-array form, in stable
// enumeration order.
func (h *Hamiltonian) Lists() ([]string, []float64) {
	terms := h.Terms()
	paulis := make([]string, len(terms))
	coeffs := make([]float64, len(terms))
	for i, t := range terms {
		paulis[i] = t.Pauli
		coeffs[i] = t.Coeff
	}
	return paulis, coeffs
}
