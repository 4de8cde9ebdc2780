// Package hamiltonian represents cost operators as weighted sums of Pauli
// strings and maps QUBO matrices onto them.
package hamiltonian

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/qaoa/internal/modules/qubo"
)

// Pauli symbols. Index i of a Pauli string is the operator on qubit i,
// so "ZI" is Z on qubit 0 of a 2-qubit system.
const (
	SymbolI = 'I'
	SymbolZ = 'Z'
	SymbolX = 'X'
)

// ErrInvalidPauli is returned for malformed Pauli strings
var ErrInvalidPauli = errors.New("invalid Pauli string")

// Term is one weighted Pauli string of a Hamiltonian
type Term struct {
	Pauli string
	Coeff float64
}

// ZQubits returns the qubit positions carrying a Z operator
func (t Term) ZQubits() []int {
	return symbolPositions(t.Pauli, SymbolZ)
}

// XQubits returns the qubit positions carrying an X operator
func (t Term) XQubits() []int {
	return symbolPositions(t.Pauli, SymbolX)
}

func symbolPositions(pauli string, symbol byte) []int {
	var out []int
	for i := 0; i < len(pauli); i++ {
		if pauli[i] == symbol {
			out = append(out, i)
		}
	}
	return out
}

// Hamiltonian is a mapping from Pauli strings to real coefficients.
// Term enumeration order is the insertion order of first occurrence, so two
// identically constructed Hamiltonians enumerate identically; downstream
// circuit construction relies on this for reproducibility.
type Hamiltonian struct {
	numQubits int
	order     []string
	coeffs    map[string]float64
}

// New creates an empty Hamiltonian over numQubits qubits
func New(numQubits int) *Hamiltonian {
	return &Hamiltonian{
		numQubits: numQubits,
		coeffs:    make(map[string]float64),
	}
}

// NumQubits returns the qubit count
func (h *Hamiltonian) NumQubits() int {
	return h.numQubits
}

// Len returns the number of stored terms (including zero-coefficient ones)
func (h *Hamiltonian) Len() int {
	return len(h.order)
}

// Add accumulates coeff onto the given Pauli string. Duplicate strings sum.
func (h *Hamiltonian) Add(pauli string, coeff float64) error {
	if err := h.validate(pauli); err != nil {
		return err
	}
	if _, ok := h.coeffs[pauli]; !ok {
		h.order = append(h.order, pauli)
	}
	h.coeffs[pauli] += coeff
	return nil
}

// Coefficient returns the net coefficient for a Pauli string (0 if absent)
func (h *Hamiltonian) Coefficient(pauli string) float64 {
	return h.coeffs[pauli]
}

// Terms returns the terms in stable enumeration order
func (h *Hamiltonian) Terms() []Term {
	out := make([]Term, 0, len(h.order))
	for _, pauli := range h.order {
		out = append(out, Term{Pauli: pauli, Coeff: h.coeffs[pauli]})
	}
	return out
}

// Compact removes terms whose net coefficient is exactly zero
func (h *Hamiltonian) Compact() {
	kept := h.order[:0]
	for _, pauli := range h.order {
		if h.coeffs[pauli] != 0 {
			kept = append(kept, pauli)
		} else {
			delete(h.coeffs, pauli)
		}
	}
	h.order = kept
}

func (h *Hamiltonian) validate(pauli string) error {
	if len(pauli) != h.numQubits {
		return fmt.Errorf("%w: %q has width %d, want %d", ErrInvalidPauli, pauli, len(pauli), h.numQubits)
	}
	for i := 0; i < len(pauli); i++ {
		switch pauli[i] {
		case SymbolI, SymbolZ, SymbolX:
		default:
			return fmt.Errorf("%w: %q contains symbol %q (allowed: I, Z, X)", ErrInvalidPauli, pauli, pauli[i])
		}
	}
	return nil
}

// singleZ builds an n-wide Pauli string with Z on qubit q
func singleZ(n, q int) string {
	return singleSymbol(n, q, SymbolZ)
}

// singleSymbol builds an n-wide identity string with one symbol at position q
func singleSymbol(n, q int, symbol byte) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i == q {
			sb.WriteByte(symbol)
		} else {
			sb.WriteByte(SymbolI)
		}
	}
	return sb.String()
}

// doubleZ builds an n-wide Pauli string with Z on qubits q1 and q2
func doubleZ(n, q1, q2 int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i == q1 || i == q2 {
			sb.WriteByte(SymbolZ)
		} else {
			sb.WriteByte(SymbolI)
		}
	}
	return sb.String()
}

// FromQUBO maps a QUBO matrix onto an Ising cost Hamiltonian by substituting
// x_i = (1 - z_i)/2, where z_i is the Z eigenvalue on qubit i:
//
//	Q[i][i]*x_i        -> -0.5*Q[i][i]*Z_i                         (+0.5*Q[i][i])
//	Q[i][j]*x_i*x_j    ->  0.25*Q[i][j]*(Z_i Z_j - Z_i - Z_j)      (+0.25*Q[i][j])
//
// The parenthesized constants are not part of the operator; they are summed
// and returned as the offset. The Hamiltonian's diagonal expectation for any
// bitstring equals the QUBO objective minus that offset. Zero net
// coefficients are removed from the result.
func FromQUBO(matrix *qubo.Matrix) (*Hamiltonian, float64) {
	n := matrix.Size()
	h := New(n)
	offset := 0.0

	for i := 0; i < n; i++ {
		if c := matrix.At(i, i); c != 0 {
			_ = h.Add(singleZ(n, i), -0.5*c)
			offset += 0.5 * c
		}
		for j := i + 1; j < n; j++ {
			c := matrix.At(i, j)
			if c == 0 {
				continue
			}
			_ = h.Add(doubleZ(n, i, j), 0.25*c)
			_ = h.Add(singleZ(n, i), -0.25*c)
			_ = h.Add(singleZ(n, j), -0.25*c)
			offset += 0.25 * c
		}
	}

	h.Compact()
	return h, offset
}

// Mixer builds the standard QAOA mixer: one unit-coefficient X per qubit
func Mixer(numQubits int) *Hamiltonian {
	h := New(numQubits)
	for q := 0; q < numQubits; q++ {
		_ = h.Add(singleSymbol(numQubits, q, SymbolX), 1.0)
	}
	return h
}
