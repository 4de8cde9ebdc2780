package qubo

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrDegreeViolation is returned when a monomial touches three or more
// distinct variables. QUBO is quadratic by definition; this is a hard
// boundary, not recoverable.
var ErrDegreeViolation = errors.New("unsupported term degree: QUBO terms may touch at most 2 variables")

// Matrix is an upper-triangular QUBO coefficient matrix. Q[i][i] holds
// linear coefficients, Q[i][j] with i<j holds cross terms. Entries below the
// diagonal are always zero.
type Matrix struct {
	n int
	q *mat.Dense
}

// Size returns the matrix dimension (number of variables / qubits)
func (m *Matrix) Size() int {
	return m.n
}

// At returns Q[i][j]
func (m *Matrix) At(i, j int) float64 {
	return m.q.At(i, j)
}

// Dense returns a copy of the matrix as a gonum Dense matrix
func (m *Matrix) Dense() *mat.Dense {
	return mat.DenseCopyOf(m.q)
}

// Rows returns the matrix as a row-major slice of slices (for JSON encoding)
func (m *Matrix) Rows() [][]float64 {
	rows := make([][]float64, m.n)
	for i := 0; i < m.n; i++ {
		rows[i] = make([]float64, m.n)
		for j := 0; j < m.n; j++ {
			rows[i][j] = m.q.At(i, j)
		}
	}
	return rows
}

// Value evaluates the QUBO objective sum(Q[i][i]*x_i) + sum(Q[i][j]*x_i*x_j)
// for a binary assignment. bits[i] is the value of the variable mapped to
// index i.
func (m *Matrix) Value(bits []int) float64 {
	total := 0.0
	for i := 0; i < m.n; i++ {
		if bits[i] == 0 {
			continue
		}
		total += m.q.At(i, i)
		for j := i + 1; j < m.n; j++ {
			if bits[j] != 0 {
				total += m.q.At(i, j)
			}
		}
	}
	return total
}

func (m *Matrix) add(i, j int, coeff float64) {
	m.q.Set(i, j, m.q.At(i, j)+coeff)
}

// Build converts a fully expanded polynomial into a QUBO matrix and the
// index-to-variable assignment. Indices are assigned by sorting variable
// identifiers lexicographically; the assignment is deterministic for repeated
// calls with the same polynomial. Constant monomials are dropped (they only
// shift the objective by a global offset).
func Build(p *Polynomial) (*Matrix, map[int]*Variable, error) {
	for _, m := range p.terms {
		if m.coeff != 0 && len(m.vars) > 2 {
			return nil, nil, fmt.Errorf("monomial %q touches %d variables: %w",
				m.key(), len(m.vars), ErrDegreeViolation)
		}
	}

	vars := p.variables()
	n := len(vars)
	if n == 0 {
		return nil, nil, fmt.Errorf("expression contains no variables")
	}

	indexOf := make(map[string]int, n)
	indexToVar := make(map[int]*Variable, n)
	for i, v := range vars {
		indexOf[v.ID()] = i
		indexToVar[i] = v
	}

	matrix := &Matrix{n: n, q: mat.NewDense(n, n, nil)}

	for _, m := range p.terms {
		if m.coeff == 0 {
			continue
		}
		switch len(m.vars) {
		case 0:
			// Global energy offset, irrelevant to argmin
		case 1:
			i := indexOf[m.vars[0].ID()]
			matrix.add(i, i, m.coeff)
		case 2:
			i := indexOf[m.vars[0].ID()]
			j := indexOf[m.vars[1].ID()]
			if i > j {
				i, j = j, i
			}
			matrix.add(i, j, m.coeff)
		}
	}

	return matrix, indexToVar, nil
}

// FromExpression parses an expression with a fresh registry and builds its
// QUBO matrix. This is the one-shot entry point used by the API layer.
func FromExpression(expression string) (*Matrix, map[int]*Variable, error) {
	registry := NewRegistry()
	poly, err := Parse(expression, registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse expression: %w", err)
	}
	matrix, indexToVar, err := Build(poly)
	if err != nil {
		return nil, nil, err
	}
	return matrix, indexToVar, nil
}
