package hamiltonian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qaoa/internal/modules/qubo"
)

func TestFromQUBOKnownDerivation(t *testing.T) {
	// Q = [[5, -2], [0, 3]] from "5*x[0] + 3*x[1] - 2*x[0]*x[1]"
	matrix, _, err := qubo.FromExpression("5*x[0] + 3*x[1] - 2*x[0]*x[1]")
	require.NoError(t, err)

	h, offset := FromQUBO(matrix)

	assert.Equal(t, 2, h.NumQubits())
	assert.InDelta(t, -2.0, h.Coefficient("ZI"), 1e-12)
	assert.InDelta(t, -1.0, h.Coefficient("IZ"), 1e-12)
	assert.InDelta(t, -0.5, h.Coefficient("ZZ"), 1e-12)
	assert.InDelta(t, 3.5, offset, 1e-12)
	assert.Equal(t, 3, h.Len())
}

// classicalEnergy evaluates the diagonal Hamiltonian on a computational basis
// state. Bit value 1 maps to Z eigenvalue -1.
func classicalEnergy(h *Hamiltonian, bits []int) float64 {
	total := 0.0
	for _, term := range h.Terms() {
		sign := 1.0
		for _, q := range term.ZQubits() {
			if bits[q] == 1 {
				sign = -sign
			}
		}
		total += term.Coeff * sign
	}
	return total
}

func TestFromQUBOMatchesObjectiveOnAllBitstrings(t *testing.T) {
	expressions := []string{
		"x[0]",
		"5*x[0] + 3*x[1] - 2*x[0]*x[1]",
		"(x[0] + x[1] + x[2] - 2)^2",
		"-x[0]*x[1] + 4*x[2] - x[1] + 0.5*x[0]",
	}

	for _, expr := range expressions {
		matrix, _, err := qubo.FromExpression(expr)
		require.NoError(t, err, expr)

		h, offset := FromQUBO(matrix)
		n := matrix.Size()

		for state := 0; state < 1<<n; state++ {
			bits := make([]int, n)
			for q := 0; q < n; q++ {
				bits[q] = (state >> q) & 1
			}
			assert.InDelta(t, matrix.Value(bits)-offset, classicalEnergy(h, bits), 1e-9,
				"expression %q, state %d", expr, state)
		}
	}
}

func TestAddAccumulatesAndCompacts(t *testing.T) {
	h := New(2)
	require.NoError(t, h.Add("ZI", 1.5))
	require.NoError(t, h.Add("ZI", -1.5))
	require.NoError(t, h.Add("IZ", 2.0))

	assert.Equal(t, 2, h.Len())
	h.Compact()
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 2.0, h.Coefficient("IZ"))
	assert.Equal(t, 0.0, h.Coefficient("ZI"))
}

func TestTermEnumerationOrderIsStable(t *testing.T) {
	h := New(2)
	require.NoError(t, h.Add("ZZ", 1))
	require.NoError(t, h.Add("ZI", 2))
	require.NoError(t, h.Add("IZ", 3))
	require.NoError(t, h.Add("ZZ", 1)) // accumulates, keeps position

	paulis, coeffs := h.Lists()
	assert.Equal(t, []string{"ZZ", "ZI", "IZ"}, paulis)
	assert.Equal(t, []float64{2, 2, 3}, coeffs)
}

func TestAddValidation(t *testing.T) {
	h := New(2)

	err := h.Add("Z", 1)
	assert.ErrorIs(t, err, ErrInvalidPauli)

	err = h.Add("ZIZ", 1)
	assert.ErrorIs(t, err, ErrInvalidPauli)

	err = h.Add("ZY", 1)
	assert.ErrorIs(t, err, ErrInvalidPauli)
}

func TestMixer(t *testing.T) {
	h := Mixer(3)
	paulis, coeffs := h.Lists()
	assert.Equal(t, []string{"XII", "IXI", "IIX"}, paulis)
	assert.Equal(t, []float64{1, 1, 1}, coeffs)
}

func TestFromLists(t *testing.T) {
	h, err := FromLists(2, []string{"ZI", "IZ", "ZZ"}, []float64{-2.0, -1.0, -0.5})
	require.NoError(t, err)
	assert.Equal(t, 2, h.NumQubits())
	assert.Equal(t, -2.0, h.Coefficient("ZI"))

	// Duplicates sum
	h, err = FromLists(1, []string{"Z", "Z"}, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3.0, h.Coefficient("Z"))
	assert.Equal(t, 1, h.Len())
}

func TestFromListsErrors(t *testing.T) {
	_, err := FromLists(2, []string{"ZI"}, []float64{1, 2})
	assert.Error(t, err)

	_, err = FromLists(2, nil, nil)
	assert.Error(t, err)

	_, err = FromLists(2, []string{"ZIZ"}, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidPauli)
}

func TestTermQubitPositions(t *testing.T) {
	term := Term{Pauli: "ZIZX", Coeff: 1}
	assert.Equal(t, []int{0, 2}, term.ZQubits())
	assert.Equal(t, []int{3}, term.XQubits())
}
