package qubo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatrixFromExpression(t *testing.T) {
	matrix, vars, err := FromExpression("5*x[0] + 3*x[1] - 2*x[0]*x[1]")
	require.NoError(t, err)

	assert.Equal(t, 2, matrix.Size())
	assert.Equal(t, 5.0, matrix.At(0, 0))
	assert.Equal(t, 3.0, matrix.At(1, 1))
	assert.Equal(t, -2.0, matrix.At(0, 1))
	assert.Equal(t, 0.0, matrix.At(1, 0), "lower triangle stays zero")

	assert.Equal(t, "x_0", vars[0].ID())
	assert.Equal(t, "x_1", vars[1].ID())
}

func TestQubitAssignmentIsLexicographic(t *testing.T) {
	matrix, vars, err := FromExpression("z + 2*a + 3*b[0]")
	require.NoError(t, err)

	require.Equal(t, 3, matrix.Size())
	assert.Equal(t, "a", vars[0].ID())
	assert.Equal(t, "b_0", vars[1].ID())
	assert.Equal(t, "z", vars[2].ID())

	assert.Equal(t, 2.0, matrix.At(0, 0))
	assert.Equal(t, 3.0, matrix.At(1, 1))
	assert.Equal(t, 1.0, matrix.At(2, 2))
}

func TestBuildIsDeterministic(t *testing.T) {
	expr := "x[1]*x[0] + 2*x[2] - x[0]"

	first, _, err := FromExpression(expr)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, _, err := FromExpression(expr)
		require.NoError(t, err)
		assert.Equal(t, first.Rows(), again.Rows())
	}
}

func TestBuildRejectsCubicTerms(t *testing.T) {
	_, _, err := FromExpression("x[0]*x[1]*x[2]")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegreeViolation)
}

func TestBuildAllowsCancelledCubicTerms(t *testing.T) {
	// The cubic monomial nets to zero, so the polynomial is effectively
	// quadratic and must be accepted.
	matrix, _, err := FromExpression("x[0]*x[1]*x[2] - x[0]*x[1]*x[2] + x[0]")
	require.NoError(t, err)
	assert.Equal(t, 1, matrix.Size())
	assert.Equal(t, 1.0, matrix.At(0, 0))
}

func TestBuildDropsConstants(t *testing.T) {
	matrix, _, err := FromExpression("x[0] + 7")
	require.NoError(t, err)
	assert.Equal(t, 1, matrix.Size())
	assert.Equal(t, 1.0, matrix.At(0, 0))
}

func TestBuildRequiresVariables(t *testing.T) {
	_, _, err := FromExpression("3 + 4")
	assert.Error(t, err)
}

func TestMatrixValue(t *testing.T) {
	matrix, _, err := FromExpression("5*x[0] + 3*x[1] - 2*x[0]*x[1]")
	require.NoError(t, err)

	tests := []struct {
		bits []int
		want float64
	}{
		{[]int{0, 0}, 0},
		{[]int{1, 0}, 5},
		{[]int{0, 1}, 3},
		{[]int{1, 1}, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matrix.Value(tt.bits))
	}
}

func TestPolynomialArithmetic(t *testing.T) {
	registry := NewRegistry()
	x0 := registry.Lookup("x", 0)
	x1 := registry.Lookup("x", 1)

	a := variablePolynomial(x0).Scale(2)                      // 2*x0
	b := variablePolynomial(x1).Add(constantPolynomial(1))    // x1 + 1
	product := a.Mul(b)                                       // 2*x0*x1 + 2*x0
	result := product.Sub(variablePolynomial(x0).Scale(2))    // 2*x0*x1

	assert.Equal(t, 2.0, result.Coefficient(x0, x1))
	assert.Equal(t, 0.0, result.Coefficient(x0))

	square := b.Pow(2) // x1^2 + 2*x1 + 1 = 3*x1 + 1
	assert.Equal(t, 3.0, square.Coefficient(x1))
	assert.Equal(t, 1.0, square.Coefficient())
}
