package qubo

import (
	"sort"
	"strings"
)

// monomial is a coefficient times a product of distinct binary variables.
// Variables are kept sorted by ID; repeated factors collapse because x^2 = x
// over {0,1}.
type monomial struct {
	coeff float64
	vars  []*Variable
}

func (m *monomial) key() string {
	ids := make([]string, len(m.vars))
	for i, v := range m.vars {
		ids[i] = v.ID()
	}
	return strings.Join(ids, "*")
}

// Polynomial is a fully expanded polynomial in monomial-sum form.
// The zero value is not usable; construct via newPolynomial or the parser.
type Polynomial struct {
	terms map[string]*monomial
}

func newPolynomial() *Polynomial {
	return &Polynomial{terms: make(map[string]*monomial)}
}

func constantPolynomial(c float64) *Polynomial {
	p := newPolynomial()
	p.addTerm(c, nil)
	return p
}

func variablePolynomial(v *Variable) *Polynomial {
	p := newPolynomial()
	p.addTerm(1, []*Variable{v})
	return p
}

// addTerm accumulates coeff on the monomial over vars. vars need not be
// sorted or distinct; they are canonicalized here.
func (p *Polynomial) addTerm(coeff float64, vars []*Variable) {
	canonical := canonicalVars(vars)
	m := &monomial{coeff: coeff, vars: canonical}
	key := m.key()
	if existing, ok := p.terms[key]; ok {
		existing.coeff += coeff
		return
	}
	p.terms[key] = m
}

// canonicalVars sorts by ID and removes duplicates (binary idempotence).
func canonicalVars(vars []*Variable) []*Variable {
	if len(vars) == 0 {
		return nil
	}
	sorted := append([]*Variable(nil), vars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// Add returns p + other
func (p *Polynomial) Add(other *Polynomial) *Polynomial {
	out := newPolynomial()
	for _, m := range p.terms {
		out.addTerm(m.coeff, m.vars)
	}
	for _, m := range other.terms {
		out.addTerm(m.coeff, m.vars)
	}
	return out
}

// Sub returns p - other
func (p *Polynomial) Sub(other *Polynomial) *Polynomial {
	return p.Add(other.Scale(-1))
}

// Mul returns p * other, fully distributed
func (p *Polynomial) Mul(other *Polynomial) *Polynomial {
	out := newPolynomial()
	for _, a := range p.terms {
		for _, b := range other.terms {
			vars := make([]*Variable, 0, len(a.vars)+len(b.vars))
			vars = append(vars, a.vars...)
			vars = append(vars, b.vars...)
			out.addTerm(a.coeff*b.coeff, vars)
		}
	}
	return out
}

// Scale returns c * p
func (p *Polynomial) Scale(c float64) *Polynomial {
	out := newPolynomial()
	for _, m := range p.terms {
		out.addTerm(c*m.coeff, m.vars)
	}
	return out
}

// Pow returns p raised to a nonnegative integer power by repeated
// multiplication. Pow(0) is the constant 1.
func (p *Polynomial) Pow(exp int) *Polynomial {
	out := constantPolynomial(1)
	for i := 0; i < exp; i++ {
		out = out.Mul(p)
	}
	return out
}

// Coefficient returns the coefficient of the monomial over vars (0 if absent)
func (p *Polynomial) Coefficient(vars ...*Variable) float64 {
	m := &monomial{vars: canonicalVars(vars)}
	if existing, ok := p.terms[m.key()]; ok {
		return existing.coeff
	}
	return 0
}

// variables returns the distinct variables of all monomials with a nonzero
// coefficient, sorted by ID. Constant monomials contribute nothing.
func (p *Polynomial) variables() []*Variable {
	seen := make(map[string]*Variable)
	for _, m := range p.terms {
		if m.coeff == 0 {
			continue
		}
		for _, v := range m.vars {
			seen[v.ID()] = v
		}
	}
	out := make([]*Variable, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
