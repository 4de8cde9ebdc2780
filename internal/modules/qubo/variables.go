// Package qubo converts polynomial expressions over binary variables into
// QUBO coefficient matrices.
package qubo

import (
	"sort"
	"strconv"
	"strings"
)

// Variable is a binary decision variable identified by a name and an index
// tuple (e.g. x[0,1]). Instances are owned by a Registry; two lookups of the
// same name and indices return the same *Variable.
type Variable struct {
	Name    string
	Indices []int

	id string
}

// ID returns the stable identifier of the variable, e.g. "x_0_1".
// Identifiers define the lexicographic order that fixes qubit assignment.
func (v *Variable) ID() string {
	return v.id
}

func variableID(name string, indices []int) string {
	if len(indices) == 0 {
		return name
	}
	var sb strings.Builder
	sb.WriteString(name)
	for _, idx := range indices {
		sb.WriteByte('_')
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}

// Registry creates and caches variables for one problem-building session.
// Variables are materialized lazily on first lookup.
type Registry struct {
	vars map[string]*Variable
}

// NewRegistry creates an empty variable registry
func NewRegistry() *Registry {
	return &Registry{
		vars: make(map[string]*Variable),
	}
}

// Lookup returns the variable for (name, indices), creating it on first use
func (r *Registry) Lookup(name string, indices ...int) *Variable {
	id := variableID(name, indices)
	if v, ok := r.vars[id]; ok {
		return v
	}
	v := &Variable{
		Name:    name,
		Indices: append([]int(nil), indices...),
		id:      id,
	}
	r.vars[id] = v
	return v
}

// Variables returns all registered variables sorted by identifier
func (r *Registry) Variables() []*Variable {
	out := make([]*Variable, 0, len(r.vars))
	for _, v := range r.vars {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Len returns the number of registered variables
func (r *Registry) Len() int {
	return len(r.vars)
}
