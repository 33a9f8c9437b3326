package model

import "math"

// VarKind distinguishes continuous from binary decision variables.
type VarKind int

const (
	Continuous VarKind = iota
	Binary
)

// VarGroup is one named block variable indexed over the full time horizon.
// Bounds are held per timestep so individual hours can be pinned (e.g.
// seasonal discharge restrictions) without touching the rest of the horizon.
type VarGroup struct {
	block string
	name  string
	kind  VarKind
	n     int

	lb []float64
	ub []float64

	// arcFlow marks variables created by the assembler for fan-out arcs;
	// they are excluded from result tables by default.
	arcFlow bool
}

// NewVar declares a continuous variable group with uniform bounds over an
// n-step horizon. Use math.Inf(1) for an unlimited upper bound and
// math.Inf(-1) for a free lower bound.
func NewVar(block, name string, n int, lb, ub float64) *VarGroup {
	g := &VarGroup{
		block: block,
		name:  name,
		kind:  Continuous,
		n:     n,
		lb:    make([]float64, n),
		ub:    make([]float64, n),
	}
	for t := 0; t < n; t++ {
		g.lb[t] = lb
		g.ub[t] = ub
	}
	return g
}

// NewNonNeg declares a continuous variable group bounded below by zero and
// unbounded above, the most common domain in the block catalog.
func NewNonNeg(block, name string, n int) *VarGroup {
	return NewVar(block, name, n, 0, math.Inf(1))
}

// NewFree declares a continuous variable group unbounded in both directions
// (balance variables).
func NewFree(block, name string, n int) *VarGroup {
	return NewVar(block, name, n, math.Inf(-1), math.Inf(1))
}

// NewBinary declares a binary (0/1) variable group.
func NewBinary(block, name string, n int) *VarGroup {
	g := NewVar(block, name, n, 0, 1)
	g.kind = Binary
	return g
}

func (g *VarGroup) Block() string { return g.block }
func (g *VarGroup) Name() string  { return g.name }
func (g *VarGroup) Kind() VarKind { return g.kind }
func (g *VarGroup) Len() int      { return g.n }

// Qualified returns the dotted "{block}.{name}" identity used for result
// table columns.
func (g *VarGroup) Qualified() string { return g.block + "." + g.name }

// IsArcFlow reports whether this group was synthesized for a fan-out arc.
func (g *VarGroup) IsArcFlow() bool { return g.arcFlow }

// Bounds returns the bounds at timestep t.
func (g *VarGroup) Bounds(t int) (lb, ub float64) { return g.lb[t], g.ub[t] }

// SetBounds overrides the bounds at timestep t.
func (g *VarGroup) SetBounds(t int, lb, ub float64) {
	g.lb[t] = lb
	g.ub[t] = ub
}

// FixZero pins the variable to zero at timestep t.
func (g *VarGroup) FixZero(t int) { g.SetBounds(t, 0, 0) }
