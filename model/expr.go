package model

// Term is one linear coefficient on a variable group at a single timestep.
type Term struct {
	Group *VarGroup
	T     int
	Coeff float64
}

// Expr is a linear expression over time-indexed variables plus a constant.
// The zero value is the constant expression 0.
type Expr struct {
	Terms []Term
	Const float64
}

// Lin returns an empty linear expression for builder-style chaining.
func Lin() Expr {
	return Expr{}
}

// Add appends coeff * group[t] to the expression and returns it.
func (e Expr) Add(group *VarGroup, t int, coeff float64) Expr {
	e.Terms = append(e.Terms, Term{Group: group, T: t, Coeff: coeff})
	return e
}

// AddConst adds a constant offset to the expression and returns it.
func (e Expr) AddConst(c float64) Expr {
	e.Const += c
	return e
}

// IsZero reports whether the expression is the constant 0.
func (e Expr) IsZero() bool {
	return len(e.Terms) == 0 && e.Const == 0
}

// Eval computes the expression value under the given variable assignment.
func (e Expr) Eval(value func(g *VarGroup, t int) float64) float64 {
	v := e.Const
	for _, term := range e.Terms {
		v += term.Coeff * value(term.Group, term.T)
	}
	return v
}

// Sense is the relation of a constraint's expression to its right-hand side.
type Sense int

const (
	Eq Sense = iota // expression == rhs
	Le              // expression <= rhs
	Ge              // expression >= rhs
)

func (s Sense) String() string {
	switch s {
	case Eq:
		return "=="
	case Le:
		return "<="
	case Ge:
		return ">="
	}
	return "?"
}

// Constraint is a named linear (in)equality. The constant part of LHS is
// folded onto the right-hand side at compile time.
type Constraint struct {
	Name  string
	LHS   Expr
	Sense Sense
	RHS   float64
}

// EqC builds an equality constraint.
func EqC(name string, lhs Expr, rhs float64) Constraint {
	return Constraint{Name: name, LHS: lhs, Sense: Eq, RHS: rhs}
}

// LeC builds a less-or-equal constraint.
func LeC(name string, lhs Expr, rhs float64) Constraint {
	return Constraint{Name: name, LHS: lhs, Sense: Le, RHS: rhs}
}

// GeC builds a greater-or-equal constraint.
func GeC(name string, lhs Expr, rhs float64) Constraint {
	return Constraint{Name: name, LHS: lhs, Sense: Ge, RHS: rhs}
}

// Holds reports whether the constraint is satisfied at the given assignment,
// within tol.
func (c Constraint) Holds(value func(g *VarGroup, t int) float64, tol float64) bool {
	v := c.LHS.Eval(value)
	switch c.Sense {
	case Eq:
		return v >= c.RHS-tol && v <= c.RHS+tol
	case Le:
		return v <= c.RHS+tol
	case Ge:
		return v >= c.RHS-tol
	}
	return false
}
