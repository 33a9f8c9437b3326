package model

import "fmt"

// Row is one compiled constraint row in sparse form.
type Row struct {
	Name   string
	Cols   []int
	Coeffs []float64
	Sense  Sense
	RHS    float64
}

// MIP is the flat mixed-integer program handed to a solver adapter: an
// objective vector, sparse rows, per-column bounds and integrality markers.
// Column j of variable group g at timestep t is m.Column(g, t).
type MIP struct {
	Cols     int
	Obj      []float64
	ObjConst float64
	LB       []float64
	UB       []float64
	Integer  []bool
	Names    []string
	Rows     []Row

	base   map[*VarGroup]int
	groups []*VarGroup
}

// Column returns the column index of group g at timestep t.
func (m *MIP) Column(g *VarGroup, t int) int {
	base, ok := m.base[g]
	if !ok {
		panic(fmt.Sprintf("model: variable group %s not part of compiled program", g.Qualified()))
	}
	return base + t
}

// Groups returns the compiled variable groups in column order.
func (m *MIP) Groups() []*VarGroup { return m.groups }

// NumBinaries counts the integer columns.
func (m *MIP) NumBinaries() int {
	n := 0
	for _, b := range m.Integer {
		if b {
			n++
		}
	}
	return n
}

// Value reads the solution value of group g at timestep t from a solver's
// column-value vector.
func (m *MIP) Value(values []float64, g *VarGroup, t int) float64 {
	return values[m.Column(g, t)]
}

// Compile flattens the finalized system into a MIP. Columns are assigned in
// variable declaration order, rows in constraint declaration order, so the
// layout is reproducible across runs.
func (s *System) Compile() (*MIP, error) {
	if !s.finalized {
		return nil, fmt.Errorf("compile: system not finalized")
	}

	groups := s.VarGroups()
	m := &MIP{
		base:   make(map[*VarGroup]int, len(groups)),
		groups: groups,
	}
	for _, g := range groups {
		m.base[g] = m.Cols
		m.Cols += g.Len()
	}

	m.Obj = make([]float64, m.Cols)
	m.LB = make([]float64, m.Cols)
	m.UB = make([]float64, m.Cols)
	m.Integer = make([]bool, m.Cols)
	m.Names = make([]string, m.Cols)
	for _, g := range groups {
		for t := 0; t < g.Len(); t++ {
			j := m.Column(g, t)
			m.LB[j], m.UB[j] = g.Bounds(t)
			m.Integer[j] = g.Kind() == Binary
			m.Names[j] = fmt.Sprintf("%s[%d]", g.Qualified(), t)
		}
	}

	obj := s.Objective()
	for _, term := range obj.Terms {
		m.Obj[m.Column(term.Group, term.T)] += term.Coeff
	}
	m.ObjConst = obj.Const

	for _, c := range s.Constraints() {
		row, err := m.compileRow(c)
		if err != nil {
			return nil, err
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

func (m *MIP) compileRow(c Constraint) (Row, error) {
	coeffs := map[int]float64{}
	order := make([]int, 0, len(c.LHS.Terms))
	for _, term := range c.LHS.Terms {
		base, ok := m.base[term.Group]
		if !ok {
			return Row{}, fmt.Errorf("constraint %q references unknown variable group %s",
				c.Name, term.Group.Qualified())
		}
		j := base + term.T
		if _, seen := coeffs[j]; !seen {
			order = append(order, j)
		}
		coeffs[j] += term.Coeff
	}
	row := Row{
		Name:   c.Name,
		Cols:   make([]int, 0, len(order)),
		Coeffs: make([]float64, 0, len(order)),
		Sense:  c.Sense,
		RHS:    c.RHS - c.LHS.Const,
	}
	for _, j := range order {
		row.Cols = append(row.Cols, j)
		row.Coeffs = append(row.Coeffs, coeffs[j])
	}
	return row, nil
}
