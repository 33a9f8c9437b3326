// Package simplex is the bundled pure-Go MILP backend: the LP relaxation
// goes through gonum's Simplex after a standard-form conversion, and
// binaries are resolved by depth-first branch and bound. It is meant for
// tests and small scenarios; large runs go to the external backend.
package simplex

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/flexkraft/esmod/model"
	"github.com/flexkraft/esmod/solver"
)

const (
	lpTol      = 1e-9
	intTol     = 1e-6
	defaultGap = 1e-9
)

type Simplex struct{}

func New() *Simplex { return &Simplex{} }

func (s *Simplex) Name() string { return "simplex" }

func (s *Simplex) Solve(ctx context.Context, mip *model.MIP, opts solver.Options) (solver.Solution, error) {
	start := time.Now()
	deadline := time.Time{}
	if opts.TimeLimit > 0 {
		deadline = start.Add(opts.TimeLimit)
	}
	gap := opts.MIPGap
	if gap <= 0 {
		gap = defaultGap
	}

	lb := append([]float64(nil), mip.LB...)
	ub := append([]float64(nil), mip.UB...)

	bb := &brancher{mip: mip, gap: gap, deadline: deadline}
	if err := bb.run(ctx, lb, ub); err != nil {
		return solver.Solution{}, err
	}

	sol := solver.Solution{
		Stats: solver.Stats{
			Iterations: bb.lpSolves,
			Nodes:      bb.nodes,
			Duration:   time.Since(start),
		},
	}
	switch {
	case bb.timedOut && bb.incumbent == nil:
		sol.Status = solver.StatusTimeLimit
		return sol, &solver.SolveError{Solver: s.Name(), Status: solver.StatusTimeLimit,
			Detail: "no feasible point before time limit"}
	case bb.unbounded:
		sol.Status = solver.StatusUnbounded
		return sol, &solver.SolveError{Solver: s.Name(), Status: solver.StatusUnbounded}
	case bb.incumbent == nil:
		sol.Status = solver.StatusInfeasible
		return sol, &solver.SolveError{Solver: s.Name(), Status: solver.StatusInfeasible}
	}

	status := solver.StatusOptimal
	if bb.timedOut {
		status = solver.StatusTimeLimit
	}
	sol.Status = status
	sol.Objective = bb.incumbentObj + mip.ObjConst
	sol.Values = bb.incumbent
	return sol, nil
}

// brancher carries the depth-first branch and bound state.
type brancher struct {
	mip      *model.MIP
	gap      float64
	deadline time.Time

	incumbent    []float64
	incumbentObj float64
	unbounded    bool
	timedOut     bool
	lpSolves     int
	nodes        int
}

func (b *brancher) run(ctx context.Context, lb, ub []float64) error {
	b.nodes++
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.deadline.IsZero() && time.Now().After(b.deadline) {
		b.timedOut = true
		return nil
	}

	obj, x, err := b.solveRelaxation(lb, ub)
	switch {
	case err == lp.ErrInfeasible:
		return nil
	case err == lp.ErrUnbounded:
		if b.nodes == 1 {
			b.unbounded = true
		}
		return nil
	case err != nil:
		return &solver.SolveError{Solver: "simplex", Status: solver.StatusError, Detail: err.Error()}
	}

	// Bound: a node whose relaxation cannot beat the incumbent by more
	// than the gap is fathomed.
	if b.incumbent != nil && obj >= b.incumbentObj-b.gap*math.Max(1, math.Abs(b.incumbentObj)) {
		return nil
	}

	branch := -1
	worst := intTol
	for j := 0; j < b.mip.Cols; j++ {
		if !b.mip.Integer[j] {
			continue
		}
		frac := math.Abs(x[j] - math.Round(x[j]))
		if frac > worst {
			worst = frac
			branch = j
		}
	}

	if branch < 0 {
		// Integral: round binaries clean and accept as incumbent.
		for j := 0; j < b.mip.Cols; j++ {
			if b.mip.Integer[j] {
				x[j] = math.Round(x[j])
			}
		}
		if b.incumbent == nil || obj < b.incumbentObj {
			b.incumbent = x
			b.incumbentObj = obj
		}
		return nil
	}

	// Down branch first: binaries in this model are mostly off at the
	// optimum.
	for _, fix := range []float64{0, 1} {
		childLB := append([]float64(nil), lb...)
		childUB := append([]float64(nil), ub...)
		if fix < lb[branch] || fix > ub[branch] {
			continue
		}
		childLB[branch] = fix
		childUB[branch] = fix
		if err := b.run(ctx, childLB, childUB); err != nil {
			return err
		}
		if b.timedOut {
			return nil
		}
	}
	return nil
}

// solveRelaxation converts the bounded LP into gonum standard form
// (min c'y, Ay = s, y >= 0) and runs Simplex. Finite lower bounds become
// shifts, free columns split into positive and negative parts, finite upper
// bounds and inequality rows get slack columns.
func (b *brancher) solveRelaxation(lb, ub []float64) (float64, []float64, error) {
	b.lpSolves++
	m := b.mip

	pos := make([]int, m.Cols) // std column of the (shifted or positive) part
	neg := make([]int, m.Cols) // std column of the negative part, -1 if none
	cols := 0
	for j := 0; j < m.Cols; j++ {
		if lb[j] > ub[j] {
			return 0, nil, lp.ErrInfeasible
		}
		pos[j] = cols
		cols++
		if math.IsInf(lb[j], -1) {
			neg[j] = cols
			cols++
		} else {
			neg[j] = -1
		}
	}

	rows := len(m.Rows)
	for j := 0; j < m.Cols; j++ {
		if !math.IsInf(ub[j], 1) {
			rows++ // upper bound row with slack
		}
	}
	slackCols := 0
	for _, r := range m.Rows {
		if r.Sense != model.Eq {
			slackCols++
		}
	}
	for j := 0; j < m.Cols; j++ {
		if !math.IsInf(ub[j], 1) {
			slackCols++
		}
	}
	total := cols + slackCols

	// no rows at all: minimize each column against its own bounds
	if rows == 0 {
		obj := 0.0
		x := make([]float64, m.Cols)
		for j := 0; j < m.Cols; j++ {
			switch {
			case m.Obj[j] > 0:
				x[j] = lb[j]
			case m.Obj[j] < 0:
				x[j] = ub[j]
			default:
				x[j] = math.Min(math.Max(0, lb[j]), ub[j])
			}
			if math.IsInf(x[j], 0) {
				return 0, nil, lp.ErrUnbounded
			}
			obj += m.Obj[j] * x[j]
		}
		return obj, x, nil
	}

	c := make([]float64, total)
	shiftObj := 0.0
	for j := 0; j < m.Cols; j++ {
		c[pos[j]] = m.Obj[j]
		if neg[j] >= 0 {
			c[neg[j]] = -m.Obj[j]
		} else {
			shiftObj += m.Obj[j] * lb[j]
		}
	}

	a := mat.NewDense(rows, total, nil)
	rhs := make([]float64, rows)

	// value of original column j in std space: pos - neg + shift(lb)
	shift := func(j int) float64 {
		if neg[j] >= 0 {
			return 0
		}
		return lb[j]
	}

	slack := cols
	row := 0
	for _, r := range m.Rows {
		rv := r.RHS
		for i, j := range r.Cols {
			coeff := r.Coeffs[i]
			a.Set(row, pos[j], a.At(row, pos[j])+coeff)
			if neg[j] >= 0 {
				a.Set(row, neg[j], a.At(row, neg[j])-coeff)
			}
			rv -= coeff * shift(j)
		}
		switch r.Sense {
		case model.Le:
			a.Set(row, slack, 1)
			slack++
		case model.Ge:
			a.Set(row, slack, -1)
			slack++
		}
		rhs[row] = rv
		row++
	}
	for j := 0; j < m.Cols; j++ {
		if math.IsInf(ub[j], 1) {
			continue
		}
		a.Set(row, pos[j], 1)
		if neg[j] >= 0 {
			a.Set(row, neg[j], -1)
		}
		a.Set(row, slack, 1)
		slack++
		rhs[row] = ub[j] - shift(j)
		row++
	}

	obj, y, err := lp.Simplex(c, a, rhs, lpTol, nil)
	if err != nil {
		return 0, nil, err
	}

	x := make([]float64, m.Cols)
	for j := 0; j < m.Cols; j++ {
		x[j] = y[pos[j]] + shift(j)
		if neg[j] >= 0 {
			x[j] -= y[neg[j]]
		}
	}
	return obj + shiftObj, x, nil
}
