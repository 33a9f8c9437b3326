// Package solver defines the adapter boundary towards MILP solvers: a
// compiled program goes in, a status plus column values come out. The
// framework never inspects how the solve happened.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/flexkraft/esmod/model"
)

// Status classifies a solve outcome.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusTimeLimit  Status = "time_limit"
	StatusError      Status = "error"
)

// Options tune a solve without changing its semantics.
type Options struct {
	TimeLimit time.Duration // 0 means no limit
	MIPGap    float64       // relative gap, 0 means prove optimality
}

// Stats reports what a solve cost.
type Stats struct {
	Iterations int
	Nodes      int
	Duration   time.Duration
}

// Solution is the outcome of one solve. Values is indexed by MIP column and
// is only populated when the status carries a feasible point.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Stats     Stats
}

// Solver solves a compiled program. Implementations must honor ctx
// cancellation and report infeasibility verbatim rather than retrying or
// relaxing.
type Solver interface {
	Name() string
	Solve(ctx context.Context, mip *model.MIP, opts Options) (Solution, error)
}

// SolveError reports a failed solver invocation, keeping the backend's own
// words where it has any.
type SolveError struct {
	Solver string
	Status Status
	Detail string
}

func (e *SolveError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("solver %s: %s", e.Solver, e.Status)
	}
	return fmt.Sprintf("solver %s: %s: %s", e.Solver, e.Status, e.Detail)
}
