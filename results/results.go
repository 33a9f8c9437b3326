// Package results turns a solved system back into artifacts: the wide
// per-timestep table, the cost breakdown, and the run metadata.
package results

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/uuid"

	"github.com/flexkraft/esmod/model"
	"github.com/flexkraft/esmod/solver"
	"github.com/flexkraft/esmod/timeseries"
)

// Table builds the wide result table: one row per timestep, a 1-based "t"
// column, every block variable as "{block}.{name}", and each scenario
// series under its own name. Arc flow variables are left out unless asked
// for.
func Table(sys *model.System, mip *model.MIP, sol solver.Solution, set *timeseries.Set, includeArcFlows bool) dataframe.DataFrame {
	n := sys.Horizon()

	t := make([]int, n)
	for i := range t {
		t[i] = i + 1
	}
	cols := []series.Series{series.New(t, series.Int, "t")}

	for _, g := range mip.Groups() {
		if g.IsArcFlow() && !includeArcFlows {
			continue
		}
		values := make([]float64, n)
		for i := 0; i < n; i++ {
			values[i] = mip.Value(sol.Values, g, i)
		}
		cols = append(cols, series.New(values, series.Float, g.Qualified()))
	}

	if set != nil {
		for _, name := range set.Names() {
			values, _ := set.Get(name)
			cols = append(cols, series.New(values, series.Float, name))
		}
	}

	return dataframe.New(cols...)
}

// WriteTable writes the wide table as CSV.
func WriteTable(path string, df dataframe.DataFrame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	defer f.Close()
	if err := df.WriteCSV(f); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// BlockCost is the evaluated cost contribution of one block over the whole
// horizon. Negative totals are revenue.
type BlockCost struct {
	Block string  `json:"block"`
	Type  string  `json:"type"`
	Total float64 `json:"total"`
}

// CostReport is the per-block cost breakdown plus the cross-check against
// the solver's own objective value.
type CostReport struct {
	Blocks      []BlockCost `json:"blocks"`
	Costs       float64     `json:"costs"`
	Revenue     float64     `json:"revenue"`
	Net         float64     `json:"net"`
	Objective   float64     `json:"objective"`
	Discrepancy float64     `json:"discrepancy"`
}

// Costs re-evaluates every block's cost expression at the solution point
// and compares the sum with the reported objective. A discrepancy beyond
// rounding noise means the extraction and the solve disagree about the
// model, which is worth failing loudly over.
func Costs(sys *model.System, mip *model.MIP, sol solver.Solution) (CostReport, error) {
	value := func(g *model.VarGroup, t int) float64 {
		return mip.Value(sol.Values, g, t)
	}

	report := CostReport{Objective: sol.Objective}
	for _, b := range sys.Blocks() {
		total := 0.0
		for t := 0; t < sys.Horizon(); t++ {
			total += b.Cost(t).Eval(value)
		}
		report.Blocks = append(report.Blocks, BlockCost{Block: b.Name(), Type: b.Type(), Total: total})
		if total >= 0 {
			report.Costs += total
		} else {
			report.Revenue += -total
		}
	}
	report.Net = report.Costs - report.Revenue
	report.Discrepancy = report.Net - sol.Objective

	tol := 1e-6 * math.Max(1, math.Abs(sol.Objective))
	if math.Abs(report.Discrepancy) > tol {
		return report, fmt.Errorf("cost breakdown disagrees with solver objective by %g", report.Discrepancy)
	}
	return report, nil
}

// Metadata describes one run for the archive and for humans reading the
// output directory later.
type Metadata struct {
	RunID      uuid.UUID          `json:"runId"`
	Scenario   string             `json:"scenario"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
	Parameters map[string]float64 `json:"parameters,omitempty"`

	Solver     string        `json:"solver"`
	Status     solver.Status `json:"status"`
	Objective  float64       `json:"objective"`
	Iterations int           `json:"iterations"`
	Nodes      int           `json:"nodes"`
	SolveTime  time.Duration `json:"solveTimeNs"`

	Blocks      int `json:"blocks"`
	Variables   int `json:"variables"`
	Binaries    int `json:"binaries"`
	Constraints int `json:"constraints"`
}

// NewMetadata assembles the run record from the solved artifacts.
func NewMetadata(scenario string, params map[string]float64, sys *model.System, mip *model.MIP, solverName string, sol solver.Solution, started time.Time) Metadata {
	return Metadata{
		RunID:       uuid.New(),
		Scenario:    scenario,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Parameters:  params,
		Solver:      solverName,
		Status:      sol.Status,
		Objective:   sol.Objective,
		Iterations:  sol.Stats.Iterations,
		Nodes:       sol.Stats.Nodes,
		SolveTime:   sol.Stats.Duration,
		Blocks:      len(sys.Blocks()),
		Variables:   mip.Cols,
		Binaries:    mip.NumBinaries(),
		Constraints: len(mip.Rows),
	}
}

// WriteJSON writes v indented to path.
func WriteJSON(path string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
