package results

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/flexkraft/esmod/model"
	"github.com/flexkraft/esmod/solver"
	"github.com/flexkraft/esmod/timeseries"
)

type fakeBlock struct {
	name string
	vars []*model.VarGroup
	cost model.Expr
}

func (b *fakeBlock) Name() string                    { return b.name }
func (b *fakeBlock) Type() string                    { return "fake" }
func (b *fakeBlock) Ports() []*model.Port            { return nil }
func (b *fakeBlock) Variables() []*model.VarGroup    { return b.vars }
func (b *fakeBlock) Constraints() []model.Constraint { return nil }
func (b *fakeBlock) Cost(t int) model.Expr           { return b.cost }

func solvedFixture(t *testing.T) (*model.System, *model.MIP, solver.Solution) {
	t.Helper()
	sys := model.NewSystem(2)
	x := model.NewVar("gen", "power", 2, 0, 10)
	b := &fakeBlock{name: "gen", vars: []*model.VarGroup{x},
		cost: model.Lin().Add(x, 0, 2).Add(x, 1, 2)}
	if err := sys.AddBlock(b); err != nil {
		t.Fatalf("add block: %v", err)
	}
	if err := sys.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	mip, err := sys.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	sol := solver.Solution{
		Status:    solver.StatusOptimal,
		Objective: 2 * (3 + 4) * 2, // cost expr counted per timestep
		Values:    []float64{3, 4},
	}
	return sys, mip, sol
}

func TestTableColumnsAreDottedNames(t *testing.T) {
	sys, mip, sol := solvedFixture(t)

	set := timeseries.NewSet(2)
	if err := set.Add("power_price", []float64{50, 60}); err != nil {
		t.Fatalf("add series: %v", err)
	}

	df := Table(sys, mip, sol, set, false)
	names := df.Names()
	joined := strings.Join(names, ",")
	for _, want := range []string{"t", "gen.power", "power_price"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("columns %v missing %q", names, want)
		}
	}
	if df.Nrow() != 2 {
		t.Fatalf("rows = %d, want 2", df.Nrow())
	}
}

func TestCostsMatchObjective(t *testing.T) {
	sys, mip, sol := solvedFixture(t)

	report, err := Costs(sys, mip, sol)
	if err != nil {
		t.Fatalf("costs: %v", err)
	}
	if math.Abs(report.Net-sol.Objective) > 1e-9 {
		t.Fatalf("net = %g, objective = %g", report.Net, sol.Objective)
	}
	if len(report.Blocks) != 1 || report.Blocks[0].Block != "gen" {
		t.Fatalf("blocks = %+v", report.Blocks)
	}
}

func TestCostsFlagDiscrepancy(t *testing.T) {
	sys, mip, sol := solvedFixture(t)
	sol.Objective = 1 // deliberately wrong

	report, err := Costs(sys, mip, sol)
	if err == nil {
		t.Fatalf("discrepancy %g not flagged", report.Discrepancy)
	}
}

func TestNewMetadataCountsSizes(t *testing.T) {
	sys, mip, sol := solvedFixture(t)

	meta := NewMetadata("mini", nil, sys, mip, "simplex", sol, time.Now().Add(-time.Second))
	if meta.Scenario != "mini" || meta.Variables != 2 || meta.Blocks != 1 {
		t.Fatalf("meta = %+v", meta)
	}
	if meta.RunID.String() == "" {
		t.Fatal("run id missing")
	}
}
