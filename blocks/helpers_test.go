package blocks

import (
	"testing"

	"github.com/flexkraft/esmod/model"
)

// vars indexes a block's variable groups by short name.
func vars(b model.Block) map[string]*model.VarGroup {
	m := map[string]*model.VarGroup{}
	for _, g := range b.Variables() {
		m[g.Name()] = g
	}
	return m
}

// assignment turns per-name value vectors into the evaluation callback the
// constraint checker wants.
func assignment(groups map[string]*model.VarGroup, values map[string][]float64) func(*model.VarGroup, int) float64 {
	byGroup := map[*model.VarGroup][]float64{}
	for name, v := range values {
		byGroup[groups[name]] = v
	}
	return func(g *model.VarGroup, t int) float64 {
		v, ok := byGroup[g]
		if !ok {
			return 0
		}
		return v[t]
	}
}

func checkAll(t *testing.T, b model.Block, at func(*model.VarGroup, int) float64) {
	t.Helper()
	for _, c := range b.Constraints() {
		if !c.Holds(at, 1e-9) {
			t.Fatalf("constraint %s violated", c.Name)
		}
	}
}

func findConstraint(b model.Block, name string) (model.Constraint, bool) {
	for _, c := range b.Constraints() {
		if c.Name == name {
			return c, true
		}
	}
	return model.Constraint{}, false
}
