// Package blocks implements the physical component catalog: CHP units, heat
// pumps, storages, grids and renewable sources. Each block type registers
// itself with the model package; importing this package for side effects
// makes the whole catalog available to the assembler.
package blocks

import (
	"fmt"

	"github.com/flexkraft/esmod/model"
	"github.com/mitchellh/mapstructure"
)

// base carries the bookkeeping shared by every block implementation:
// declaration-ordered ports, variables and constraints plus a default zero
// cost. Concrete blocks embed it and override Cost where they have one.
type base struct {
	name string
	typ  string

	ports []*model.Port
	vars  []*model.VarGroup
	cons  []model.Constraint
}

func (b *base) Name() string                    { return b.name }
func (b *base) Type() string                    { return b.typ }
func (b *base) Ports() []*model.Port            { return b.ports }
func (b *base) Variables() []*model.VarGroup    { return b.vars }
func (b *base) Constraints() []model.Constraint { return b.cons }
func (b *base) Cost(t int) model.Expr           { return model.Lin() }

func (b *base) nonNeg(name string, n int) *model.VarGroup {
	g := model.NewNonNeg(b.name, name, n)
	b.vars = append(b.vars, g)
	return g
}

func (b *base) free(name string, n int) *model.VarGroup {
	g := model.NewFree(b.name, name, n)
	b.vars = append(b.vars, g)
	return g
}

func (b *base) binary(name string, n int) *model.VarGroup {
	g := model.NewBinary(b.name, name, n)
	b.vars = append(b.vars, g)
	return g
}

func (b *base) port(name string, dir model.Direction, carrier model.Carrier, flow *model.VarGroup, open model.OpenMode) *model.Port {
	p := &model.Port{
		Block:    b.name,
		Name:     name,
		Dir:      dir,
		Carrier:  carrier,
		Flow:     flow,
		WhenOpen: open,
	}
	b.ports = append(b.ports, p)
	return p
}

func (b *base) add(c model.Constraint) {
	b.cons = append(b.cons, c)
}

// decodeParams maps a block's scalar parameter set onto a typed struct.
// Required parameters are pointer fields checked afterwards with req.
func decodeParams(block string, params model.Params, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: out})
	if err != nil {
		return fmt.Errorf("build parameter decoder: %w", err)
	}
	if err := dec.Decode(map[string]float64(params)); err != nil {
		return &model.ConfigError{Block: block, Reason: err.Error()}
	}
	return nil
}

// req unwraps a required parameter or reports which field is missing.
func req(block, field string, v *float64) (float64, error) {
	if v == nil {
		return 0, &model.ConfigError{Block: block, Field: field, Reason: "required parameter missing"}
	}
	return *v, nil
}

// linCoeffs returns the slope and intercept of the line through the two
// operating points (pMin, qMin) and (pMax, qMax), the two-point form used
// by every linearized block map: q = a*p + b*on.
func linCoeffs(qMin, qMax, pMin, pMax float64) (a, b float64) {
	a = (qMax - qMin) / (pMax - pMin)
	b = qMax - a*pMax
	return a, b
}
