package blocks

import (
	"github.com/flexkraft/esmod/model"
)

func init() {
	model.RegisterBlockType("pv", newPV)
	model.RegisterBlockType("solar_thermal", newSolarThermal)
}

// renewable is a non-dispatchable producer: its output is pinned to the
// normalized generation profile scaled by the installed size, so it carries
// no free decision at all.
type renewable struct {
	base
}

func newPV(ctx model.BuildContext) (model.Block, error) {
	installed, err := ctx.Params.Float(ctx.Name, "installed")
	if err != nil {
		return nil, err
	}
	eta := ctx.Params.FloatDefault("inverter_efficiency", 1)
	if eta <= 0 || eta > 1 {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "inverter_efficiency",
			Reason: "must be within (0,1]"}
	}
	profile, err := ctx.Series.Get(ctx.Name, "profile")
	if err != nil {
		return nil, err
	}
	return newRenewable(ctx, "pv", "power_out", model.Power, installed*eta, profile), nil
}

func newSolarThermal(ctx model.BuildContext) (model.Block, error) {
	installed, err := ctx.Params.Float(ctx.Name, "installed")
	if err != nil {
		return nil, err
	}
	profile, err := ctx.Series.Get(ctx.Name, "profile")
	if err != nil {
		return nil, err
	}
	return newRenewable(ctx, "solar_thermal", "heat_out", model.LocalHeat, installed, profile), nil
}

func newRenewable(ctx model.BuildContext, typ, portName string, carrier model.Carrier, scale float64, profile []float64) model.Block {
	n := ctx.Horizon
	r := &renewable{base: base{name: ctx.Name, typ: typ}}
	out := r.nonNeg("out", n)
	for t := 0; t < n; t++ {
		v := scale * profile[t]
		out.SetBounds(t, v, v)
	}
	r.port(portName, model.Out, carrier, out, model.OpenVent)
	return r
}
