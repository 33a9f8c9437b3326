package blocks

import (
	"fmt"

	"github.com/flexkraft/esmod/model"
)

func init() {
	model.RegisterBlockType("heatpump_s1", func(ctx model.BuildContext) (model.Block, error) {
		return newHeatPump(ctx, "heatpump_s1", stage1Defaults)
	})
	model.RegisterBlockType("heatpump_s2", func(ctx model.BuildContext) (model.Block, error) {
		return newHeatPump(ctx, "heatpump_s2", stage2Defaults)
	})
}

// stageDefaults holds the R-717 cycle state enthalpies a stage is designed
// around: h1 evaporator outlet, h2 compressor outlet (isentropic), h4
// evaporator inlet (h3=h4, isenthalpic expansion). All in kJ/kg.
type stageDefaults struct {
	h1, h2, h4 float64
	eta        float64
	heatInMax  float64 // 0 means uncapped
	outCarrier model.Carrier
}

var stage1Defaults = stageDefaults{
	h1: 1480, h2: 1625, h4: 395,
	eta:        0.9,
	outCarrier: model.WasteHeat,
}

var stage2Defaults = stageDefaults{
	h1: 1490, h2: 1710, h4: 650,
	eta:        0.9,
	heatInMax:  2.05,
	outCarrier: model.LocalHeat,
}

type heatPumpParams struct {
	H1        *float64 `mapstructure:"h1"`
	H2        *float64 `mapstructure:"h2"`
	H4        *float64 `mapstructure:"h4"`
	Eta       *float64 `mapstructure:"eta"`
	HeatInMax *float64 `mapstructure:"heat_in_max"`
}

// heatPump is a single-stage ammonia compression heat pump with a fixed
// operating point, so the power draw per unit heat input is a constant and
// the block stays linear.
type heatPump struct {
	base
}

func newHeatPump(ctx model.BuildContext, typ string, def stageDefaults) (model.Block, error) {
	var p heatPumpParams
	if err := decodeParams(ctx.Name, ctx.Params, &p); err != nil {
		return nil, err
	}
	if p.H1 != nil {
		def.h1 = *p.H1
	}
	if p.H2 != nil {
		def.h2 = *p.H2
	}
	if p.H4 != nil {
		def.h4 = *p.H4
	}
	if p.Eta != nil {
		def.eta = *p.Eta
	}
	if p.HeatInMax != nil {
		def.heatInMax = *p.HeatInMax
	}

	if def.eta <= 0 || def.eta > 1 {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "eta",
			Reason: fmt.Sprintf("compressor efficiency %g must be within (0,1]", def.eta)}
	}
	if def.h1 <= def.h4 {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "h1",
			Reason: "evaporator enthalpy gain h1-h4 must be positive"}
	}
	if def.h2 <= def.h1 {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "h2",
			Reason: "compression enthalpy rise h2-h1 must be positive"}
	}

	// Compressor work per unit heat absorbed at the evaporator; only the
	// work ends up in the condenser stream, while the electric draw also
	// covers the motor losses.
	work := workPerHeatIn(def.h1, def.h2, def.h4)
	w := work / def.eta

	n := ctx.Horizon
	hp := &heatPump{base: base{name: ctx.Name, typ: typ}}

	heatIn := hp.nonNeg("heat_in", n)
	power := hp.nonNeg("power", n)
	heatOut := hp.nonNeg("heat_out", n)

	if def.heatInMax > 0 {
		for t := 0; t < n; t++ {
			heatIn.SetBounds(t, 0, def.heatInMax)
		}
	}

	hp.port("power_in", model.In, model.Power, power, model.OpenClosed)
	hp.port("heat_in", model.In, model.WasteHeat, heatIn, model.OpenClosed)
	hp.port("heat_out", model.Out, def.outCarrier, heatOut, model.OpenVent)

	for t := 0; t < n; t++ {
		hp.add(model.EqC(fmt.Sprintf("%s.compressor[%d]", ctx.Name, t),
			model.Lin().Add(power, t, 1).Add(heatIn, t, -w), 0))
		hp.add(model.EqC(fmt.Sprintf("%s.condenser[%d]", ctx.Name, t),
			model.Lin().Add(heatOut, t, 1).Add(heatIn, t, -(1+work)), 0))
	}

	return hp, nil
}

// workPerHeatIn returns the compressor work per unit of evaporator heat:
// isentropic compression rise (h2-h1) over evaporator gain (h1-h4). The
// electric draw is this divided by the compressor efficiency.
func workPerHeatIn(h1, h2, h4 float64) float64 {
	return (h2 - h1) / (h1 - h4)
}
