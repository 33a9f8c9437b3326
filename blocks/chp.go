package blocks

import (
	"fmt"

	"github.com/flexkraft/esmod/model"
)

// Fuel property constants for the hydrogen admixture split.
const (
	heatingValueH2  = 120.0 // hydrogen heating value [MJ/kg]
	heatingValueNG  = 47.0  // natural gas heating value [MJ/kg]
	densityH2       = 0.09  // hydrogen density [kg/m3]
	densityNG       = 0.68  // natural gas density [kg/m3]
	energyDensityH2 = densityH2 * heatingValueH2 // ~10.8 MJ/m3
	energyDensityNG = densityNG * heatingValueNG // ~32.0 MJ/m3
)

func init() {
	model.RegisterBlockType("chp", newChp)
}

type chpParams struct {
	PowerMin     *float64 `mapstructure:"power_min"`
	PowerMax     *float64 `mapstructure:"power_max"`
	GasMin       *float64 `mapstructure:"gas_min"`
	GasMax       *float64 `mapstructure:"gas_max"`
	HeatMin      *float64 `mapstructure:"heat_min"`
	HeatMax      *float64 `mapstructure:"heat_max"`
	CO2Min       *float64 `mapstructure:"co2_min"`
	CO2Max       *float64 `mapstructure:"co2_max"`
	WasteHeatMin *float64 `mapstructure:"waste_heat_min"`
	WasteHeatMax *float64 `mapstructure:"waste_heat_max"`

	HydrogenAdmixture    *float64 `mapstructure:"hydrogen_admixture"`
	ForcedOperationHours *float64 `mapstructure:"forced_operation_hours"`
	CO2Price             *float64 `mapstructure:"co2_price"`
}

// chp is a combined heat and power unit: one fuel-input decision drives
// power, heat, waste heat and CO2 output through linear two-point maps,
// gated by an on/off binary. A fixed volumetric hydrogen admixture splits
// the fuel energy stream into natural gas and hydrogen.
type chp struct {
	base

	co2      *model.VarGroup
	co2Price float64
}

func newChp(ctx model.BuildContext) (model.Block, error) {
	var p chpParams
	if err := decodeParams(ctx.Name, ctx.Params, &p); err != nil {
		return nil, err
	}

	powerMin, err := req(ctx.Name, "power_min", p.PowerMin)
	if err != nil {
		return nil, err
	}
	powerMax, err := req(ctx.Name, "power_max", p.PowerMax)
	if err != nil {
		return nil, err
	}
	if powerMax <= powerMin {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "power_max",
			Reason: fmt.Sprintf("power_max (%g) must exceed power_min (%g)", powerMax, powerMin)}
	}
	gasMin, err := req(ctx.Name, "gas_min", p.GasMin)
	if err != nil {
		return nil, err
	}
	gasMax, err := req(ctx.Name, "gas_max", p.GasMax)
	if err != nil {
		return nil, err
	}
	heatMin, err := req(ctx.Name, "heat_min", p.HeatMin)
	if err != nil {
		return nil, err
	}
	heatMax, err := req(ctx.Name, "heat_max", p.HeatMax)
	if err != nil {
		return nil, err
	}
	co2Min, err := req(ctx.Name, "co2_min", p.CO2Min)
	if err != nil {
		return nil, err
	}
	co2Max, err := req(ctx.Name, "co2_max", p.CO2Max)
	if err != nil {
		return nil, err
	}
	co2Price, err := req(ctx.Name, "co2_price", p.CO2Price)
	if err != nil {
		return nil, err
	}

	admixture := 0.0
	if p.HydrogenAdmixture != nil {
		admixture = *p.HydrogenAdmixture
	}
	if admixture < 0 || admixture > 1 {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "hydrogen_admixture",
			Reason: fmt.Sprintf("admixture %g out of bounds, must be within [0,1]", admixture)}
	}

	wasteHeatMin := 0.0
	wasteHeatMax := 0.0
	if p.WasteHeatMin != nil {
		wasteHeatMin = *p.WasteHeatMin
	}
	if p.WasteHeatMax != nil {
		wasteHeatMax = *p.WasteHeatMax
	}

	n := ctx.Horizon
	c := &chp{
		base:     base{name: ctx.Name, typ: "chp"},
		co2Price: co2Price,
	}

	on := c.binary("on", n)
	fuel := c.nonNeg("fuel", n)
	power := c.nonNeg("power", n)
	heat := c.nonNeg("heat", n)
	wasteHeat := c.nonNeg("waste_heat", n)
	co2 := c.nonNeg("co2", n)
	naturalGas := c.nonNeg("natural_gas", n)
	hydrogen := c.nonNeg("hydrogen", n)
	c.co2 = co2

	c.port("natural_gas_in", model.In, model.NaturalGas, naturalGas, model.OpenClosed)
	c.port("hydrogen_in", model.In, model.Hydrogen, hydrogen, model.OpenClosed)
	c.port("power_out", model.Out, model.Power, power, model.OpenVent)
	c.port("heat_out", model.Out, model.Heat, heat, model.OpenVent)
	c.port("waste_heat_out", model.Out, model.WasteHeat, wasteHeat, model.OpenVent)

	aGas, bGas := linCoeffs(gasMin, gasMax, powerMin, powerMax)
	aHeat, bHeat := linCoeffs(heatMin, heatMax, powerMin, powerMax)
	aCO2, bCO2 := linCoeffs(co2Min, co2Max, powerMin, powerMax)
	aWaste, bWaste := linCoeffs(wasteHeatMin, wasteHeatMax, powerMin, powerMax)

	// Energy share of hydrogen in the total firing rate, derived from the
	// volumetric admixture and the gases' energy densities.
	volH2 := admixture
	volNG := 1 - admixture
	fracH2 := (volH2 * energyDensityH2) / (volH2*energyDensityH2 + volNG*energyDensityNG)
	fracNG := 1 - fracH2

	for t := 0; t < n; t++ {
		c.add(model.LeC(fmt.Sprintf("%s.power_max[%d]", ctx.Name, t),
			model.Lin().Add(power, t, 1).Add(on, t, -powerMax), 0))
		c.add(model.GeC(fmt.Sprintf("%s.power_min[%d]", ctx.Name, t),
			model.Lin().Add(power, t, 1).Add(on, t, -powerMin), 0))

		c.add(model.EqC(fmt.Sprintf("%s.fuel_from_power[%d]", ctx.Name, t),
			model.Lin().Add(fuel, t, 1).Add(power, t, -aGas).Add(on, t, -bGas), 0))
		c.add(model.EqC(fmt.Sprintf("%s.heat_from_power[%d]", ctx.Name, t),
			model.Lin().Add(heat, t, 1).Add(power, t, -aHeat).Add(on, t, -bHeat), 0))
		c.add(model.EqC(fmt.Sprintf("%s.waste_heat_from_power[%d]", ctx.Name, t),
			model.Lin().Add(wasteHeat, t, 1).Add(power, t, -aWaste).Add(on, t, -bWaste), 0))

		// CO2 scales with the fossil share of the fuel only.
		c.add(model.EqC(fmt.Sprintf("%s.co2_from_power[%d]", ctx.Name, t),
			model.Lin().Add(co2, t, 1).
				Add(power, t, -aCO2*(1-admixture)).
				Add(on, t, -bCO2*(1-admixture)), 0))

		c.add(model.EqC(fmt.Sprintf("%s.hydrogen_share[%d]", ctx.Name, t),
			model.Lin().Add(hydrogen, t, 1).Add(fuel, t, -fracH2), 0))
		c.add(model.EqC(fmt.Sprintf("%s.natural_gas_share[%d]", ctx.Name, t),
			model.Lin().Add(naturalGas, t, 1).Add(fuel, t, -fracNG), 0))
	}

	if p.ForcedOperationHours != nil {
		hours := *p.ForcedOperationHours
		if hours < 0 || hours > float64(n) {
			return nil, &model.ConfigError{Block: ctx.Name, Field: "forced_operation_hours",
				Reason: fmt.Sprintf("must be within [0,%d]", n)}
		}
		sum := model.Lin()
		for t := 0; t < n; t++ {
			sum = sum.Add(on, t, 1)
		}
		c.add(model.GeC(fmt.Sprintf("%s.forced_operation", ctx.Name), sum, hours))
	}

	return c, nil
}

// Cost is the CO2 emission cost; fuel itself is billed at the gas and
// hydrogen grids.
func (c *chp) Cost(t int) model.Expr {
	return model.Lin().Add(c.co2, t, c.co2Price)
}
