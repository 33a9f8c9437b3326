package blocks

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flexkraft/esmod/model"
)

func TestWorkPerHeatInMatchesEnthalpyArithmetic(t *testing.T) {
	cases := []struct {
		name string
		def  stageDefaults
	}{
		{"stage1", stage1Defaults},
		{"stage2", stage2Defaults},
	}
	for _, tc := range cases {
		want := (tc.def.h2 - tc.def.h1) / (tc.def.h1 - tc.def.h4)
		got := workPerHeatIn(tc.def.h1, tc.def.h2, tc.def.h4)
		require.InDelta(t, want, got, 1e-12, tc.name)
	}
}

func TestHeatPumpEnergyBalance(t *testing.T) {
	b, err := newHeatPump(model.BuildContext{Name: "hp1", Params: model.Params{}, Horizon: 1}, "heatpump_s1", stage1Defaults)
	require.NoError(t, err)
	groups := vars(b)

	// The condenser rejects evaporator heat plus compressor work; the
	// electric draw additionally covers the motor losses.
	work := workPerHeatIn(stage1Defaults.h1, stage1Defaults.h2, stage1Defaults.h4)
	heatIn := 2.0
	at := assignment(groups, map[string][]float64{
		"heat_in":  {heatIn},
		"power":    {work / stage1Defaults.eta * heatIn},
		"heat_out": {heatIn + work*heatIn},
	})
	checkAll(t, b, at)
}

func TestHeatPumpMotorLossesStayOutOfCondenser(t *testing.T) {
	b, err := newHeatPump(model.BuildContext{Name: "hp1", Params: model.Params{}, Horizon: 1}, "heatpump_s1", stage1Defaults)
	require.NoError(t, err)
	groups := vars(b)

	// heat_out = heat_in + electric power would credit the motor losses
	// to the condenser stream; that point must violate the balance.
	work := workPerHeatIn(stage1Defaults.h1, stage1Defaults.h2, stage1Defaults.h4)
	power := work / stage1Defaults.eta * 2.0
	at := assignment(groups, map[string][]float64{
		"heat_in":  {2.0},
		"power":    {power},
		"heat_out": {2.0 + power},
	})
	c, ok := findConstraint(b, "hp1.condenser[0]")
	require.True(t, ok)
	require.False(t, c.Holds(at, 1e-9), "electric power accepted in the condenser balance")
}

func TestHeatPumpStage2CapsHeatInput(t *testing.T) {
	b, err := newHeatPump(model.BuildContext{Name: "hp2", Params: model.Params{}, Horizon: 3}, "heatpump_s2", stage2Defaults)
	require.NoError(t, err)

	heatIn := vars(b)["heat_in"]
	for tt := 0; tt < 3; tt++ {
		_, ub := heatIn.Bounds(tt)
		require.EqualValues(t, 2.05, ub)
	}
}

func TestHeatPumpStage2DeliversLocalHeat(t *testing.T) {
	b, err := newHeatPump(model.BuildContext{Name: "hp2", Params: model.Params{}, Horizon: 1}, "heatpump_s2", stage2Defaults)
	require.NoError(t, err)

	var out *model.Port
	for _, p := range b.Ports() {
		if p.Name == "heat_out" {
			out = p
		}
	}
	require.NotNil(t, out)
	require.Equal(t, model.LocalHeat, out.Carrier)
}

func TestHeatPumpRejectsBadCycle(t *testing.T) {
	cases := []model.Params{
		{"eta": 1.5},
		{"h1": 100, "h4": 200}, // evaporator gain negative
		{"h2": 100, "h1": 200, "h4": 50},
	}
	for _, params := range cases {
		_, err := newHeatPump(model.BuildContext{Name: "hp", Params: params, Horizon: 1}, "heatpump_s1", stage1Defaults)
		var cfgErr *model.ConfigError
		require.ErrorAs(t, err, &cfgErr, "params %v", params)
	}
}
