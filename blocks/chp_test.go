package blocks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flexkraft/esmod/model"
)

func chpContext(n int, overrides map[string]float64) model.BuildContext {
	params := model.Params{
		"power_min": 1, "power_max": 2,
		"gas_min": 2, "gas_max": 4,
		"heat_min": 1, "heat_max": 2,
		"co2_min": 0.4, "co2_max": 0.8,
		"waste_heat_min": 0.2, "waste_heat_max": 0.4,
		"co2_price":          10,
		"hydrogen_admixture": 0.5,
	}
	for k, v := range overrides {
		params[k] = v
	}
	return model.BuildContext{Name: "chp1", Params: params, Horizon: n}
}

func TestChpRejectsAdmixtureOutOfRange(t *testing.T) {
	for _, bad := range []float64{-0.1, 1.5} {
		_, err := newChp(chpContext(2, map[string]float64{"hydrogen_admixture": bad}))
		var cfgErr *model.ConfigError
		require.ErrorAs(t, err, &cfgErr, "admixture %g", bad)
		require.Equal(t, "chp1", cfgErr.Block)
		require.Equal(t, "hydrogen_admixture", cfgErr.Field)
	}
}

func TestChpRequiresOperatingWindow(t *testing.T) {
	ctx := chpContext(2, nil)
	delete(ctx.Params, "gas_max")
	_, err := newChp(ctx)
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "gas_max", cfgErr.Field)
}

func TestChpLinearMapsAtOperatingPoint(t *testing.T) {
	b, err := newChp(chpContext(1, nil))
	require.NoError(t, err)
	groups := vars(b)

	// a_gas = (4-2)/(2-1) = 2, b_gas = 0: fuel at 1.5 MW is 3 MW.
	// waste heat: a = 0.2, b = 0 -> 0.3 MW. co2: a = 0.4, b = 0,
	// scaled by the fossil share (1 - 0.5) -> 0.3.
	fracH2 := (0.5 * energyDensityH2) / (0.5*energyDensityH2 + 0.5*energyDensityNG)
	at := assignment(groups, map[string][]float64{
		"on":          {1},
		"power":       {1.5},
		"fuel":        {3},
		"heat":        {1.5},
		"waste_heat":  {0.3},
		"co2":         {0.3},
		"hydrogen":    {3 * fracH2},
		"natural_gas": {3 * (1 - fracH2)},
	})
	checkAll(t, b, at)
}

func TestChpOffStateForcesZero(t *testing.T) {
	b, err := newChp(chpContext(1, nil))
	require.NoError(t, err)
	groups := vars(b)

	at := assignment(groups, map[string][]float64{})
	checkAll(t, b, at) // all-zero point satisfies the gated physics

	// power without the on flag must violate the min/max gate
	at = assignment(groups, map[string][]float64{"power": {1.5}})
	violated := false
	for _, c := range b.Constraints() {
		if !c.Holds(at, 1e-9) {
			violated = true
		}
	}
	require.True(t, violated, "power with on=0 slipped through")
}

func TestChpForcedOperation(t *testing.T) {
	b, err := newChp(chpContext(4, map[string]float64{"forced_operation_hours": 3}))
	require.NoError(t, err)

	c, ok := findConstraint(b, "chp1.forced_operation")
	require.True(t, ok, "forced operation constraint missing")
	require.Equal(t, model.Ge, c.Sense)
	require.EqualValues(t, 3, c.RHS)

	groups := vars(b)
	at := assignment(groups, map[string][]float64{"on": {1, 1, 1, 0}})
	require.True(t, c.Holds(at, 1e-9))
	at = assignment(groups, map[string][]float64{"on": {1, 1, 0, 0}})
	require.False(t, c.Holds(at, 1e-9))
}

func TestChpCostIsEmissionPriced(t *testing.T) {
	b, err := newChp(chpContext(2, nil))
	require.NoError(t, err)
	groups := vars(b)

	at := assignment(groups, map[string][]float64{"co2": {0.3, 0.5}})
	require.InDelta(t, 3.0, b.Cost(0).Eval(at), 1e-9)
	require.InDelta(t, 5.0, b.Cost(1).Eval(at), 1e-9)
}

func TestChpRegistered(t *testing.T) {
	found := false
	for _, name := range model.BlockTypes() {
		if name == "chp" {
			found = true
		}
	}
	if !found {
		t.Fatal("chp not registered")
	}
}

func TestChpForcedOperationBeyondHorizon(t *testing.T) {
	_, err := newChp(chpContext(2, map[string]float64{"forced_operation_hours": 5}))
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
}
