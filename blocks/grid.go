package blocks

import (
	"fmt"

	"github.com/flexkraft/esmod/model"
)

func init() {
	model.RegisterBlockType("electrical_grid", newElectricalGrid)
	model.RegisterBlockType("ngas_grid", newNgasGrid)
	model.RegisterBlockType("hydrogen_grid", newHydrogenGrid)
	model.RegisterBlockType("heat_grid", newHeatGrid)
	model.RegisterBlockType("waste_heat_grid", newWasteHeatGrid)
	model.RegisterBlockType("local_heat_grid", newLocalHeatGrid)
}

// numberedInputs creates k input ports "<prefix>_1".."<prefix>_k" on b and
// returns their flow groups. Each grid exposes a fixed fan-in surface this
// way, since input ports take at most one arc.
func numberedInputs(b *base, prefix string, carrier model.Carrier, k, n int) []*model.VarGroup {
	flows := make([]*model.VarGroup, k)
	for i := 0; i < k; i++ {
		f := b.nonNeg(fmt.Sprintf("%s_%d", prefix, i+1), n)
		b.port(fmt.Sprintf("%s_%d", prefix, i+1), model.In, carrier, f, model.OpenClosed)
		flows[i] = f
	}
	return flows
}

func constSeries(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func inputCount(block string, p *float64, def int) (int, error) {
	if p == nil {
		return def, nil
	}
	k := int(*p)
	if float64(k) != *p || k < 1 {
		return 0, &model.ConfigError{Block: block, Field: "inputs",
			Reason: "must be a positive integer"}
	}
	return k, nil
}

// electricalGrid is the public-grid boundary of the power carrier. Feed-in
// from producers arrives on the numbered inputs, consumers draw from
// power_out, and the site demand series is served on top. The signed
// balance against the market is what gets billed.
type electricalGrid struct {
	base

	balance *model.VarGroup
	price   []float64
}

type gridParams struct {
	Inputs        *float64 `mapstructure:"inputs"`
	UseConstPrice *float64 `mapstructure:"use_const_h2_price"`
	Price         *float64 `mapstructure:"h2_price"`
	TransferMax   *float64 `mapstructure:"transfer_max"`
	TransferMin   *float64 `mapstructure:"transfer_min"`
	DistrictMax   *float64 `mapstructure:"district_max"`
	LocalShareMin *float64 `mapstructure:"local_share_min"`
}

func newElectricalGrid(ctx model.BuildContext) (model.Block, error) {
	var p gridParams
	if err := decodeParams(ctx.Name, ctx.Params, &p); err != nil {
		return nil, err
	}
	k, err := inputCount(ctx.Name, p.Inputs, 1)
	if err != nil {
		return nil, err
	}
	price, err := ctx.Series.Get(ctx.Name, "power_price")
	if err != nil {
		return nil, err
	}
	demand := ctx.Series.GetDefault("demand", ctx.Horizon, 0)

	n := ctx.Horizon
	g := &electricalGrid{base: base{name: ctx.Name, typ: "electrical_grid"}, price: price}

	feedin := numberedInputs(&g.base, "power_in", model.Power, k, n)
	supply := g.nonNeg("supply", n)
	balance := g.free("balance", n)
	g.balance = balance

	g.port("power_out", model.Out, model.Power, supply, model.OpenClosed).FanOut = true

	// balance = demand + consumers - feed-in; negative means net export.
	for t := 0; t < n; t++ {
		lhs := model.Lin().Add(balance, t, 1).Add(supply, t, -1)
		for _, f := range feedin {
			lhs = lhs.Add(f, t, 1)
		}
		g.add(model.EqC(fmt.Sprintf("%s.balance[%d]", ctx.Name, t), lhs, demand[t]))
	}

	return g, nil
}

func (g *electricalGrid) Cost(t int) model.Expr {
	return model.Lin().Add(g.balance, t, g.price[t])
}

// supplyGrid covers the one-way fuel carriers: a single fan-out supply port
// billed per unit delivered.
type supplyGrid struct {
	base

	supply *model.VarGroup
	price  []float64
}

func newNgasGrid(ctx model.BuildContext) (model.Block, error) {
	price, err := ctx.Series.Get(ctx.Name, "gas_price")
	if err != nil {
		return nil, err
	}
	return newSupplyGrid(ctx, "ngas_grid", "gas_out", model.NaturalGas, price), nil
}

func newHydrogenGrid(ctx model.BuildContext) (model.Block, error) {
	var p gridParams
	if err := decodeParams(ctx.Name, ctx.Params, &p); err != nil {
		return nil, err
	}
	var price []float64
	if p.UseConstPrice != nil && *p.UseConstPrice != 0 {
		c, err := req(ctx.Name, "h2_price", p.Price)
		if err != nil {
			return nil, err
		}
		price = constSeries(ctx.Horizon, c)
	} else {
		var err error
		price, err = ctx.Series.Get(ctx.Name, "h2_price")
		if err != nil {
			return nil, err
		}
	}
	return newSupplyGrid(ctx, "hydrogen_grid", "hydrogen_out", model.Hydrogen, price), nil
}

func newSupplyGrid(ctx model.BuildContext, typ, portName string, carrier model.Carrier, price []float64) model.Block {
	g := &supplyGrid{base: base{name: ctx.Name, typ: typ}, price: price}
	g.supply = g.nonNeg("supply", ctx.Horizon)
	g.port(portName, model.Out, carrier, g.supply, model.OpenClosed).FanOut = true
	return g
}

func (g *supplyGrid) Cost(t int) model.Expr {
	return model.Lin().Add(g.supply, t, g.price[t])
}

// heatGrid is the district heating network: producer feed-in earns the heat
// price, residual demand is bought back at the same price, and a gated
// transfer pipe pushes district heat into the local network. The transfer
// binary enforces the pipe's minimum technical flow.
type heatGrid struct {
	base

	feedin []*model.VarGroup
	supply *model.VarGroup
	price  []float64
}

func newHeatGrid(ctx model.BuildContext) (model.Block, error) {
	var p gridParams
	if err := decodeParams(ctx.Name, ctx.Params, &p); err != nil {
		return nil, err
	}
	k, err := inputCount(ctx.Name, p.Inputs, 1)
	if err != nil {
		return nil, err
	}
	price, err := ctx.Series.Get(ctx.Name, "heat_price")
	if err != nil {
		return nil, err
	}
	demand, err := ctx.Series.Get(ctx.Name, "demand")
	if err != nil {
		return nil, err
	}

	transferMax := 10.0
	transferMin := 0.5
	if p.TransferMax != nil {
		transferMax = *p.TransferMax
	}
	if p.TransferMin != nil {
		transferMin = *p.TransferMin
	}
	if transferMin < 0 || transferMin > transferMax {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "transfer_min",
			Reason: fmt.Sprintf("minimum flow %g must lie within [0,%g]", transferMin, transferMax)}
	}

	n := ctx.Horizon
	g := &heatGrid{base: base{name: ctx.Name, typ: "heat_grid"}, price: price}

	g.feedin = numberedInputs(&g.base, "heat_in", model.Heat, k, n)
	excess := g.nonNeg("excess_in", n)
	g.port("excess_heat_in", model.In, model.Heat, excess, model.OpenClosed)

	g.supply = g.nonNeg("supply", n)
	transfer := g.nonNeg("transfer", n)
	transferOn := g.binary("transfer_on", n)
	g.port("district_out", model.Out, model.LocalHeat, transfer, model.OpenClosed)
	toStorage := g.nonNeg("to_storage", n)
	g.port("storage_out", model.Out, model.Heat, toStorage, model.OpenClosed)

	for t := 0; t < n; t++ {
		transfer.SetBounds(t, 0, transferMax)

		lhs := model.Lin().Add(g.supply, t, 1).Add(excess, t, 1).
			Add(transfer, t, -1).Add(toStorage, t, -1)
		for _, f := range g.feedin {
			lhs = lhs.Add(f, t, 1)
		}
		g.add(model.EqC(fmt.Sprintf("%s.balance[%d]", ctx.Name, t), lhs, demand[t]))

		g.add(model.LeC(fmt.Sprintf("%s.transfer_max[%d]", ctx.Name, t),
			model.Lin().Add(transfer, t, 1).Add(transferOn, t, -transferMax), 0))
		g.add(model.GeC(fmt.Sprintf("%s.transfer_min[%d]", ctx.Name, t),
			model.Lin().Add(transfer, t, 1).Add(transferOn, t, -transferMin), 0))
	}

	return g, nil
}

func (g *heatGrid) Cost(t int) model.Expr {
	e := model.Lin().Add(g.supply, t, g.price[t])
	for _, f := range g.feedin {
		e = e.Add(f, t, -g.price[t])
	}
	return e
}

// wasteHeatGrid balances low-grade heat: collected feed-in either serves
// the heat pumps downstream or is dissipated for free.
type wasteHeatGrid struct {
	base
}

func newWasteHeatGrid(ctx model.BuildContext) (model.Block, error) {
	var p gridParams
	if err := decodeParams(ctx.Name, ctx.Params, &p); err != nil {
		return nil, err
	}
	k, err := inputCount(ctx.Name, p.Inputs, 1)
	if err != nil {
		return nil, err
	}

	n := ctx.Horizon
	g := &wasteHeatGrid{base: base{name: ctx.Name, typ: "waste_heat_grid"}}

	feedin := numberedInputs(&g.base, "waste_heat_in", model.WasteHeat, k, n)
	out := g.nonNeg("out", n)
	dissipated := g.nonNeg("dissipated", n)
	g.port("waste_heat_out", model.Out, model.WasteHeat, out, model.OpenClosed).FanOut = true

	for t := 0; t < n; t++ {
		lhs := model.Lin().Add(out, t, 1).Add(dissipated, t, 1)
		for _, f := range feedin {
			lhs = lhs.Add(f, t, -1)
		}
		g.add(model.EqC(fmt.Sprintf("%s.balance[%d]", ctx.Name, t), lhs, 0))
	}

	return g, nil
}

// localHeatGrid serves the quarter's own heat demand from local producers
// plus a capped district import, and feeds the local storage. An annual
// floor keeps the locally produced share above the configured fraction.
type localHeatGrid struct {
	base
}

func newLocalHeatGrid(ctx model.BuildContext) (model.Block, error) {
	var p gridParams
	if err := decodeParams(ctx.Name, ctx.Params, &p); err != nil {
		return nil, err
	}
	k, err := inputCount(ctx.Name, p.Inputs, 2)
	if err != nil {
		return nil, err
	}
	demand, err := ctx.Series.Get(ctx.Name, "demand")
	if err != nil {
		return nil, err
	}
	localShareMin := 0.8
	if p.LocalShareMin != nil {
		localShareMin = *p.LocalShareMin
	}
	if localShareMin < 0 || localShareMin > 1 {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "local_share_min",
			Reason: "must be within [0,1]"}
	}

	n := ctx.Horizon
	g := &localHeatGrid{base: base{name: ctx.Name, typ: "local_heat_grid"}}

	local := numberedInputs(&g.base, "local_in", model.LocalHeat, k, n)
	district := g.nonNeg("district_in", n)
	g.port("district_in", model.In, model.LocalHeat, district, model.OpenClosed)
	toStorage := g.nonNeg("to_storage", n)
	g.port("storage_out", model.Out, model.LocalHeat, toStorage, model.OpenClosed)

	if p.DistrictMax != nil {
		for t := 0; t < n; t++ {
			district.SetBounds(t, 0, *p.DistrictMax)
		}
	}

	annualDemand := 0.0
	for t := 0; t < n; t++ {
		annualDemand += demand[t]

		lhs := model.Lin().Add(district, t, 1).Add(toStorage, t, -1)
		for _, f := range local {
			lhs = lhs.Add(f, t, 1)
		}
		g.add(model.EqC(fmt.Sprintf("%s.balance[%d]", ctx.Name, t), lhs, demand[t]))
	}

	// District import over the horizon stays below (1 - share) of demand.
	sum := model.Lin()
	for t := 0; t < n; t++ {
		sum = sum.Add(district, t, 1)
	}
	g.add(model.LeC(fmt.Sprintf("%s.local_share", ctx.Name), sum, (1-localShareMin)*annualDemand))

	return g, nil
}
