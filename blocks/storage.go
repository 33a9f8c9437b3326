package blocks

import (
	"fmt"

	"github.com/flexkraft/esmod/model"
	"github.com/flexkraft/esmod/timeutils"
)

func init() {
	model.RegisterBlockType("battery_storage", func(ctx model.BuildContext) (model.Block, error) {
		return newStorage(ctx, "battery_storage", model.Power, true)
	})
	model.RegisterBlockType("heat_storage", func(ctx model.BuildContext) (model.Block, error) {
		return newStorage(ctx, "heat_storage", model.Heat, true)
	})
	model.RegisterBlockType("local_heat_storage", newLocalHeatStorage)
}

type storageParams struct {
	Capacity     *float64 `mapstructure:"capacity"`
	ChargeMax    *float64 `mapstructure:"charge_max"`
	DischargeMax *float64 `mapstructure:"discharge_max"`
	SocInit      *float64 `mapstructure:"soc_init"`

	// local heat storage only
	ExcessMax               *float64 `mapstructure:"excess_max"`
	DischargeRestrictedFrom *float64 `mapstructure:"discharge_restricted_from"`
	DischargeRestrictedTo   *float64 `mapstructure:"discharge_restricted_to"`
}

// storage is the common shifting element: energy in at one timestep comes
// back out at a later one, tracked by the soc recurrence
// soc[t] = soc[t-1] + charge[t] - discharge[t].
type storage struct {
	base

	charge, discharge, soc *model.VarGroup
	socInit                float64
}

func storageCore(ctx model.BuildContext, typ string, p storageParams) (*storage, error) {
	capacity, err := req(ctx.Name, "capacity", p.Capacity)
	if err != nil {
		return nil, err
	}
	if capacity <= 0 {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "capacity",
			Reason: "must be positive"}
	}
	chargeMax, err := req(ctx.Name, "charge_max", p.ChargeMax)
	if err != nil {
		return nil, err
	}
	dischargeMax, err := req(ctx.Name, "discharge_max", p.DischargeMax)
	if err != nil {
		return nil, err
	}

	socInit := 0.0
	if p.SocInit != nil {
		socInit = *p.SocInit
	}
	if socInit < 0 || socInit > capacity {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "soc_init",
			Reason: fmt.Sprintf("initial soc %g outside [0,%g]", socInit, capacity)}
	}

	n := ctx.Horizon
	s := &storage{base: base{name: ctx.Name, typ: typ}, socInit: socInit}

	s.charge = s.nonNeg("charge", n)
	s.discharge = s.nonNeg("discharge", n)
	s.soc = s.nonNeg("soc", n)
	for t := 0; t < n; t++ {
		s.charge.SetBounds(t, 0, chargeMax)
		s.discharge.SetBounds(t, 0, dischargeMax)
		s.soc.SetBounds(t, 0, capacity)
	}
	return s, nil
}

func newStorage(ctx model.BuildContext, typ string, carrier model.Carrier, exclusive bool) (model.Block, error) {
	var p storageParams
	if err := decodeParams(ctx.Name, ctx.Params, &p); err != nil {
		return nil, err
	}
	s, err := storageCore(ctx, typ, p)
	if err != nil {
		return nil, err
	}
	n := ctx.Horizon

	inName, outName := "power_in", "power_out"
	if carrier != model.Power {
		inName, outName = "heat_in", "heat_out"
	}
	s.port(inName, model.In, carrier, s.charge, model.OpenClosed)
	s.port(outName, model.Out, carrier, s.discharge, model.OpenClosed)

	if exclusive {
		chargeOn := s.binary("charge_on", n)
		dischargeOn := s.binary("discharge_on", n)
		for t := 0; t < n; t++ {
			_, cUB := s.charge.Bounds(t)
			_, dUB := s.discharge.Bounds(t)
			s.add(model.LeC(fmt.Sprintf("%s.charge_gate[%d]", ctx.Name, t),
				model.Lin().Add(s.charge, t, 1).Add(chargeOn, t, -cUB), 0))
			s.add(model.LeC(fmt.Sprintf("%s.discharge_gate[%d]", ctx.Name, t),
				model.Lin().Add(s.discharge, t, 1).Add(dischargeOn, t, -dUB), 0))
			s.add(model.LeC(fmt.Sprintf("%s.exclusive[%d]", ctx.Name, t),
				model.Lin().Add(chargeOn, t, 1).Add(dischargeOn, t, 1), 1))
		}
	}

	s.addRecurrence(ctx.Name, n, nil)
	return s, nil
}

// addRecurrence emits the soc balance rows; extra, when non-nil, is a
// further discharge stream leaving the store.
func (s *storage) addRecurrence(name string, n int, extra *model.VarGroup) {
	for t := 0; t < n; t++ {
		lhs := model.Lin().Add(s.soc, t, 1).Add(s.charge, t, -1).Add(s.discharge, t, 1)
		if extra != nil {
			lhs = lhs.Add(extra, t, 1)
		}
		rhs := 0.0
		if t == 0 {
			rhs = s.socInit
		} else {
			lhs = lhs.Add(s.soc, t-1, -1)
		}
		s.add(model.EqC(fmt.Sprintf("%s.soc[%d]", name, t), lhs, rhs))
	}
}

// newLocalHeatStorage builds the stratified storage on the local heat
// network. Charge and discharge may overlap, a separate excess outlet
// bypasses the local demand path, and discharge can be barred during a
// configured hour-of-year period.
func newLocalHeatStorage(ctx model.BuildContext) (model.Block, error) {
	var p storageParams
	if err := decodeParams(ctx.Name, ctx.Params, &p); err != nil {
		return nil, err
	}
	s, err := storageCore(ctx, "local_heat_storage", p)
	if err != nil {
		return nil, err
	}
	n := ctx.Horizon

	excessMax := 0.0
	if p.ExcessMax != nil {
		excessMax = *p.ExcessMax
	}
	excess := s.nonNeg("excess", n)
	if excessMax > 0 {
		for t := 0; t < n; t++ {
			excess.SetBounds(t, 0, excessMax)
		}
	}

	s.port("heat_in", model.In, model.LocalHeat, s.charge, model.OpenClosed)
	s.port("heat_out", model.Out, model.LocalHeat, s.discharge, model.OpenClosed)
	s.port("excess_heat_out", model.Out, model.Heat, excess, model.OpenClosed)

	if ctx.Params.Has("discharge_restricted_from") != ctx.Params.Has("discharge_restricted_to") {
		return nil, &model.ConfigError{Block: ctx.Name, Field: "discharge_restricted_from",
			Reason: "discharge restriction needs both start and end hour"}
	}
	if p.DischargeRestrictedFrom != nil {
		period := timeutils.HourPeriod{
			Start: int(*p.DischargeRestrictedFrom),
			End:   int(*p.DischargeRestrictedTo),
		}
		if err := period.Validate(n); err != nil {
			return nil, &model.ConfigError{Block: ctx.Name, Field: "discharge_restricted_from",
				Reason: err.Error()}
		}
		for t := 0; t < n; t++ {
			if period.Contains(t, n) {
				s.discharge.FixZero(t)
			}
		}
	}

	s.addRecurrence(ctx.Name, n, excess)
	return s, nil
}
