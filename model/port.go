package model

// Carrier is the energy or material type flowing through a port. Arcs may
// only connect ports of identical carrier.
type Carrier string

const (
	Power      Carrier = "power"
	Heat       Carrier = "heat"
	LocalHeat  Carrier = "local_heat"
	WasteHeat  Carrier = "waste_heat"
	NaturalGas Carrier = "natural_gas"
	Hydrogen   Carrier = "hydrogen"
)

// Direction fixes whether a port receives or emits flow.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// OpenMode declares what a port means when it is flagged as a boundary port
// and left unconnected. Ports whose flow is determined by the block's own
// physics (a CHP's waste heat, a PV panel's output) vent to the environment;
// ports whose flow would otherwise be a free decision (a grid feed-in slot,
// a storage inlet) are clamped to zero so nothing appears from nowhere.
type OpenMode int

const (
	OpenVent OpenMode = iota
	OpenClosed
)

// Port is a named, typed connection point on a block for one directed
// energy flow. Flow carries the per-timestep port value in MW.
type Port struct {
	Block   string
	Name    string
	Dir     Direction
	Carrier Carrier
	Flow    *VarGroup

	// FanOut permits several outgoing arcs on an output port; the port value
	// then splits across per-arc flow variables. Input ports never fan in.
	FanOut bool

	WhenOpen OpenMode
}

// Qualified returns the "{block}.{port}" identity used in topology
// declarations and error reports.
func (p *Port) Qualified() string { return p.Block + "." + p.Name }
