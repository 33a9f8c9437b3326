package model

import (
	"fmt"
	"sort"
)

// Block is one physical component instance: a fixed set of ports, the
// decision variables and constraints expressing its physics, and its
// per-timestep cost contribution. Instances are fully populated at
// creation and never mutated afterwards.
type Block interface {
	Name() string
	Type() string

	// Ports returns the block's connection points in declaration order.
	// The set is structural: it does not depend on parameter values.
	Ports() []*Port

	// Variables returns the block's variable groups in declaration order.
	Variables() []*VarGroup

	// Constraints returns the block's intra-block constraints. All are
	// per-timestep except the storage recurrences and the few declared
	// cross-time couplings (forced operation, annual local share).
	Constraints() []Constraint

	// Cost returns the block's operating cost (negative for revenue) in
	// EUR at timestep t. Blocks with no monetized flow return a zero Expr.
	Cost(t int) Expr
}

// Params carries a block's scalar parameters from the scenario
// configuration. Global scenario parameters are merged in as defaults
// before instantiation, so blocks see one flat namespace.
type Params map[string]float64

// Float returns a required parameter or a ConfigError naming the block and
// field.
func (p Params) Float(block, name string) (float64, error) {
	v, ok := p[name]
	if !ok {
		return 0, &ConfigError{Block: block, Field: name, Reason: "required parameter missing"}
	}
	return v, nil
}

// FloatDefault returns the parameter or def when absent.
func (p Params) FloatDefault(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Has reports whether the parameter was configured.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Series carries a block's resolved timeseries: one value per timestep of
// the horizon, keyed by the block's logical series name.
type Series map[string][]float64

// Get returns a required series or a ConfigError.
func (s Series) Get(block, name string) ([]float64, error) {
	v, ok := s[name]
	if !ok {
		return nil, &ConfigError{Block: block, Field: name, Reason: "required timeseries missing"}
	}
	return v, nil
}

// GetDefault returns the series, or a constant series of def when absent.
func (s Series) GetDefault(name string, n int, def float64) []float64 {
	if v, ok := s[name]; ok {
		return v
	}
	c := make([]float64, n)
	for i := range c {
		c[i] = def
	}
	return c
}

// BuildContext is everything a block factory needs to instantiate one block.
type BuildContext struct {
	Name    string
	Params  Params
	Series  Series
	Horizon int
}

// Factory instantiates a block of one registered type. It must return a
// ConfigError (possibly wrapped) for missing or out-of-range inputs.
type Factory func(ctx BuildContext) (Block, error)

var factories = map[string]Factory{}

// RegisterBlockType makes a block type available to the assembler. It is
// called from init functions of the block catalog, driver-style.
func RegisterBlockType(typeName string, f Factory) {
	if _, dup := factories[typeName]; dup {
		panic(fmt.Sprintf("model: block type %q registered twice", typeName))
	}
	factories[typeName] = f
}

// BlockTypes lists the registered type names, sorted.
func BlockTypes() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func factoryFor(typeName string) (Factory, bool) {
	f, ok := factories[typeName]
	return f, ok
}
