package model

import (
	"fmt"
	"sort"
	"strings"
)

// Arc is a directed link between one output port and one input port. For a
// simple source it exists only as an equality constraint; for a fan-out
// source the assembler attaches a dedicated per-timestep flow variable.
type Arc struct {
	From *Port
	To   *Port
	Flow *VarGroup // non-nil only for fan-out expansions
}

// System is the assembled energy-balance graph: all block instances, the
// arcs between their ports, and the aggregated objective, over one shared
// time index. Blocks, ports and variables live in flat slices in
// declaration order; arcs reference ports by identity.
type System struct {
	horizon int

	blocks  []Block
	byName  map[string]Block
	ports   map[string]*Port
	portSeq []*Port

	arcs     []*Arc
	incoming map[*Port]*Arc
	outgoing map[*Port][]*Arc
	boundary map[*Port]bool

	arcFlows       []*VarGroup
	arcConstraints []Constraint

	finalized bool
}

// NewSystem creates an empty system over an n-step hourly horizon.
func NewSystem(n int) *System {
	return &System{
		horizon:  n,
		byName:   map[string]Block{},
		ports:    map[string]*Port{},
		incoming: map[*Port]*Arc{},
		outgoing: map[*Port][]*Arc{},
		boundary: map[*Port]bool{},
	}
}

// Horizon returns the number of timesteps.
func (s *System) Horizon() int { return s.horizon }

// Blocks returns the block instances in declaration order.
func (s *System) Blocks() []Block { return s.blocks }

// Block looks up a block instance by identity.
func (s *System) Block(name string) (Block, bool) {
	b, ok := s.byName[name]
	return b, ok
}

// Arcs returns the declared arcs in declaration order.
func (s *System) Arcs() []*Arc { return s.arcs }

// AddBlock registers an instantiated block and indexes its ports.
func (s *System) AddBlock(b Block) error {
	if _, dup := s.byName[b.Name()]; dup {
		return &ConfigError{Block: b.Name(), Reason: "duplicate block identity"}
	}
	s.blocks = append(s.blocks, b)
	s.byName[b.Name()] = b
	for _, p := range b.Ports() {
		key := p.Qualified()
		if _, dup := s.ports[key]; dup {
			return &ConfigError{Block: b.Name(), Field: p.Name, Reason: "duplicate port name"}
		}
		s.ports[key] = p
		s.portSeq = append(s.portSeq, p)
	}
	return nil
}

// Port resolves a "block.port" reference.
func (s *System) Port(ref string) (*Port, error) {
	p, ok := s.ports[ref]
	if !ok {
		if !strings.Contains(ref, ".") {
			return nil, &TopologyError{Reason: fmt.Sprintf("port reference %q is not of the form block.port", ref)}
		}
		return nil, &TopologyError{Reason: fmt.Sprintf("port %q does not exist", ref)}
	}
	return p, nil
}

// Connect wires an output port to an input port of matching carrier. The
// equality (or fan-out split) constraints are generated in Finalize.
func (s *System) Connect(fromRef, toRef string) error {
	from, err := s.Port(fromRef)
	if err != nil {
		return err
	}
	to, err := s.Port(toRef)
	if err != nil {
		return err
	}
	if from.Dir != Out {
		return &TopologyError{From: fromRef, To: toRef, Reason: "source is not an output port"}
	}
	if to.Dir != In {
		return &TopologyError{From: fromRef, To: toRef, Reason: "target is not an input port"}
	}
	if from.Carrier != to.Carrier {
		return &TopologyError{From: fromRef, To: toRef,
			Reason: fmt.Sprintf("carrier mismatch: %s vs %s", from.Carrier, to.Carrier)}
	}
	if _, bound := s.incoming[to]; bound {
		return &TopologyError{From: fromRef, To: toRef, Reason: "input port already has an incoming arc"}
	}
	if !from.FanOut && len(s.outgoing[from]) > 0 {
		return &TopologyError{From: fromRef, To: toRef, Reason: "output port does not support fan-out"}
	}
	arc := &Arc{From: from, To: to}
	s.arcs = append(s.arcs, arc)
	s.incoming[to] = arc
	s.outgoing[from] = append(s.outgoing[from], arc)
	return nil
}

// MarkBoundary declares a port as intentionally open to the environment.
func (s *System) MarkBoundary(ref string) error {
	p, err := s.Port(ref)
	if err != nil {
		return err
	}
	s.boundary[p] = true
	return nil
}

// IsBoundary reports whether the port was flagged as boundary.
func (s *System) IsBoundary(p *Port) bool { return s.boundary[p] }

// Finalize checks the closure invariant and generates the flow-conservation
// constraints for every arc. It must be called exactly once, after all
// blocks, arcs and boundary flags are in place.
//
// Closure: every non-boundary port must be connected (inputs by exactly one
// arc, enforced at Connect; outputs by at least one). All violations are
// collected into a single ValidationError. Boundary ports with OpenClosed
// semantics are clamped to zero flow rather than left dangling.
func (s *System) Finalize() error {
	if s.finalized {
		return fmt.Errorf("system already finalized")
	}

	var open []string
	for _, p := range s.portSeq {
		connected := false
		if p.Dir == In {
			_, connected = s.incoming[p]
		} else {
			connected = len(s.outgoing[p]) > 0
		}
		if connected {
			continue
		}
		if !s.boundary[p] {
			open = append(open, p.Qualified())
			continue
		}
		if p.WhenOpen == OpenClosed {
			for t := 0; t < s.horizon; t++ {
				p.Flow.FixZero(t)
			}
		}
	}
	if len(open) > 0 {
		sort.Strings(open)
		return &ValidationError{Ports: open}
	}

	for _, p := range s.portSeq {
		if p.Dir != Out {
			continue
		}
		arcs := s.outgoing[p]
		switch {
		case len(arcs) == 0:
			// boundary port, nothing to conserve
		case len(arcs) == 1:
			s.equalFlows(arcs[0])
		default:
			s.splitFlows(p, arcs)
		}
	}

	s.finalized = true
	return nil
}

// equalFlows emits source[t] == target[t] for a one-to-one arc.
func (s *System) equalFlows(a *Arc) {
	for t := 0; t < s.horizon; t++ {
		name := fmt.Sprintf("arc(%s->%s)[%d]", a.From.Qualified(), a.To.Qualified(), t)
		lhs := Lin().Add(a.From.Flow, t, 1).Add(a.To.Flow, t, -1)
		s.arcConstraints = append(s.arcConstraints, EqC(name, lhs, 0))
	}
}

// splitFlows expands a fan-out port: one flow variable per arc, the source
// port value equal to their sum, and each target pinned to its own share.
func (s *System) splitFlows(p *Port, arcs []*Arc) {
	for _, a := range arcs {
		flow := NewNonNeg(p.Block, fmt.Sprintf("%s->%s", p.Name, a.To.Qualified()), s.horizon)
		flow.arcFlow = true
		a.Flow = flow
		s.arcFlows = append(s.arcFlows, flow)
	}
	for t := 0; t < s.horizon; t++ {
		sum := Lin().Add(p.Flow, t, 1)
		for _, a := range arcs {
			sum = sum.Add(a.Flow, t, -1)
		}
		s.arcConstraints = append(s.arcConstraints,
			EqC(fmt.Sprintf("split(%s)[%d]", p.Qualified(), t), sum, 0))
		for _, a := range arcs {
			lhs := Lin().Add(a.To.Flow, t, 1).Add(a.Flow, t, -1)
			s.arcConstraints = append(s.arcConstraints,
				EqC(fmt.Sprintf("arc(%s->%s)[%d]", p.Qualified(), a.To.Qualified(), t), lhs, 0))
		}
	}
}

// Constraints returns every constraint in the system: block physics first
// (in block declaration order), then arc conservation.
func (s *System) Constraints() []Constraint {
	var out []Constraint
	for _, b := range s.blocks {
		out = append(out, b.Constraints()...)
	}
	out = append(out, s.arcConstraints...)
	return out
}

// VarGroups returns every variable group in the system in stable order:
// block variables in declaration order, then fan-out arc flows.
func (s *System) VarGroups() []*VarGroup {
	var out []*VarGroup
	for _, b := range s.blocks {
		out = append(out, b.Variables()...)
	}
	out = append(out, s.arcFlows...)
	return out
}

// Objective returns the total-cost expression: the sum of every block's
// cost over the whole horizon. Purely additive and linear.
func (s *System) Objective() Expr {
	obj := Lin()
	for _, b := range s.blocks {
		for t := 0; t < s.horizon; t++ {
			c := b.Cost(t)
			obj.Terms = append(obj.Terms, c.Terms...)
			obj.Const += c.Const
		}
	}
	return obj
}
