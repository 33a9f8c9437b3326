package model

import (
	"errors"
	"testing"
)

func init() {
	RegisterBlockType("assemble_test_source", func(ctx BuildContext) (Block, error) {
		b := newStub(ctx.Name)
		b.out("flow", Heat, false, OpenVent)
		return b, nil
	})
	RegisterBlockType("assemble_test_sink", func(ctx BuildContext) (Block, error) {
		b := newStub(ctx.Name)
		b.in("flow", Heat, OpenClosed)
		return b, nil
	})
}

func TestAssembleUnknownTypeIsConfigError(t *testing.T) {
	_, err := Assemble(Topology{
		Blocks: []BlockSpec{{Name: "x", Type: "no_such_type"}},
	}, 3)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
	if cfgErr.Block != "x" {
		t.Fatalf("error names block %q, want x", cfgErr.Block)
	}
}

func TestAssembleWiresAndFinalizes(t *testing.T) {
	sys, err := Assemble(Topology{
		Blocks: []BlockSpec{
			{Name: "src", Type: "assemble_test_source"},
			{Name: "sink", Type: "assemble_test_sink"},
		},
		Arcs: []ArcSpec{{From: "src.flow", To: "sink.flow"}},
	}, 3)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(sys.Blocks()) != 2 || len(sys.Arcs()) != 1 {
		t.Fatalf("got %d blocks, %d arcs", len(sys.Blocks()), len(sys.Arcs()))
	}
	if len(sys.Constraints()) != 3 {
		t.Fatalf("got %d constraints, want one arc equality per timestep", len(sys.Constraints()))
	}
}

func TestAssembleUnconnectedPortNeverReachesCompile(t *testing.T) {
	_, err := Assemble(Topology{
		Blocks: []BlockSpec{{Name: "src", Type: "assemble_test_source"}},
	}, 3)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if len(valErr.Ports) != 1 || valErr.Ports[0] != "src.flow" {
		t.Fatalf("open ports = %v, want [src.flow]", valErr.Ports)
	}
}

func TestAssembleRejectsNonPositiveHorizon(t *testing.T) {
	if _, err := Assemble(Topology{}, 0); err == nil {
		t.Fatal("horizon 0 accepted")
	}
}
