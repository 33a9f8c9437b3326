package model

import (
	"math"
	"testing"
)

func TestCompileLaysOutColumnsInDeclarationOrder(t *testing.T) {
	s := NewSystem(2)
	b := newStub("gen")
	power := NewNonNeg("gen", "power", 2)
	on := NewBinary("gen", "on", 2)
	b.vars = append(b.vars, power, on)
	b.cons = append(b.cons,
		LeC("gen.cap[0]", Lin().Add(power, 0, 1).Add(on, 0, -10), 0),
		LeC("gen.cap[1]", Lin().Add(power, 1, 1).Add(on, 1, -10), 0),
	)
	mustAdd(t, s, b)
	if err := s.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	mip, err := s.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if mip.Cols != 4 {
		t.Fatalf("cols = %d, want 4", mip.Cols)
	}
	wantNames := []string{"gen.power[0]", "gen.power[1]", "gen.on[0]", "gen.on[1]"}
	for j, want := range wantNames {
		if mip.Names[j] != want {
			t.Fatalf("column %d named %q, want %q", j, mip.Names[j], want)
		}
	}
	for j := 0; j < 2; j++ {
		if mip.Integer[j] {
			t.Fatalf("power column %d marked integer", j)
		}
		if !mip.Integer[j+2] {
			t.Fatalf("on column %d not marked integer", j+2)
		}
		if mip.LB[j] != 0 || !math.IsInf(mip.UB[j], 1) {
			t.Fatalf("power bounds [%g,%g], want [0,inf)", mip.LB[j], mip.UB[j])
		}
		if mip.LB[j+2] != 0 || mip.UB[j+2] != 1 {
			t.Fatalf("binary bounds [%g,%g], want [0,1]", mip.LB[j+2], mip.UB[j+2])
		}
	}
	if len(mip.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(mip.Rows))
	}
}

func TestCompileFoldsConstantsAndMergesDuplicates(t *testing.T) {
	s := NewSystem(1)
	b := newStub("b")
	x := NewNonNeg("b", "x", 1)
	b.vars = append(b.vars, x)
	// 2x + 3x + 5 <= 10 compiles to 5x <= 5
	lhs := Lin().Add(x, 0, 2).Add(x, 0, 3).AddConst(5)
	b.cons = append(b.cons, LeC("b.merged", lhs, 10))
	mustAdd(t, s, b)
	if err := s.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	mip, err := s.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	row := mip.Rows[0]
	if len(row.Cols) != 1 || row.Coeffs[0] != 5 {
		t.Fatalf("row cols=%v coeffs=%v, want single column with coefficient 5", row.Cols, row.Coeffs)
	}
	if row.RHS != 5 {
		t.Fatalf("row rhs = %g, want 5", row.RHS)
	}
}

func TestCompileValueRoundTrip(t *testing.T) {
	s := NewSystem(2)
	b := newStub("b")
	x := NewNonNeg("b", "x", 2)
	b.vars = append(b.vars, x)
	mustAdd(t, s, b)
	if err := s.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	mip, err := s.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	values := []float64{7, 9}
	if got := mip.Value(values, x, 1); got != 9 {
		t.Fatalf("Value(x,1) = %g, want 9", got)
	}
	if got := mip.Column(x, 0); got != 0 {
		t.Fatalf("Column(x,0) = %d, want 0", got)
	}
}
