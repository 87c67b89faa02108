package elaborate

import (
	"testing"

	"github.com/matzehuels/netdraw/pkg/netlist"
)

func bits(ids ...int) netlist.Vector {
	v := make(netlist.Vector, len(ids))
	for i, id := range ids {
		v[i] = netlist.Bit(id)
	}
	return v
}

func lits(s string) netlist.Vector {
	v := make(netlist.Vector, len(s))
	for i := range s {
		v[i] = netlist.Const(s[i])
	}
	return v
}

func constCells(m *Module) []*Cell {
	var out []*Cell
	for _, c := range m.Nodes {
		if c.Type == TypeConstant {
			out = append(out, c)
		}
	}
	return out
}

func TestConstantSynthesis(t *testing.T) {
	// One cell consuming the literal pattern 0,0,1.
	c := newCell("u1", "generic", nil,
		[]*Port{{Key: "A", Value: lits("001")}},
		[]*Port{{Key: "Y", Value: bits(7)}})
	m := &Module{Nodes: []*Cell{c}}

	SynthesizeConstants(m)

	consts := constCells(m)
	if len(consts) != 1 {
		t.Fatalf("constant cells = %d, want 1", len(consts))
	}
	// Name is the reversed literal run.
	if consts[0].Key != "100" {
		t.Errorf("constant key = %q, want 100", consts[0].Key)
	}
	// Fresh signals start above the output maximum.
	want := bits(8, 9, 10)
	if !consts[0].Outputs[0].Value.Equal(want) {
		t.Errorf("constant output = %v, want %v", consts[0].Outputs[0].Value, want)
	}
	if !c.Inputs[0].Value.Equal(want) {
		t.Errorf("consumer slots = %v, want %v", c.Inputs[0].Value, want)
	}
}

func TestConstantCoalescing(t *testing.T) {
	// Two cells each consuming 0,0,1: they must share one driver.
	c1 := newCell("u1", "generic", nil, []*Port{{Key: "A", Value: lits("001")}}, nil)
	c2 := newCell("u2", "generic", nil, []*Port{{Key: "A", Value: lits("001")}}, nil)
	m := &Module{Nodes: []*Cell{c1, c2}}

	SynthesizeConstants(m)

	consts := constCells(m)
	if len(consts) != 1 {
		t.Fatalf("constant cells = %d, want 1 (coalesced)", len(consts))
	}
	if consts[0].Key != "100" {
		t.Errorf("constant key = %q, want 100", consts[0].Key)
	}
	if !c1.Inputs[0].Value.Equal(c2.Inputs[0].Value) {
		t.Errorf("consumers should reference the same run: %v vs %v",
			c1.Inputs[0].Value, c2.Inputs[0].Value)
	}
	if !c1.Inputs[0].Value.Equal(consts[0].Outputs[0].Value) {
		t.Error("consumer slots should reference the constant output run")
	}
}

func TestConstantRunsSplitByNets(t *testing.T) {
	// A literal run interrupted by a net signal produces two constants.
	c := newCell("u1", "generic", nil,
		[]*Port{{Key: "A", Value: netlist.Vector{
			netlist.Const('1'), netlist.Bit(4), netlist.Const('0'), netlist.Const('1'),
		}}}, nil)
	m := &Module{Nodes: []*Cell{c}}

	SynthesizeConstants(m)

	consts := constCells(m)
	if len(consts) != 2 {
		t.Fatalf("constant cells = %d, want 2", len(consts))
	}
	if consts[0].Key != "1" || consts[1].Key != "10" {
		t.Errorf("constant keys = %q, %q, want 1 and 10", consts[0].Key, consts[1].Key)
	}
	// The untouched net signal survives in place.
	if c.Inputs[0].Value[1] != netlist.Bit(4) {
		t.Errorf("net bit clobbered: %v", c.Inputs[0].Value)
	}
}

func TestNoLiteralsAfterSynthesis(t *testing.T) {
	c := newCell("u1", "generic", nil,
		[]*Port{
			{Key: "A", Value: lits("01")},
			{Key: "B", Value: netlist.Vector{netlist.Bit(3), netlist.Const('1')}},
		},
		[]*Port{{Key: "Y", Value: bits(3)}})
	m := &Module{Nodes: []*Cell{c}}

	SynthesizeConstants(m)

	for _, cell := range m.Nodes {
		for _, p := range cell.Inputs {
			for _, sig := range p.Value {
				if sig.IsConst() {
					t.Fatalf("literal %q survived on %s.%s", sig.Lit, cell.Key, p.Key)
				}
				if sig.ID < 0 {
					t.Fatalf("negative signal on %s.%s", cell.Key, p.Key)
				}
			}
		}
	}
}

func TestConstantSynthesisIdempotent(t *testing.T) {
	c := newCell("u1", "generic", nil, []*Port{{Key: "A", Value: lits("01")}}, nil)
	m := &Module{Nodes: []*Cell{c}}

	SynthesizeConstants(m)
	before := len(m.Nodes)
	SynthesizeConstants(m)
	if len(m.Nodes) != before {
		t.Errorf("re-running constant synthesis added cells: %d → %d", before, len(m.Nodes))
	}
}
