package elaborate

import (
	"testing"
)

func cellsOfType(m *Module, typ string) []*Cell {
	var out []*Cell
	for _, c := range m.Nodes {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

func portKeys(ports []*Port) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.Key
	}
	return out
}

func TestBusSplit(t *testing.T) {
	// Driver carries 10..13; two consumers take the halves.
	driver := newCell("src", "generic", nil, nil,
		[]*Port{{Key: "Y", Value: bits(10, 11, 12, 13)}})
	lo := newCell("lo", "generic", nil, []*Port{{Key: "A", Value: bits(10, 11)}}, nil)
	hi := newCell("hi", "generic", nil, []*Port{{Key: "A", Value: bits(12, 13)}}, nil)
	m := &Module{Nodes: []*Cell{driver, lo, hi}}

	SynthesizeSplitJoins(m)

	splits := cellsOfType(m, TypeSplit)
	if len(splits) != 1 {
		t.Fatalf("splits = %d, want 1", len(splits))
	}
	if splits[0].Key != "$split$,10,11,12,13," {
		t.Errorf("split key = %q", splits[0].Key)
	}
	got := portKeys(splits[0].Outputs)
	if len(got) != 2 || got[0] != "0:1" || got[1] != "2:3" {
		t.Errorf("split output ports = %v, want [0:1 2:3]", got)
	}
	if splits[0].Inputs[0].Key != "A" || splits[0].Inputs[0].Value.Key() != ",10,11,12,13," {
		t.Errorf("split input wrong: %+v", splits[0].Inputs[0])
	}
	if !splits[0].Outputs[0].Value.Equal(bits(10, 11)) || !splits[0].Outputs[1].Value.Equal(bits(12, 13)) {
		t.Error("split range values wrong")
	}
	if len(cellsOfType(m, TypeJoin)) != 0 {
		t.Error("no joins expected")
	}
}

func TestBusJoin(t *testing.T) {
	// Two drivers produce the halves; one consumer takes the whole bus.
	d1 := newCell("d1", "generic", nil, nil, []*Port{{Key: "Y", Value: bits(20, 21)}})
	d2 := newCell("d2", "generic", nil, nil, []*Port{{Key: "Y", Value: bits(22, 23)}})
	sink := newCell("sink", "generic", nil,
		[]*Port{{Key: "A", Value: bits(20, 21, 22, 23)}}, nil)
	m := &Module{Nodes: []*Cell{d1, d2, sink}}

	SynthesizeSplitJoins(m)

	joins := cellsOfType(m, TypeJoin)
	if len(joins) != 1 {
		t.Fatalf("joins = %d, want 1", len(joins))
	}
	if joins[0].Key != "$join$,20,21,22,23," {
		t.Errorf("join key = %q", joins[0].Key)
	}
	got := portKeys(joins[0].Inputs)
	if len(got) != 2 || got[0] != "0:1" || got[1] != "2:3" {
		t.Errorf("join input ports = %v, want [0:1 2:3]", got)
	}
	if joins[0].Outputs[0].Key != "Y" || !joins[0].Outputs[0].Value.Equal(bits(20, 21, 22, 23)) {
		t.Errorf("join output wrong: %+v", joins[0].Outputs[0])
	}
	if len(cellsOfType(m, TypeSplit)) != 0 {
		t.Error("no splits expected")
	}
}

func TestSingleBitRangeName(t *testing.T) {
	// One consumer takes a single bit out of a wide driver.
	driver := newCell("src", "generic", nil, nil, []*Port{{Key: "Y", Value: bits(5, 6, 7)}})
	sink := newCell("sink", "generic", nil, []*Port{{Key: "A", Value: bits(6)}}, nil)
	m := &Module{Nodes: []*Cell{driver, sink}}

	SynthesizeSplitJoins(m)

	splits := cellsOfType(m, TypeSplit)
	if len(splits) != 1 {
		t.Fatalf("splits = %d, want 1", len(splits))
	}
	got := portKeys(splits[0].Outputs)
	if len(got) != 1 || got[0] != "1" {
		t.Errorf("split ports = %v, want [1]", got)
	}
	if !splits[0].Outputs[0].Value.Equal(bits(6)) {
		t.Errorf("split value = %v, want [6]", splits[0].Outputs[0].Value)
	}
}

func TestSharedSplitSource(t *testing.T) {
	// Multiple ranges from one source share a single split cell.
	driver := newCell("src", "generic", nil, nil, []*Port{{Key: "Y", Value: bits(1, 2, 3, 4)}})
	a := newCell("a", "generic", nil, []*Port{{Key: "A", Value: bits(1, 2)}}, nil)
	b := newCell("b", "generic", nil, []*Port{{Key: "A", Value: bits(3)}}, nil)
	c := newCell("c", "generic", nil, []*Port{{Key: "A", Value: bits(4)}}, nil)
	m := &Module{Nodes: []*Cell{driver, a, b, c}}

	SynthesizeSplitJoins(m)

	splits := cellsOfType(m, TypeSplit)
	if len(splits) != 1 {
		t.Fatalf("splits = %d, want 1 shared cell", len(splits))
	}
	got := portKeys(splits[0].Outputs)
	if len(got) != 3 {
		t.Errorf("split ports = %v, want 3 ranges", got)
	}
}

func TestExactMatchNeedsNoSynthesis(t *testing.T) {
	d := newCell("d", "generic", nil, nil, []*Port{{Key: "Y", Value: bits(2, 3)}})
	s := newCell("s", "generic", nil, []*Port{{Key: "A", Value: bits(2, 3)}}, nil)
	m := &Module{Nodes: []*Cell{d, s}}

	SynthesizeSplitJoins(m)

	if n := len(m.Nodes); n != 2 {
		t.Errorf("nodes = %d, want 2 (no synthesis)", n)
	}
}

func TestSplitJoinFixedPoint(t *testing.T) {
	driver := newCell("src", "generic", nil, nil,
		[]*Port{{Key: "Y", Value: bits(10, 11, 12, 13)}})
	lo := newCell("lo", "generic", nil, []*Port{{Key: "A", Value: bits(10, 11)}}, nil)
	hi := newCell("hi", "generic", nil, []*Port{{Key: "A", Value: bits(12, 13)}}, nil)
	m := &Module{Nodes: []*Cell{driver, lo, hi}}

	SynthesizeSplitJoins(m)
	before := len(m.Nodes)
	SynthesizeSplitJoins(m)
	if len(m.Nodes) != before {
		t.Errorf("re-running split/join synthesis added cells: %d → %d", before, len(m.Nodes))
	}
}

func TestCoverInvariant(t *testing.T) {
	// Every consumer bit must be covered by declared drivers plus
	// synthesized split outputs and join outputs.
	driver := newCell("src", "generic", nil, nil,
		[]*Port{{Key: "Y", Value: bits(1, 2, 3, 4)}})
	d2 := newCell("d2", "generic", nil, nil, []*Port{{Key: "Y", Value: bits(9)}})
	odd := newCell("odd", "generic", nil,
		[]*Port{{Key: "A", Value: bits(2, 3, 9)}}, nil)
	m := &Module{Nodes: []*Cell{driver, d2, odd}}

	SynthesizeSplitJoins(m)

	produced := map[string]bool{}
	for _, c := range m.Nodes {
		for _, p := range c.Outputs {
			produced[p.Value.Key()] = true
		}
	}
	if !produced[",2,3,9,"] {
		t.Error("consumer vector not produced by any driver after synthesis")
	}
	if !produced[",2,3,"] {
		t.Error("split range ,2,3, not exposed")
	}
}
