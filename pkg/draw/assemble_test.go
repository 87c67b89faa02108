package draw

import (
	"strings"
	"testing"

	"github.com/matzehuels/netdraw/pkg/elaborate"
	"github.com/matzehuels/netdraw/pkg/layout"
	"github.com/matzehuels/netdraw/pkg/netlist"
	"github.com/matzehuels/netdraw/pkg/skin"
)

const testSkin = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:s="https://github.com/matzehuels/netdraw" width="80" height="40">
  <s:properties/>
  <style>line{stroke:#000}</style>
  <g s:type="inputExt" s:width="30" s:height="20">
    <s:alias val="$_inputExt_"/>
    <text s:attribute="ref">input</text>
    <rect width="30" height="20"/>
    <g s:pid="Y" s:x="30" s:y="10" s:position="right"/>
  </g>
  <g s:type="constant" s:width="30" s:height="20">
    <s:alias val="$_constant_"/>
    <text s:attribute="ref">constant</text>
    <g s:pid="Y" s:x="30" s:y="10" s:position="right"/>
  </g>
  <g s:type="split" s:width="20" s:height="40">
    <s:alias val="$_split_"/>
    <rect width="20" height="40"/>
    <g s:pid="A" s:x="0" s:y="20" s:position="left"/>
    <g s:pid="out0" s:x="20" s:y="7.5" s:position="right"><text>o</text></g>
    <g s:pid="out1" s:x="20" s:y="22.5" s:position="right"><text>o</text></g>
  </g>
  <g s:type="join" s:width="20" s:height="40">
    <s:alias val="$_join_"/>
    <rect width="20" height="40"/>
    <g s:pid="in0" s:x="0" s:y="7.5" s:position="left"><text>i</text></g>
    <g s:pid="Y" s:x="20" s:y="20" s:position="right"/>
  </g>
  <g s:type="generic" s:width="40" s:height="40">
    <s:alias val="generic"/>
    <rect width="40" height="40"/>
    <text s:attribute="ref">gen</text>
    <text s:attribute="name"></text>
    <g s:pid="in0" s:x="0" s:y="7.5" s:position="left"><text>i0</text></g>
    <g s:pid="in1" s:x="0" s:y="22.5" s:position="left"><text>i1</text></g>
    <g s:pid="out0" s:x="40" s:y="15" s:position="right"><text>o0</text></g>
  </g>
</svg>`

func testSkinT(t *testing.T) *skin.Skin {
	t.Helper()
	s, err := skin.Parse(testSkin)
	if err != nil {
		t.Fatalf("parse skin: %v", err)
	}
	return s
}

func bits(ids ...int) netlist.Vector {
	v := make(netlist.Vector, len(ids))
	for i, id := range ids {
		v[i] = netlist.Bit(id)
	}
	return v
}

func TestAssembleBasics(t *testing.T) {
	sk := testSkinT(t)

	m := &elaborate.Module{
		Name: "m",
		Nodes: []*elaborate.Cell{
			{Key: "a", Type: elaborate.TypeInputExt,
				Outputs: []*elaborate.Port{{Key: "Y", Value: bits(2)}}},
		},
	}
	g := &layout.Graph{
		Width: 120, Height: 60,
		Children: []*layout.Node{{ID: "a", X: 10, Y: 20, Width: 30, Height: 20}},
		Edges: []*layout.Edge{
			{
				ID: "e0",
				Sections: []*layout.Section{{
					StartPoint: layout.Point{X: 40, Y: 30},
					BendPoints: []layout.Point{{X: 60, Y: 30}},
					EndPoint:   layout.Point{X: 60, Y: 50},
				}},
				JunctionPoints: []layout.Point{{X: 60, Y: 30}},
			},
		},
	}

	svg, err := Assemble(sk, m, g)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	for _, want := range []string{
		`width="120"`,
		`height="60"`,
		`line{stroke:#000}`,
		`translate(10,20)`,
		`>a</text>`, // ref text substituted with the cell key
		`<line x1="40" y1="30" x2="60" y2="30"/>`,
		`<line x1="60" y1="30" x2="60" y2="50"/>`,
		`<circle cx="60" cy="30" r="2"/>`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("output missing %q:\n%s", want, svg)
		}
	}

	// Skin bookkeeping must not leak into the output.
	for _, forbidden := range []string{"s:alias", "s:pid", "s:type", "s:attribute"} {
		if strings.Contains(svg, forbidden) {
			t.Errorf("output leaks %q", forbidden)
		}
	}
}

func TestAssembleConstantHex(t *testing.T) {
	sk := testSkinT(t)

	m := &elaborate.Module{
		Name: "m",
		Nodes: []*elaborate.Cell{
			{Key: "101", Type: elaborate.TypeConstant,
				Outputs: []*elaborate.Port{{Key: "Y", Value: bits(8, 9, 10)}}},
		},
	}
	g := &layout.Graph{
		Children: []*layout.Node{{ID: "101", X: 0, Y: 0, Width: 30, Height: 20}},
	}

	svg, err := Assemble(sk, m, g)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.Contains(svg, ">0x5</text>") {
		t.Errorf("multi-bit constant should render as hex:\n%s", svg)
	}
}

func TestAssembleGenericReplication(t *testing.T) {
	sk := testSkinT(t)

	cell := &elaborate.Cell{Key: "u1", Type: "$custom"}
	cell.Inputs = []*elaborate.Port{
		{Key: "A", Value: bits(1), Parent: cell},
		{Key: "B", Value: bits(2), Parent: cell},
		{Key: "C", Value: bits(3), Parent: cell},
	}
	cell.Outputs = []*elaborate.Port{{Key: "Y", Value: bits(4), Parent: cell}}

	m := &elaborate.Module{Name: "m", Nodes: []*elaborate.Cell{cell}}
	g := &layout.Graph{
		Children: []*layout.Node{{ID: "u1", X: 0, Y: 0, Width: 40, Height: 55}},
	}

	svg, err := Assemble(sk, m, g)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// Unknown type fell back to the generic template: body label is the
	// cell type, pins are replicated per port with their names.
	for _, want := range []string{">$custom</text>", ">A</text>", ">B</text>", ">C</text>", ">Y</text>"} {
		if !strings.Contains(svg, want) {
			t.Errorf("output missing %q", want)
		}
	}
	// Body rectangle stretched to the computed height.
	if !strings.Contains(svg, `height="55"`) {
		t.Error("body rect not resized to the layout height")
	}
}

func TestAssembleSplitPins(t *testing.T) {
	sk := testSkinT(t)

	cell := &elaborate.Cell{Key: "$split$,1,2,3,4,", Type: elaborate.TypeSplit}
	cell.Inputs = []*elaborate.Port{{Key: "A", Value: bits(1, 2, 3, 4), Parent: cell}}
	cell.Outputs = []*elaborate.Port{
		{Key: "0:1", Value: bits(1, 2), Parent: cell},
		{Key: "2:3", Value: bits(3, 4), Parent: cell},
	}

	m := &elaborate.Module{Name: "m", Nodes: []*elaborate.Cell{cell}}
	g := &layout.Graph{
		Children: []*layout.Node{{ID: cell.Key, X: 0, Y: 0, Width: 20, Height: 40}},
	}

	svg, err := Assemble(sk, m, g)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// The fixed-role A pin moves onto the same slot grid the layout stage
	// anchored it to, not its raw template position.
	if !strings.Contains(svg, `translate(0,7.5)`) {
		t.Errorf("A pin not repositioned to its layout slot:\n%s", svg)
	}
	if strings.Contains(svg, `translate(0,20)`) {
		t.Error("A pin left at its raw template position")
	}
	// Range pins land on their slots with their range names.
	for _, want := range []string{`translate(20,7.5)`, `translate(20,22.5)`, ">0:1</text>", ">2:3</text>"} {
		if !strings.Contains(svg, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestAssembleJoinPins(t *testing.T) {
	sk := testSkinT(t)

	cell := &elaborate.Cell{Key: "$join$,5,6,", Type: elaborate.TypeJoin}
	cell.Inputs = []*elaborate.Port{
		{Key: "0", Value: bits(5), Parent: cell},
		{Key: "1", Value: bits(6), Parent: cell},
	}
	cell.Outputs = []*elaborate.Port{{Key: "Y", Value: bits(5, 6), Parent: cell}}

	m := &elaborate.Module{Name: "m", Nodes: []*elaborate.Cell{cell}}
	g := &layout.Graph{
		Children: []*layout.Node{{ID: cell.Key, X: 0, Y: 0, Width: 20, Height: 40}},
	}

	svg, err := Assemble(sk, m, g)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// The fixed-role Y pin sits at slot 0, matching the routed wire.
	if !strings.Contains(svg, `translate(20,7.5)`) {
		t.Errorf("Y pin not repositioned to its layout slot:\n%s", svg)
	}
	if strings.Contains(svg, `translate(20,20)`) {
		t.Error("Y pin left at its raw template position")
	}
	for _, want := range []string{`translate(0,7.5)`, `translate(0,22.5)`, ">0</text>", ">1</text>"} {
		if !strings.Contains(svg, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestAssembleNameSubstitution(t *testing.T) {
	sk := testSkinT(t)

	cell := &elaborate.Cell{Key: "u1", Type: "gate",
		Attrs: map[string]any{"value": "ALU"}}
	m := &elaborate.Module{Name: "m", Nodes: []*elaborate.Cell{cell}}
	g := &layout.Graph{Children: []*layout.Node{{ID: "u1", Width: 40, Height: 40}}}

	svg, err := Assemble(sk, m, g)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.Contains(svg, ">ALU</text>") {
		t.Errorf("name attribute not substituted:\n%s", svg)
	}
}

func TestAssembleEmptyModule(t *testing.T) {
	sk := testSkinT(t)
	m := &elaborate.Module{Name: "empty"}
	g := &layout.Graph{Width: 20, Height: 20}

	svg, err := Assemble(sk, m, g)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if strings.Contains(svg, "<line") || strings.Contains(svg, "translate(") {
		t.Errorf("empty module should have no cells or lines:\n%s", svg)
	}
}
