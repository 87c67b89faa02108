package elaborate

import (
	"strings"
	"testing"

	"github.com/matzehuels/netdraw/pkg/netlist"
	"github.com/matzehuels/netdraw/pkg/skin"
)

const testSkin = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:s="https://github.com/matzehuels/netdraw" width="80" height="40">
  <s:properties constants="true" splitsAndJoins="true"/>
  <style>line{stroke:#000}</style>
  <g s:type="inputExt" s:width="30" s:height="20">
    <s:alias val="$_inputExt_"/>
    <text s:attribute="ref">input</text>
    <rect width="30" height="20"/>
    <g s:pid="Y" s:x="30" s:y="10" s:position="right"/>
  </g>
  <g s:type="outputExt" s:width="30" s:height="20">
    <s:alias val="$_outputExt_"/>
    <text s:attribute="ref">output</text>
    <rect width="30" height="20"/>
    <g s:pid="A" s:x="0" s:y="10" s:position="left"/>
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
  </g>
  <g s:type="join" s:width="20" s:height="40">
    <s:alias val="$_join_"/>
    <rect width="20" height="40"/>
    <g s:pid="in0" s:x="0" s:y="7.5" s:position="left"><text>i</text></g>
    <g s:pid="Y" s:x="20" s:y="20" s:position="right"/>
  </g>
  <g s:type="not" s:width="30" s:height="20">
    <s:alias val="$_not_"/>
    <s:alias val="$not"/>
    <g s:pid="A" s:x="0" s:y="10" s:position="left"/>
    <g s:pid="Y" s:x="30" s:y="10" s:position="right"/>
  </g>
  <g s:type="dff" s:width="30" s:height="30">
    <s:alias val="$dff"/>
    <rect width="30" height="30"/>
    <g s:pid="D" s:x="0" s:y="10" s:position="left"/>
    <g s:pid="CLK" s:x="0" s:y="20" s:position="left"/>
    <g s:pid="Q" s:x="30" s:y="15" s:position="right"/>
  </g>
  <g s:type="generic" s:width="40" s:height="40">
    <s:alias val="generic"/>
    <rect width="40" height="40"/>
    <text s:attribute="ref">gen</text>
    <g s:pid="in0" s:x="0" s:y="7.5" s:position="left"><text>i0</text></g>
    <g s:pid="in1" s:x="0" s:y="22.5" s:position="left"><text>i1</text></g>
    <g s:pid="out0" s:x="40" s:y="15" s:position="right"><text>o0</text></g>
  </g>
</svg>`

func testSkinT(t *testing.T) *skin.Skin {
	return mustParseSkin(t, testSkin)
}

func mustParseSkin(t *testing.T, text string) *skin.Skin {
	t.Helper()
	s, err := skin.Parse(text)
	if err != nil {
		t.Fatalf("parse skin: %v", err)
	}
	return s
}

func decodeModule(t *testing.T, doc string) netlist.Module {
	t.Helper()
	nl, err := netlist.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode netlist: %v", err)
	}
	_, mod, err := nl.TopModule()
	if err != nil {
		t.Fatalf("top module: %v", err)
	}
	return mod
}

const inverterDoc = `{
	"modules": {
		"inv": {
			"ports": {
				"a": {"direction": "input", "bits": [2]},
				"y": {"direction": "output", "bits": [3]}
			},
			"cells": {
				"u1": {
					"type": "$_not_",
					"port_directions": {"A": "input", "Y": "output"},
					"connections": {"A": [2], "Y": [3]}
				}
			}
		}
	}
}`

func TestFlattenInverter(t *testing.T) {
	sk := testSkinT(t)
	m := Flatten("inv", decodeModule(t, inverterDoc), sk)

	if len(m.Nodes) != 3 {
		t.Fatalf("len(nodes) = %d, want 3", len(m.Nodes))
	}

	a := m.Node("a")
	if a == nil || a.Type != TypeInputExt {
		t.Fatalf("input terminal missing: %+v", a)
	}
	if len(a.Outputs) != 1 || a.Outputs[0].Key != "Y" || a.Outputs[0].Value.Key() != ",2," {
		t.Errorf("input terminal port wrong: %+v", a.Outputs)
	}

	y := m.Node("y")
	if y == nil || y.Type != TypeOutputExt {
		t.Fatalf("output terminal missing: %+v", y)
	}
	if len(y.Inputs) != 1 || y.Inputs[0].Key != "A" || y.Inputs[0].Value.Key() != ",3," {
		t.Errorf("output terminal port wrong: %+v", y.Inputs)
	}

	u1 := m.Node("u1")
	if u1 == nil || len(u1.Inputs) != 1 || len(u1.Outputs) != 1 {
		t.Fatalf("cell ports wrong: %+v", u1)
	}
	for _, p := range append(u1.Inputs, u1.Outputs...) {
		if p.Parent != u1 {
			t.Error("port parent back-reference not set")
		}
	}
}

func TestFlattenInfersDirections(t *testing.T) {
	doc := `{
		"modules": {
			"m": {
				"ports": {},
				"cells": {
					"u1": {"type": "$_not_", "connections": {"A": [2], "Y": [3]}}
				}
			}
		}
	}`
	m := Flatten("m", decodeModule(t, doc), testSkinT(t))

	u1 := m.Node("u1")
	if len(u1.Inputs) != 1 || u1.Inputs[0].Key != "A" {
		t.Errorf("A should be inferred as input: %+v", u1.Inputs)
	}
	if len(u1.Outputs) != 1 || u1.Outputs[0].Key != "Y" {
		t.Errorf("Y should be inferred as output: %+v", u1.Outputs)
	}
}

func TestFlattenEmptyModule(t *testing.T) {
	doc := `{"modules": {"empty": {"ports": {}, "cells": {}}}}`
	m := Flatten("empty", decodeModule(t, doc), testSkinT(t))
	if len(m.Nodes) != 0 {
		t.Errorf("empty module should flatten to zero nodes, got %d", len(m.Nodes))
	}
}
