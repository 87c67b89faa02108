// Package elaborate turns a hierarchical, connection-indexed netlist module
// into the flat node/wire graph consumed by layout: terminal cells for
// external ports, synthesized constant drivers, bus split/join cells, and
// wire records grouping every port that shares a signal vector.
package elaborate

import (
	"maps"
	"slices"

	"github.com/matzehuels/netdraw/pkg/netlist"
	"github.com/matzehuels/netdraw/pkg/skin"
)

// Reserved cell types for synthesized nodes.
const (
	TypeInputExt  = "$_inputExt_"
	TypeOutputExt = "$_outputExt_"
	TypeConstant  = "$_constant_"
	TypeSplit     = "$_split_"
	TypeJoin      = "$_join_"
)

// Port is a flat port record. Parent is set when the port is attached to its
// cell; Wire is set during net building.
type Port struct {
	Key    string
	Value  netlist.Vector
	Parent *Cell
	Wire   *Wire
}

// Cell is a flat node: an original netlist cell, an external-port terminal,
// or a synthesized constant/split/join driver.
type Cell struct {
	Key     string
	Type    string
	Inputs  []*Port
	Outputs []*Port
	Attrs   map[string]any
}

// Port returns the named port from either partition.
func (c *Cell) Port(key string) *Port {
	for _, p := range c.Inputs {
		if p.Key == key {
			return p
		}
	}
	for _, p := range c.Outputs {
		if p.Key == key {
			return p
		}
	}
	return nil
}

// Wire groups every port on one bit-vector net, partitioned by role.
type Wire struct {
	Drivers  []*Port
	Riders   []*Port
	Laterals []*Port
}

// Ports returns all ports on the wire.
func (w *Wire) Ports() []*Port {
	out := make([]*Port, 0, len(w.Drivers)+len(w.Riders)+len(w.Laterals))
	out = append(out, w.Drivers...)
	out = append(out, w.Riders...)
	return append(out, w.Laterals...)
}

// Module is the flat node/wire graph.
type Module struct {
	Name  string
	Nodes []*Cell
	Wires []*Wire
}

// Node returns the cell with the given key, or nil.
func (m *Module) Node(key string) *Cell {
	for _, c := range m.Nodes {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// Flatten converts one netlist module into flat node records. External input
// ports become $_inputExt_ terminals with a single output Y, external output
// ports become $_outputExt_ terminals with a single input A, and every cell
// partitions its connections into inputs and outputs. Directions come from
// port_directions when present, otherwise from the skin template's pin
// positions (left/top pins are inputs, right/bottom pins are outputs).
//
// Map iteration order is not defined in the input, so ports and cells are
// processed in sorted key order to keep the result deterministic.
func Flatten(name string, mod netlist.Module, sk *skin.Skin) *Module {
	m := &Module{Name: name}

	for _, portName := range slices.Sorted(maps.Keys(mod.Ports)) {
		p := mod.Ports[portName]
		switch p.Direction {
		case netlist.DirectionInput:
			m.Nodes = append(m.Nodes, newCell(portName, TypeInputExt, nil,
				nil, []*Port{{Key: "Y", Value: slices.Clone(p.Bits)}}))
		default:
			m.Nodes = append(m.Nodes, newCell(portName, TypeOutputExt, nil,
				[]*Port{{Key: "A", Value: slices.Clone(p.Bits)}}, nil))
		}
	}

	for _, cellName := range slices.Sorted(maps.Keys(mod.Cells)) {
		m.Nodes = append(m.Nodes, flattenCell(cellName, mod.Cells[cellName], sk))
	}

	return m
}

func flattenCell(name string, c netlist.Cell, sk *skin.Skin) *Cell {
	var inputs, outputs []*Port
	for _, portKey := range slices.Sorted(maps.Keys(c.Connections)) {
		p := &Port{Key: portKey, Value: slices.Clone(c.Connections[portKey])}
		if directionOf(c, portKey, sk) == netlist.DirectionOutput {
			outputs = append(outputs, p)
		} else {
			inputs = append(inputs, p)
		}
	}
	return newCell(name, c.Type, c.Attributes, inputs, outputs)
}

// directionOf resolves a port's direction from the cell's explicit
// port_directions, falling back to the template pin position. Pins the
// template does not know default to input.
func directionOf(c netlist.Cell, portKey string, sk *skin.Skin) string {
	if d, ok := c.PortDirections[portKey]; ok {
		return d
	}
	if tmpl := sk.FindTemplate(c.Type); tmpl != nil {
		if pin, ok := skin.FindPort(tmpl, portKey); ok && pin.IsOutput() {
			return netlist.DirectionOutput
		}
	}
	return netlist.DirectionInput
}

func newCell(key, typ string, attrs map[string]any, inputs, outputs []*Port) *Cell {
	c := &Cell{Key: key, Type: typ, Attrs: attrs, Inputs: inputs, Outputs: outputs}
	for _, p := range c.Inputs {
		p.Parent = c
	}
	for _, p := range c.Outputs {
		p.Parent = c
	}
	return c
}
