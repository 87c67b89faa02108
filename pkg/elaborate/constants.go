package elaborate

import (
	"slices"

	"github.com/matzehuels/netdraw/pkg/netlist"
)

// SynthesizeConstants lifts literal bits out of input port vectors into
// synthesized $_constant_ driver cells. Every literal bit is first assigned a
// fresh signal number above the highest signal driven by any output port;
// consecutive literals form runs, and runs with the same reversed-literal
// name share a single constant cell. After this pass no input port vector
// contains a literal.
func SynthesizeConstants(m *Module) {
	next := maxSignal(m)
	byName := make(map[string]*Cell)

	// Constant cells are appended as they are discovered; they carry no
	// input ports, so iterating over a snapshot of the node list is safe.
	for _, cell := range slices.Clone(m.Nodes) {
		for _, port := range cell.Inputs {
			synthPort(m, port, &next, byName)
		}
	}
}

func synthPort(m *Module, port *Port, next *int, byName map[string]*Cell) {
	var run netlist.Vector
	var lits []byte
	start := -1

	flush := func(end int) {
		if len(run) == 0 {
			return
		}
		name := reverseLits(lits)
		if existing, ok := byName[name]; ok {
			copy(port.Value[start:end], existing.Outputs[0].Value)
		} else {
			c := newCell(name, TypeConstant, nil, nil,
				[]*Port{{Key: "Y", Value: run}})
			byName[name] = c
			m.Nodes = append(m.Nodes, c)
		}
		run = nil
		lits = nil
		start = -1
	}

	for i, sig := range port.Value {
		if !sig.IsConst() {
			flush(i)
			continue
		}
		if start == -1 {
			start = i
		}
		lits = append(lits, sig.Lit)
		*next++
		port.Value[i] = netlist.Bit(*next)
		run = append(run, netlist.Bit(*next))
	}
	flush(len(port.Value))
}

// maxSignal scans all output ports for the highest integer signal.
func maxSignal(m *Module) int {
	top := 0
	for _, cell := range m.Nodes {
		for _, port := range cell.Outputs {
			for _, sig := range port.Value {
				if !sig.IsConst() && sig.ID > top {
					top = sig.ID
				}
			}
		}
	}
	return top
}

// reverseLits builds the constant cell name: literals reversed, so the
// first-encountered bit lands at the end of the name. Identical patterns
// therefore coalesce onto deterministic names.
func reverseLits(lits []byte) string {
	out := make([]byte, len(lits))
	for i, b := range lits {
		out[len(lits)-1-i] = b
	}
	return string(out)
}
