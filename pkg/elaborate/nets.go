package elaborate

import (
	"slices"

	"github.com/matzehuels/netdraw/pkg/skin"
)

// BuildNets groups every port whose signal vector matches into a wire record
// and partitions each wire's ports into drivers, riders, and laterals. An
// output port is a driver and an input port a rider unless the template
// classifies its pin as lateral; generic-template pins are all lateral when
// the skin's genericsLaterals flag is set. Every port is given a back
// reference to its wire.
func BuildNets(m *Module, sk *skin.Skin) {
	byKey := make(map[string]*Wire)
	var order []string

	wireFor := func(key string) *Wire {
		if w, ok := byKey[key]; ok {
			return w
		}
		w := &Wire{}
		byKey[key] = w
		order = append(order, key)
		return w
	}

	for _, cell := range m.Nodes {
		lateral := sk.LateralPins(cell.Type)
		for _, p := range cell.Outputs {
			w := wireFor(p.Value.Key())
			if isLateral(lateral, p.Key) {
				w.Laterals = append(w.Laterals, p)
			} else {
				w.Drivers = append(w.Drivers, p)
			}
			p.Wire = w
		}
		for _, p := range cell.Inputs {
			w := wireFor(p.Value.Key())
			if isLateral(lateral, p.Key) {
				w.Laterals = append(w.Laterals, p)
			} else {
				w.Riders = append(w.Riders, p)
			}
			p.Wire = w
		}
	}

	slices.Sort(order)
	m.Wires = make([]*Wire, len(order))
	for i, key := range order {
		m.Wires[i] = byKey[key]
	}
}

func isLateral(pins map[string]bool, key string) bool {
	return pins[key] || pins["*"]
}
