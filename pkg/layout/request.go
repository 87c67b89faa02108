package layout

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/matzehuels/netdraw/pkg/elaborate"
	"github.com/matzehuels/netdraw/pkg/skin"
)

// Layout option keys understood by layered engines.
const (
	optPortConstraints = "org.eclipse.elk.portConstraints"
	optPriority        = "org.eclipse.elk.layered.priority.direction"
)

// forwardPriority keeps datapaths flowing left to right. Edges sourced at a
// $dff cell are exempt so feedback around flip-flops can route freely.
const forwardPriority = "10"

const (
	dummyPrefix = "$d_"
	dummyPort   = ".p"
	flipFlop    = "$dff"
)

// charWidth approximates label extents; the drawing stage never measures
// text, it inherits the skin's font.
const (
	charWidth   = 6.0
	labelHeight = 11.0
)

// BuildRequest produces the flat layout graph for a module: one fixed-port
// child per cell and one edge per driver/rider pair, with dummy nodes
// standing in for multi-driver and multi-rider fan-outs the engine cannot
// express as hyperedges.
func BuildRequest(m *elaborate.Module, sk *skin.Skin) (*Graph, error) {
	b := &requestBuilder{
		sk: sk,
		g: &Graph{
			ID:      m.Name,
			Options: sk.EngineOptions(),
		},
	}
	for _, cell := range m.Nodes {
		child, err := b.child(cell)
		if err != nil {
			return nil, err
		}
		b.g.Children = append(b.g.Children, child)
	}
	for _, wire := range m.Wires {
		b.wireEdges(wire)
	}
	return b.g, nil
}

type requestBuilder struct {
	sk       *skin.Skin
	g        *Graph
	numEdges int
	numDummy int
}

// child materializes one cell. Generic, split and join templates stretch
// vertically with their port count; all other templates are taken literally.
func (b *requestBuilder) child(cell *elaborate.Cell) (*Node, error) {
	tmpl := b.sk.FindTemplate(cell.Type)
	if tmpl == nil {
		return nil, fmt.Errorf("no template for cell type %q", cell.Type)
	}
	ttype := skin.TemplateType(tmpl)

	switch ttype {
	case skin.TypeGeneric, skin.TypeSplit, skin.TypeJoin:
		return b.stretchyChild(cell, tmpl, ttype), nil
	default:
		return b.literalChild(cell, tmpl, ttype), nil
	}
}

func (b *requestBuilder) literalChild(cell *elaborate.Cell, tmpl *etree.Element, ttype string) *Node {
	w, h := skin.TemplateSize(tmpl)
	n := &Node{
		ID:      cell.Key,
		Width:   w,
		Height:  h,
		Options: map[string]string{optPortConstraints: "FIXED_POS"},
	}
	for _, p := range append(append([]*elaborate.Port{}, cell.Inputs...), cell.Outputs...) {
		pin, ok := skin.FindPort(tmpl, p.Key)
		if !ok {
			continue
		}
		n.Ports = append(n.Ports, &Port{
			ID: portID(cell.Key, p.Key),
			X:  pin.X,
			Y:  pin.Y,
		})
	}
	if ttype == skin.TypeInputExt || ttype == skin.TypeOutputExt {
		n.Labels = append(n.Labels, &Label{
			Text:   cell.Key,
			X:      w / 2,
			Y:      h / 2,
			Width:  float64(len(cell.Key)) * charWidth,
			Height: labelHeight,
		})
	}
	return n
}

// stretchyChild lays input pins down the left edge and output pins down the
// right edge, growing the body by the template's pin pitch for every port
// beyond what the template accommodates.
func (b *requestBuilder) stretchyChild(cell *elaborate.Cell, tmpl *etree.Element, ttype string) *Node {
	w, _ := skin.TemplateSize(tmpl)
	gap := skin.PortGap(tmpl)
	h := GenericHeight(tmpl, len(cell.Inputs), len(cell.Outputs))

	n := &Node{
		ID:      cell.Key,
		Width:   w,
		Height:  h,
		Options: map[string]string{optPortConstraints: "FIXED_POS"},
	}
	if ttype == skin.TypeGeneric {
		n.Labels = append(n.Labels, &Label{
			Text:   cell.Type,
			X:      w / 2,
			Y:      h / 2,
			Width:  float64(len(cell.Type)) * charWidth,
			Height: labelHeight,
		})
	}
	for i, p := range cell.Inputs {
		n.Ports = append(n.Ports, b.stretchyPort(cell, p, 0, i, gap))
	}
	for i, p := range cell.Outputs {
		n.Ports = append(n.Ports, b.stretchyPort(cell, p, w, i, gap))
	}
	return n
}

func (b *requestBuilder) stretchyPort(cell *elaborate.Cell, p *elaborate.Port, x float64, slot int, gap float64) *Port {
	port := &Port{
		ID: portID(cell.Key, p.Key),
		X:  x,
		Y:  PortSlotY(slot, gap),
	}
	port.Labels = append(port.Labels, &Label{
		Text:   p.Key,
		Width:  float64(len(p.Key)) * charWidth,
		Height: labelHeight,
	})
	return port
}

// PortSlotY is the vertical anchor of the slot-th stacked pin.
func PortSlotY(slot int, gap float64) float64 {
	return gap/2 + float64(slot)*gap
}

// GenericHeight is the body height of a stretchy template instance: the
// nominal template height, extended by one pin pitch for every port the
// busier side carries beyond the template's own pins on that side.
func GenericHeight(tmpl *etree.Element, inputs, outputs int) float64 {
	_, h := skin.TemplateSize(tmpl)
	gap := skin.PortGap(tmpl)

	var tmplIn, tmplOut int
	for _, pin := range skin.Ports(tmpl) {
		if pin.IsOutput() {
			tmplOut++
		} else {
			tmplIn++
		}
	}
	n, t := inputs, tmplIn
	if outputs > inputs {
		n, t = outputs, tmplOut
	}
	if t < 1 {
		t = 1
	}
	if n > t {
		h += gap * float64(n-t)
	}
	return h
}

// wireEdges emits the edges for one wire according to its shape.
func (b *requestBuilder) wireEdges(w *elaborate.Wire) {
	nd, nr, nl := len(w.Drivers), len(w.Riders), len(w.Laterals)

	switch {
	case nd > 0 && nr > 0 && nl == 0:
		for _, d := range w.Drivers {
			for _, r := range w.Riders {
				b.addEdge(d, r, true)
			}
		}
	case nl > 0 && (nd > 0 || nr > 0):
		for _, d := range w.Drivers {
			for _, l := range w.Laterals {
				b.addEdge(d, l, false)
			}
		}
		for _, l := range w.Laterals {
			for _, r := range w.Riders {
				b.addEdge(l, r, false)
			}
		}
	case nr == 0 && nd >= 2:
		dummy := b.addDummy()
		for _, d := range w.Drivers {
			b.addDummyEdge(d, dummy, true)
		}
	case nd == 0 && nr >= 2:
		dummy := b.addDummy()
		for _, r := range w.Riders {
			b.addDummyEdge(r, dummy, false)
		}
	case nl >= 2 && nd == 0 && nr == 0:
		src := w.Laterals[0]
		for _, l := range w.Laterals[1:] {
			b.addEdge(src, l, false)
		}
	}
}

func (b *requestBuilder) addEdge(src, dst *elaborate.Port, directed bool) {
	e := &Edge{
		ID:         "e" + strconv.Itoa(b.numEdges),
		Source:     src.Parent.Key,
		SourcePort: portID(src.Parent.Key, src.Key),
		Target:     dst.Parent.Key,
		TargetPort: portID(dst.Parent.Key, dst.Key),
	}
	b.numEdges++
	if directed && src.Parent.Type != flipFlop {
		e.Options = map[string]string{optPriority: forwardPriority}
	}
	b.g.Edges = append(b.g.Edges, e)
}

// addDummy allocates a zero-size node with a single port, used to give
// driver-only and rider-only fan-outs a meeting point.
func (b *requestBuilder) addDummy() *Node {
	id := dummyPrefix + strconv.Itoa(b.numDummy)
	b.numDummy++
	n := &Node{
		ID:      id,
		Ports:   []*Port{{ID: id + dummyPort}},
		Options: map[string]string{optPortConstraints: "FIXED_SIDE"},
	}
	b.g.Children = append(b.g.Children, n)
	return n
}

// addDummyEdge connects a real port to a dummy. toDummy selects whether the
// real port is the source (driver fan-in) or the target (rider fan-out).
func (b *requestBuilder) addDummyEdge(p *elaborate.Port, dummy *Node, toDummy bool) {
	e := &Edge{ID: "e" + strconv.Itoa(b.numEdges)}
	b.numEdges++
	if toDummy {
		e.Source = p.Parent.Key
		e.SourcePort = portID(p.Parent.Key, p.Key)
		e.Target = dummy.ID
		e.TargetPort = dummy.Ports[0].ID
	} else {
		e.Source = dummy.ID
		e.SourcePort = dummy.Ports[0].ID
		e.Target = p.Parent.Key
		e.TargetPort = portID(p.Parent.Key, p.Key)
	}
	b.g.Edges = append(b.g.Edges, e)
}

func portID(cell, port string) string { return cell + "." + port }
