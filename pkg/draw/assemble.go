// Package draw assembles the final drawing document: the skin's preamble and
// stylesheet, one instantiated template per cell, and the routed wiring as
// line segments with junction dots.
package draw

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/matzehuels/netdraw/pkg/elaborate"
	"github.com/matzehuels/netdraw/pkg/layout"
	"github.com/matzehuels/netdraw/pkg/skin"
)

const junctionRadius = "2"

// Assemble renders the laid-out module as a drawing document of the skin's
// family and returns its serialized text.
func Assemble(sk *skin.Skin, m *elaborate.Module, g *layout.Graph) (string, error) {
	doc := etree.NewDocument()
	root := doc.CreateElement(sk.RootTag())
	for _, a := range sk.RootAttrs() {
		root.CreateAttr(attrName(a), a.Value)
	}
	root.CreateAttr("width", fmtF(g.Width))
	root.CreateAttr("height", fmtF(g.Height))

	for _, style := range sk.StyleElements() {
		root.AddChild(style.Copy())
	}

	for _, cell := range m.Nodes {
		child := g.Child(cell.Key)
		if child == nil {
			continue
		}
		if el := instantiate(sk, cell, child); el != nil {
			root.AddChild(el)
		}
	}

	emitWiring(root, g)

	return doc.WriteToString()
}

// instantiate clones the cell's template, translates it to the computed
// position and specializes its text and ports.
func instantiate(sk *skin.Skin, cell *elaborate.Cell, child *layout.Node) *etree.Element {
	tmpl := sk.FindTemplate(cell.Type)
	if tmpl == nil {
		return nil
	}
	el := tmpl.Copy()
	el.RemoveAttr("transform")
	el.CreateAttr("transform", "translate("+fmtF(child.X)+","+fmtF(child.Y)+")")

	ttype := skin.TemplateType(tmpl)
	substituteText(el, cell, ttype)

	// Stretchy templates re-lay both pin columns on the same slot grid the
	// layout stage anchored them to. The fixed-role side of a split/join
	// (A / Y) is a one-element replication, so the drawn pin lands exactly
	// on the routed wire terminus.
	switch ttype {
	case skin.TypeGeneric, skin.TypeSplit, skin.TypeJoin:
		gap := skin.PortGap(tmpl)
		replicatePorts(el, cell.Inputs, true, child.Height, gap)
		replicatePorts(el, cell.Outputs, false, child.Height, gap)
	}

	scrub(el)
	return el
}

// substituteText rewrites the template's substitutable text elements: "ref"
// becomes the cell key (the hex form for multi-bit constants, the cell type
// for generics) and "name" becomes the cell's value attribute.
func substituteText(el *etree.Element, cell *elaborate.Cell, ttype string) {
	for _, t := range elementsWithAttr(el, "s:attribute") {
		switch t.SelectAttrValue("s:attribute", "") {
		case "ref":
			t.SetText(refText(cell, ttype))
		case "name":
			if v, ok := cell.Attrs["value"]; ok {
				t.SetText(toString(v))
			}
		}
	}
}

// refText is the body label: generics show the cell type, multi-bit
// constants show their value in hex, everything else shows the cell key.
func refText(cell *elaborate.Cell, ttype string) string {
	if cell.Type == elaborate.TypeConstant && len(cell.Key) > 1 {
		if v, err := strconv.ParseUint(cell.Key, 2, 64); err == nil {
			return "0x" + strconv.FormatUint(v, 16)
		}
	}
	if ttype == skin.TypeGeneric {
		return cell.Type
	}
	return cell.Key
}

// replicatePorts keeps the first input-side (or output-side) pin template as
// a prototype, clones it once per actual port at its slot on the gap grid
// (matching layout.PortSlotY), and stretches the body rectangle to the
// computed height. The gap comes from the pristine template, not el, since
// el's pins are rewritten as the two sides are processed.
func replicatePorts(el *etree.Element, ports []*elaborate.Port, inputSide bool, height, gap float64) {
	protos := pinElements(el, inputSide)
	if len(protos) == 0 {
		return
	}
	proto := protos[0]
	parent := proto.Parent()

	for i, p := range ports {
		replica := proto.Copy()
		x := attrFloat(proto, "s:x")
		y := layout.PortSlotY(i, gap)
		replica.RemoveAttr("transform")
		replica.CreateAttr("transform", "translate("+fmtF(x)+","+fmtF(y)+")")
		if label := firstText(replica); label != nil {
			label.SetText(p.Key)
		}
		parent.AddChild(replica)
	}
	for _, old := range protos {
		parent.RemoveChild(old)
	}

	if rect := firstRect(el); rect != nil {
		rect.RemoveAttr("height")
		rect.CreateAttr("height", fmtF(height))
	}
}

func pinElements(el *etree.Element, inputSide bool) []*etree.Element {
	var out []*etree.Element
	for _, g := range elementsWithAttr(el, "s:pid") {
		pos := g.SelectAttrValue("s:position", "")
		isInput := pos == "left" || pos == "top"
		if isInput == inputSide {
			out = append(out, g)
		}
	}
	return out
}

// emitWiring appends line segments for every routed edge section and a dot
// for every junction point.
func emitWiring(root *etree.Element, g *layout.Graph) {
	for _, e := range g.Edges {
		for _, sec := range e.Sections {
			pts := sec.Points()
			for i := 1; i < len(pts); i++ {
				line := root.CreateElement("line")
				line.CreateAttr("x1", fmtF(pts[i-1].X))
				line.CreateAttr("y1", fmtF(pts[i-1].Y))
				line.CreateAttr("x2", fmtF(pts[i].X))
				line.CreateAttr("y2", fmtF(pts[i].Y))
			}
		}
		for _, j := range e.JunctionPoints {
			dot := root.CreateElement("circle")
			dot.CreateAttr("cx", fmtF(j.X))
			dot.CreateAttr("cy", fmtF(j.Y))
			dot.CreateAttr("r", junctionRadius)
		}
	}
}

// scrub removes skin bookkeeping (s: attributes and alias markers) from an
// instantiated template so the output stays plain SVG.
func scrub(el *etree.Element) {
	var aliases []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == "alias" {
			aliases = append(aliases, c)
			continue
		}
		scrub(c)
	}
	for _, a := range aliases {
		el.RemoveChild(a)
	}
	for _, a := range append([]etree.Attr(nil), el.Attr...) {
		if a.Space == "s" {
			el.RemoveAttr(attrName(a))
		}
	}
}

func elementsWithAttr(el *etree.Element, key string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.SelectAttr(key) != nil {
			out = append(out, c)
		}
		out = append(out, elementsWithAttr(c, key)...)
	}
	return out
}

func firstText(el *etree.Element) *etree.Element {
	if el.Tag == "text" {
		return el
	}
	for _, c := range el.ChildElements() {
		if t := firstText(c); t != nil {
			return t
		}
	}
	return nil
}

func firstRect(el *etree.Element) *etree.Element {
	if el.Tag == "rect" {
		return el
	}
	for _, c := range el.ChildElements() {
		if r := firstRect(c); r != nil {
			return r
		}
	}
	return nil
}

func attrFloat(el *etree.Element, key string) float64 {
	v, _ := strconv.ParseFloat(el.SelectAttrValue(key, "0"), 64)
	return v
}

func attrName(a etree.Attr) string {
	if a.Space != "" {
		return a.Space + ":" + a.Key
	}
	return a.Key
}

func fmtF(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
