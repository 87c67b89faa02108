// Package skin loads and queries the template library that drives drawing.
//
// A skin is an SVG document whose top-level groups are parametric cell
// templates. Each template advertises the cell types it renders through
// s:alias children, classifies its pins through s:position / s:dir
// attributes, and exposes document-wide options through the s:properties
// element. The tree is navigated generically with etree; templates are
// deep-cloned before any per-cell mutation so the skin itself stays
// read-only.
package skin

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// Template type names recognized on the s:type attribute.
const (
	TypeGeneric   = "generic"
	TypeSplit     = "split"
	TypeJoin      = "join"
	TypeInputExt  = "inputExt"
	TypeOutputExt = "outputExt"
)

// defaultPortGap is the vertical pin pitch used when a template does not
// imply one through its own pin anchors.
const defaultPortGap = 15

// PortTemplate describes one pin of a cell template.
type PortTemplate struct {
	PID      string
	X, Y     float64
	Position string // "left", "right", "top", "bottom" or ""
	Lateral  bool   // s:dir="lateral"
}

// IsInput reports whether a netlist port bound to this pin should be treated
// as an input when the cell carries no explicit port directions.
func (p PortTemplate) IsInput() bool {
	return p.Position == "left" || p.Position == "top"
}

// IsOutput is the counterpart of IsInput for right/bottom pins.
func (p PortTemplate) IsOutput() bool {
	return p.Position == "right" || p.Position == "bottom"
}

// Skin is a parsed template library. All lookups are read-only; callers
// clone template elements before mutating them.
type Skin struct {
	doc        *etree.Document
	byAlias    map[string]*etree.Element
	generics   []*etree.Element
	props      map[string]any
	engineOpts map[string]string
}

// Parse reads a skin document from its XML text.
func Parse(text string) (*Skin, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("parse skin: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse skin: no root element")
	}

	s := &Skin{
		doc:        doc,
		byAlias:    make(map[string]*etree.Element),
		props:      make(map[string]any),
		engineOpts: make(map[string]string),
	}

	for _, el := range root.ChildElements() {
		switch {
		case el.Tag == "properties":
			s.readProperties(el)
		case el.SelectAttr("s:type") != nil:
			s.addTemplate(el)
		}
	}

	if len(s.byAlias) == 0 && len(s.generics) == 0 {
		return nil, fmt.Errorf("parse skin: no templates found")
	}
	return s, nil
}

func (s *Skin) readProperties(el *etree.Element) {
	for _, a := range el.Attr {
		if a.Space == "xmlns" {
			continue
		}
		s.props[a.Key] = coerce(a.Value)
	}
	for _, child := range el.ChildElements() {
		if child.Tag == "layoutEngine" {
			for _, a := range child.Attr {
				s.engineOpts[a.Key] = a.Value
			}
		}
	}
}

func (s *Skin) addTemplate(el *etree.Element) {
	if el.SelectAttrValue("s:type", "") == TypeGeneric {
		s.generics = append(s.generics, el)
	}
	for _, alias := range descendants(el, "alias") {
		if val := alias.SelectAttrValue("val", ""); val != "" {
			s.byAlias[val] = el
		}
	}
}

// coerce applies the option coercions: "true"/"false" become booleans and
// numeric strings become float64; anything else stays a string.
func coerce(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

// Constants reports whether constant synthesis is enabled. Only an explicit
// false disables it.
func (s *Skin) Constants() bool { return s.boolOption("constants") }

// SplitsAndJoins reports whether split/join synthesis is enabled. Only an
// explicit false disables it.
func (s *Skin) SplitsAndJoins() bool { return s.boolOption("splitsAndJoins") }

// GenericsLaterals reports whether every pin of a generic template is treated
// as lateral.
func (s *Skin) GenericsLaterals() bool {
	v, ok := s.props["genericsLaterals"].(bool)
	return ok && v
}

func (s *Skin) boolOption(name string) bool {
	v, ok := s.props[name].(bool)
	return !ok || v
}

// Number returns a numeric skin option, or def when absent.
func (s *Skin) Number(name string, def float64) float64 {
	if v, ok := s.props[name].(float64); ok {
		return v
	}
	return def
}

// EngineOptions returns the attribute bag of the s:layoutEngine element.
// The returned map is shared; callers must not mutate it.
func (s *Skin) EngineOptions() map[string]string { return s.engineOpts }

// FindTemplate returns the template for a cell type. Unknown types fall back
// to the first generic template; the fallback is never an error.
func (s *Skin) FindTemplate(cellType string) *etree.Element {
	if el, ok := s.byAlias[cellType]; ok {
		return el
	}
	if len(s.generics) > 0 {
		return s.generics[0]
	}
	// Degenerate skin with aliases but no generic: hand back any template.
	for _, el := range s.byAlias {
		return el
	}
	return nil
}

// TemplateType returns the template's s:type attribute.
func TemplateType(el *etree.Element) string {
	return el.SelectAttrValue("s:type", "")
}

// TemplateSize returns the nominal body width and height of a template.
func TemplateSize(el *etree.Element) (w, h float64) {
	w, _ = strconv.ParseFloat(el.SelectAttrValue("s:width", "0"), 64)
	h, _ = strconv.ParseFloat(el.SelectAttrValue("s:height", "0"), 64)
	return w, h
}

// Ports lists the pin templates of a cell template, in document order.
func Ports(el *etree.Element) []PortTemplate {
	var out []PortTemplate
	for _, g := range withAttr(el, "s:pid") {
		x, _ := strconv.ParseFloat(g.SelectAttrValue("s:x", "0"), 64)
		y, _ := strconv.ParseFloat(g.SelectAttrValue("s:y", "0"), 64)
		out = append(out, PortTemplate{
			PID:      g.SelectAttrValue("s:pid", ""),
			X:        x,
			Y:        y,
			Position: g.SelectAttrValue("s:position", ""),
			Lateral:  g.SelectAttrValue("s:dir", "") == "lateral",
		})
	}
	return out
}

// FindPort returns the pin template with the given pid.
func FindPort(el *etree.Element, pid string) (PortTemplate, bool) {
	for _, p := range Ports(el) {
		if p.PID == pid {
			return p, true
		}
	}
	return PortTemplate{}, false
}

// PortGap returns the vertical pitch between stacked pins of a template: the
// distance between its first two same-side pins, or the skin-wide default.
func PortGap(el *etree.Element) float64 {
	ports := Ports(el)
	bySide := map[string][]float64{}
	for _, p := range ports {
		bySide[p.Position] = append(bySide[p.Position], p.Y)
	}
	for _, ys := range bySide {
		if len(ys) >= 2 {
			if gap := ys[1] - ys[0]; gap > 0 {
				return gap
			}
		}
	}
	return defaultPortGap
}

// LateralPins returns the set of pids classified lateral for a cell of the
// given type: explicitly lateral pins, plus every pin when the template is
// generic and genericsLaterals is on.
func (s *Skin) LateralPins(cellType string) map[string]bool {
	tmpl := s.FindTemplate(cellType)
	if tmpl == nil {
		return nil
	}
	out := make(map[string]bool)
	all := s.GenericsLaterals() && TemplateType(tmpl) == TypeGeneric
	for _, p := range Ports(tmpl) {
		if all || p.Lateral {
			out[p.PID] = true
		}
	}
	if all {
		// Generic pins are matched positionally, not by pid; flag the
		// wildcard so callers can treat unmatched pins as lateral too.
		out["*"] = true
	}
	return out
}

// StyleElements returns the skin's style elements, to be copied into the
// output document ahead of the placed cells.
func (s *Skin) StyleElements() []*etree.Element {
	root := s.doc.Root()
	if root == nil {
		return nil
	}
	return root.SelectElements("style")
}

// RootAttrs returns the attributes of the skin's root element, minus sizing,
// for seeding the output document root.
func (s *Skin) RootAttrs() []etree.Attr {
	root := s.doc.Root()
	if root == nil {
		return nil
	}
	var out []etree.Attr
	for _, a := range root.Attr {
		if a.Key == "width" || a.Key == "height" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// RootTag returns the tag of the skin's root element ("svg").
func (s *Skin) RootTag() string {
	if root := s.doc.Root(); root != nil {
		return root.Tag
	}
	return "svg"
}

// descendants collects every descendant element with the given local tag.
func descendants(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
		out = append(out, descendants(child, tag)...)
	}
	return out
}

// withAttr collects every descendant element carrying the given attribute.
func withAttr(el *etree.Element, key string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.SelectAttr(key) != nil {
			out = append(out, child)
		}
		out = append(out, withAttr(child, key)...)
	}
	return out
}
