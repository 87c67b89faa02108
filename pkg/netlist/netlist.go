// Package netlist defines the structured netlist input format and the
// signal-vector primitives shared by the elaboration pipeline.
//
// The input shape follows the common synthesis-tool JSON export: a document
// holds named modules, each module holds named ports and cells, and every
// connection is expressed as an ordered vector of bit-level signals. A signal
// is either an integer net identifier or the constant literal "0"/"1".
package netlist

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Port directions as they appear in the input document.
const (
	DirectionInput  = "input"
	DirectionOutput = "output"
)

// Signal is one bit of a port value: a numeric net ID, or a constant literal
// bit. The zero value is net 0.
type Signal struct {
	ID  int
	Lit byte // '0' or '1' when the bit is a constant literal, 0 otherwise
}

// Bit returns a signal referencing the numeric net id.
func Bit(id int) Signal { return Signal{ID: id} }

// Const returns a constant-literal signal for lit ('0' or '1').
func Const(lit byte) Signal { return Signal{Lit: lit} }

// IsConst reports whether the signal is a constant literal bit.
func (s Signal) IsConst() bool { return s.Lit != 0 }

// String renders the signal the way it appears in canonical vector keys:
// the decimal net ID, or the literal character.
func (s Signal) String() string {
	if s.IsConst() {
		return string(s.Lit)
	}
	return strconv.Itoa(s.ID)
}

// UnmarshalJSON accepts either a JSON number (net ID) or a one-character
// string literal.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*s = Signal{ID: int(v)}
		return nil
	case string:
		if v == "0" || v == "1" {
			*s = Signal{Lit: v[0]}
			return nil
		}
		// Some exporters emit numeric strings.
		if id, err := strconv.Atoi(v); err == nil {
			*s = Signal{ID: id}
			return nil
		}
		return fmt.Errorf("invalid signal literal %q", v)
	default:
		return fmt.Errorf("invalid signal %s", string(data))
	}
}

// MarshalJSON renders net IDs as numbers and literals as strings.
func (s Signal) MarshalJSON() ([]byte, error) {
	if s.IsConst() {
		return json.Marshal(string(s.Lit))
	}
	return json.Marshal(s.ID)
}

// Vector is an ordered sequence of signals, bit 0 first.
type Vector []Signal

// Key returns the canonical comma-bounded form ","+csv+"," used as a grouping
// key and as the substring substrate for split/join search. Every element is
// bracketed by commas, so a comma-bounded substring match is exactly a
// bit-subsequence match.
func (v Vector) Key() string {
	var b strings.Builder
	b.WriteByte(',')
	for _, s := range v {
		b.WriteString(s.String())
		b.WriteByte(',')
	}
	return b.String()
}

// String renders the plain comma-separated form.
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, s := range v {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// Equal reports element-wise equality.
func (v Vector) Equal(o Vector) bool { return slices.Equal(v, o) }

// Port is a module-level external port.
type Port struct {
	Direction string `json:"direction"`
	Bits      Vector `json:"bits"`
}

// Cell is one instantiated cell inside a module. PortDirections may be
// omitted, in which case directions are inferred from the skin template.
type Cell struct {
	Type           string            `json:"type"`
	PortDirections map[string]string `json:"port_directions,omitempty"`
	Connections    map[string]Vector `json:"connections"`
	Attributes     map[string]any    `json:"attributes,omitempty"`
}

// Module is one design unit: external ports plus cell instances.
type Module struct {
	Ports      map[string]Port `json:"ports"`
	Cells      map[string]Cell `json:"cells"`
	Attributes map[string]any  `json:"attributes,omitempty"`
}

// Netlist is the top-level input document.
type Netlist struct {
	Modules map[string]Module `json:"modules"`
}

// Decode reads a JSON netlist document.
func Decode(r io.Reader) (*Netlist, error) {
	var n Netlist
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("decode netlist: %w", err)
	}
	if len(n.Modules) == 0 {
		return nil, fmt.Errorf("netlist contains no modules")
	}
	return &n, nil
}

// TopModule selects the module to render: the one whose attributes carry
// top == 1, falling back to the first module by name. Returns the module name
// along with the module itself.
func (n *Netlist) TopModule() (string, Module, error) {
	if len(n.Modules) == 0 {
		return "", Module{}, fmt.Errorf("netlist contains no modules")
	}
	names := slices.Sorted(maps.Keys(n.Modules))
	for _, name := range names {
		if isTop(n.Modules[name].Attributes) {
			return name, n.Modules[name], nil
		}
	}
	return names[0], n.Modules[names[0]], nil
}

func isTop(attrs map[string]any) bool {
	v, ok := attrs["top"]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case float64:
		return t == 1
	case int:
		return t == 1
	case string:
		return t == "1" || t == "00000000000000000000000000000001"
	case bool:
		return t
	}
	return false
}
