package elaborate

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/netdraw/pkg/netlist"
)

// Key prefixes for synthesized bus cells.
const (
	splitPrefix = "$split$"
	joinPrefix  = "$join$"
)

// SynthesizeSplitJoins computes a minimal cover of bus splits and joins so
// that every consumer bit pattern can be assembled from declared drivers.
// The search works on canonical ","+csv+"," vector strings: a comma-bounded
// substring match is exactly a bit-subsequence match.
//
// For each consumer vector the solver finds the longest comma-bounded prefix
// that is an exact driver, a slice of a driver (a split), or a slice of
// another consumer (solved recursively), then continues on the remainder.
// Joins are keyed on the target vector, splits on the source vector, so
// consumers sharing a target share one join and ranges taken from one source
// share one split.
func SynthesizeSplitJoins(m *Module) {
	s := &sjSolver{
		splits:  make(map[string][]string),
		joins:   make(map[string][]string),
		vectors: make(map[string]netlist.Vector),
	}

	for _, cell := range m.Nodes {
		for _, p := range cell.Inputs {
			key := p.Value.Key()
			s.consumers = append(s.consumers, key)
			s.vectors[key] = p.Value
		}
		for _, p := range cell.Outputs {
			key := p.Value.Key()
			s.drivers = append(s.drivers, key)
			s.vectors[key] = p.Value
		}
	}

	for _, target := range slices.Clone(s.consumers) {
		s.gather(target, 0, len(target))
	}

	for _, target := range s.joinOrder {
		m.Nodes = append(m.Nodes, s.joinCell(target))
	}
	for _, source := range s.splitOrder {
		m.Nodes = append(m.Nodes, s.splitCell(source))
	}
}

type sjSolver struct {
	drivers   []string // available producer vectors, grows as splits/joins are scheduled
	consumers []string // unsolved consumer vectors
	splits    map[string][]string
	joins     map[string][]string
	// emission order follows discovery order for deterministic output
	splitOrder []string
	joinOrder  []string
	vectors    map[string]netlist.Vector
}

// gather solves toSolve[start:end] against the driver set. The query is
// always comma-bounded: recursion resumes at end-1 so adjacent ranges share
// their separating comma.
func (s *sjSolver) gather(toSolve string, start, end int) {
	if i := slices.Index(s.consumers, toSolve); i != -1 {
		s.consumers = slices.Delete(s.consumers, i, i+1)
	}
	if start >= len(toSolve) || end-start < 2 {
		return
	}
	query := toSolve[start:end]

	// Exact driver match: the range is already produced.
	if slices.Contains(s.drivers, query) {
		if query != toSolve {
			s.addJoin(toSolve, rangeName(toSolve, query, start))
		}
		s.gather(toSolve, end-1, len(toSolve))
		return
	}

	// Slice of a driver: split that driver to expose the range.
	if i := indexOfContains(query, s.drivers); i != -1 {
		if query != toSolve {
			s.addJoin(toSolve, rangeName(toSolve, query, start))
		}
		s.addSplit(s.drivers[i], rangeName(s.drivers[i], query, 0))
		s.drivers = append(s.drivers, query)
		s.gather(toSolve, end-1, len(toSolve))
		return
	}

	// Slice of another consumer: solve the sub-vector against drivers
	// alone (consumer matches are masked to keep the recursion founded),
	// register it as producible, then continue on the remainder.
	if indexOfContains(query, s.consumers) != -1 {
		if query != toSolve {
			s.addJoin(toSolve, rangeName(toSolve, query, start))
		}
		saved := s.consumers
		s.consumers = nil
		s.gather(query, 0, len(query))
		s.consumers = saved
		s.drivers = append(s.drivers, query)
		s.gather(toSolve, end-1, len(toSolve))
		return
	}

	// No match: drop the last element of the query and retry; once the
	// query is a single element, advance past it and solve the remainder.
	if comma := strings.LastIndex(toSolve[start:end-1], ","); comma > 0 {
		s.gather(toSolve, start, start+comma+1)
		return
	}
	s.gather(toSolve, end-1, len(toSolve))
}

func (s *sjSolver) addJoin(target, rng string) {
	if _, ok := s.joins[target]; !ok {
		s.joinOrder = append(s.joinOrder, target)
	}
	if !slices.Contains(s.joins[target], rng) {
		s.joins[target] = append(s.joins[target], rng)
	}
}

func (s *sjSolver) addSplit(source, rng string) {
	if _, ok := s.splits[source]; !ok {
		s.splitOrder = append(s.splitOrder, source)
	}
	if !slices.Contains(s.splits[source], rng) {
		s.splits[source] = append(s.splits[source], rng)
	}
}

// joinCell builds a $_join_ cell keyed on the target vector: one input port
// per contributing range, one output Y carrying the whole target.
func (s *sjSolver) joinCell(target string) *Cell {
	vec := s.vectors[target]
	inputs := make([]*Port, 0, len(s.joins[target]))
	for _, rng := range s.joins[target] {
		lo, hi := parseRange(rng)
		inputs = append(inputs, &Port{Key: rng, Value: slices.Clone(vec[lo : hi+1])})
	}
	return newCell(joinPrefix+target, TypeJoin, nil, inputs,
		[]*Port{{Key: "Y", Value: slices.Clone(vec)}})
}

// splitCell builds a $_split_ cell keyed on the source vector: one input A
// carrying the whole source, one output port per extracted range.
func (s *sjSolver) splitCell(source string) *Cell {
	vec := s.vectors[source]
	outputs := make([]*Port, 0, len(s.splits[source]))
	for _, rng := range s.splits[source] {
		lo, hi := parseRange(rng)
		outputs = append(outputs, &Port{Key: rng, Value: slices.Clone(vec[lo : hi+1])})
	}
	return newCell(splitPrefix+source, TypeSplit, nil,
		[]*Port{{Key: "A", Value: slices.Clone(vec)}}, outputs)
}

// rangeName names the bit range that query covers within bitstring, as "i"
// for a single bit or "i:j" inclusive. Indices are recovered by counting
// commas ahead of the match; start disambiguates repeated patterns.
func rangeName(bitstring, query string, start int) string {
	pos := strings.Index(bitstring, query)
	if pos < start {
		pos = start
	}
	lo := strings.Count(bitstring[:pos], ",")
	hi := lo + strings.Count(query, ",") - 2
	if lo == hi {
		return strconv.Itoa(lo)
	}
	return fmt.Sprintf("%d:%d", lo, hi)
}

// parseRange reverses rangeName.
func parseRange(rng string) (lo, hi int) {
	if i := strings.IndexByte(rng, ':'); i >= 0 {
		lo, _ = strconv.Atoi(rng[:i])
		hi, _ = strconv.Atoi(rng[i+1:])
		return lo, hi
	}
	lo, _ = strconv.Atoi(rng)
	return lo, lo
}

// indexOfContains returns the index of the first haystack entry that
// contains needle as a substring, or -1.
func indexOfContains(needle string, haystack []string) int {
	for i, h := range haystack {
		if strings.Contains(h, needle) {
			return i
		}
	}
	return -1
}
