package layout

import (
	"slices"
	"strconv"

	"github.com/matzehuels/netdraw/pkg/errors"
)

// dummyLimit bounds the reconciliation loop. Dummies are numbered densely
// from zero, so the loop normally stops at the first unused id; the cap
// guarantees termination on pathological input.
const dummyLimit = 10000

// noJunctionScore de-prioritizes edges without junction points during anchor
// selection.
const noJunctionScore = 10000

// Reconcile folds dummy nodes out of a laid-out graph. For every dummy, the
// incident edges are rewritten so they all meet at the true fan-out point:
// the first junction point of the anchor edge, the incident edge whose
// junction geometry best matches an actual bend. When the rewritten edges
// leave the fan-out point in only two distinct directions the point is a
// plain turn, not a T, and the junction is dropped. The dummy nodes and
// their ports are discarded afterwards; only the rewritten edges remain.
func Reconcile(g *Graph) error {
	for count := 0; count < dummyLimit; count++ {
		id := dummyPrefix + strconv.Itoa(count)
		incident := incidentEdges(g, id)
		if len(incident) == 0 {
			break
		}
		if err := foldDummy(g, id, incident); err != nil {
			return err
		}
	}

	g.Children = slices.DeleteFunc(g.Children, func(n *Node) bool {
		return isDummy(n.ID)
	})
	return nil
}

func isDummy(id string) bool {
	return len(id) > len(dummyPrefix) && id[:len(dummyPrefix)] == dummyPrefix
}

func incidentEdges(g *Graph, id string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Source == id || e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

func foldDummy(g *Graph, id string, incident []*Edge) error {
	anchor := pickAnchor(id, incident)
	junction := fanOutPoint(id, anchor)

	for _, e := range incident {
		sec := section(e)
		if sec == nil {
			continue
		}
		if e.Source == id {
			sec.StartPoint = junction
		} else {
			sec.EndPoint = junction
		}
		sec.BendPoints = slices.DeleteFunc(sec.BendPoints, func(p Point) bool {
			return p == junction
		})
	}

	dirs := make(map[string]bool)
	for _, e := range incident {
		d, err := departure(id, e, junction)
		if err != nil {
			return err
		}
		dirs[d] = true
	}
	if len(dirs) == 2 {
		anchor.JunctionPoints = slices.DeleteFunc(anchor.JunctionPoints, func(p Point) bool {
			return p == junction
		})
	}

	for _, e := range incident {
		if e.Source == id {
			e.Source, e.SourcePort = "", ""
		} else {
			e.Target, e.TargetPort = "", ""
		}
	}
	return nil
}

// pickAnchor chooses the incident edge whose junction point best matches the
// true fan-out geometry. When the dummy is the edge's source the first
// junction should coincide with an early bend (minimum bend index wins);
// when the dummy is the target the last junction should coincide with a late
// bend (maximum bend index wins, expressed as a negated score). Edges
// without junction points score a large sentinel.
func pickAnchor(id string, incident []*Edge) *Edge {
	anchor := incident[0]
	best := anchorScore(id, anchor)
	for _, e := range incident[1:] {
		if s := anchorScore(id, e); s < best {
			best = s
			anchor = e
		}
	}
	return anchor
}

func anchorScore(id string, e *Edge) int {
	if len(e.JunctionPoints) == 0 {
		return noJunctionScore
	}
	sec := section(e)
	if sec == nil {
		return noJunctionScore
	}
	if e.Source == id {
		return slices.Index(sec.BendPoints, e.JunctionPoints[0])
	}
	return -slices.Index(sec.BendPoints, e.JunctionPoints[len(e.JunctionPoints)-1])
}

// fanOutPoint adopts the anchor's first junction point. An anchor without
// junction points (the degenerate case where the engine reported none at
// all) falls back to the anchor's own terminus at the dummy.
func fanOutPoint(id string, anchor *Edge) Point {
	if len(anchor.JunctionPoints) > 0 {
		return anchor.JunctionPoints[0]
	}
	sec := section(anchor)
	if sec == nil {
		return Point{}
	}
	if anchor.Source == id {
		return sec.StartPoint
	}
	return sec.EndPoint
}

// departure is the immediate direction in which an edge leaves the fan-out
// point.
func departure(id string, e *Edge, junction Point) (string, error) {
	sec := section(e)
	if sec == nil {
		return "", errors.New(errors.ErrCodeGeometry, "edge %s has no route", e.ID)
	}
	var next Point
	if e.Source == id {
		next = sec.EndPoint
		if len(sec.BendPoints) > 0 {
			next = sec.BendPoints[0]
		}
	} else {
		next = sec.StartPoint
		if len(sec.BendPoints) > 0 {
			next = sec.BendPoints[len(sec.BendPoints)-1]
		}
	}
	return direction(junction, next)
}

// direction classifies the step from a to b as up, down, left or right.
// Zero-length and diagonal steps indicate unsupported engine output.
func direction(a, b Point) (string, error) {
	dx, dy := b.X-a.X, b.Y-a.Y
	switch {
	case dx == 0 && dy == 0:
		return "", errors.New(errors.ErrCodeGeometry, "start and end are the same")
	case dx != 0 && dy != 0:
		return "", errors.New(errors.ErrCodeGeometry, "start and end aren't orthogonal")
	case dx > 0:
		return "right", nil
	case dx < 0:
		return "left", nil
	case dy > 0:
		return "down", nil
	default:
		return "up", nil
	}
}

func section(e *Edge) *Section {
	if len(e.Sections) == 0 {
		return nil
	}
	return e.Sections[0]
}
