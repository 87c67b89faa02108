package graphviz

import (
	"math"
	"slices"

	"github.com/matzehuels/netdraw/pkg/layout"
)

// routeEdges gives every edge an orthogonal polyline between its port
// anchors: straight when the ports are level, otherwise an HVH route through
// a shared midpoint column. Edges fanning out of one port (or into one, as
// driver-only dummies do) share their midpoint column, so the common trunk
// overlaps exactly; the points where a branch leaves the trunk become the
// trunk edge's junction points.
func routeEdges(g *layout.Graph) {
	routed := make(map[string]bool)

	for _, group := range endpointGroups(g) {
		routeGroup(g, group, routed)
	}
	for _, e := range g.Edges {
		if !routed[e.ID] {
			sx, sy := anchor(g, e.Source, e.SourcePort)
			tx, ty := anchor(g, e.Target, e.TargetPort)
			e.Sections = []*layout.Section{routeOne(sx, sy, tx, ty, (sx+tx)/2)}
		}
	}
}

// endpointGroups collects edges sharing a source port or sharing a target
// port, in edge order.
func endpointGroups(g *layout.Graph) [][]*layout.Edge {
	bySource := make(map[string][]*layout.Edge)
	byTarget := make(map[string][]*layout.Edge)
	var sourceOrder, targetOrder []string

	for _, e := range g.Edges {
		sk := e.Source + "\x00" + e.SourcePort
		tk := e.Target + "\x00" + e.TargetPort
		if len(bySource[sk]) == 0 {
			sourceOrder = append(sourceOrder, sk)
		}
		bySource[sk] = append(bySource[sk], e)
		if len(byTarget[tk]) == 0 {
			targetOrder = append(targetOrder, tk)
		}
		byTarget[tk] = append(byTarget[tk], e)
	}

	var out [][]*layout.Edge
	for _, k := range sourceOrder {
		if len(bySource[k]) > 1 {
			out = append(out, bySource[k])
		}
	}
	for _, k := range targetOrder {
		if len(byTarget[k]) > 1 {
			out = append(out, byTarget[k])
		}
	}
	return out
}

func routeGroup(g *layout.Graph, group []*layout.Edge, routed map[string]bool) {
	fresh := group[:0:0]
	for _, e := range group {
		if !routed[e.ID] {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) < 2 {
		return
	}

	shared := fresh[0].Source == fresh[1].Source && fresh[0].SourcePort == fresh[1].SourcePort
	// Column shared by the whole fan: halfway between the common port and
	// the nearest far end.
	var mid float64
	if shared {
		sx, _ := anchor(g, fresh[0].Source, fresh[0].SourcePort)
		near := math.Inf(1)
		for _, e := range fresh {
			tx, _ := anchor(g, e.Target, e.TargetPort)
			near = math.Min(near, tx)
		}
		mid = (sx + near) / 2
	} else {
		tx, _ := anchor(g, fresh[0].Target, fresh[0].TargetPort)
		far := math.Inf(-1)
		for _, e := range fresh {
			sx, _ := anchor(g, e.Source, e.SourcePort)
			far = math.Max(far, sx)
		}
		mid = (far + tx) / 2
	}

	// The trunk is the branch spanning the longest vertical run; branch
	// departure points land on it as junctions.
	var trunk *layout.Edge
	span := -1.0
	for _, e := range fresh {
		sx, sy := anchor(g, e.Source, e.SourcePort)
		tx, ty := anchor(g, e.Target, e.TargetPort)
		e.Sections = []*layout.Section{routeOne(sx, sy, tx, ty, mid)}
		routed[e.ID] = true
		if s := math.Abs(ty - sy); s > span {
			span = s
			trunk = e
		}
	}

	for _, e := range fresh {
		if e == trunk {
			continue
		}
		var p layout.Point
		if shared {
			_, ty := anchor(g, e.Target, e.TargetPort)
			p = layout.Point{X: mid, Y: ty}
		} else {
			_, sy := anchor(g, e.Source, e.SourcePort)
			p = layout.Point{X: mid, Y: sy}
		}
		if !slices.Contains(trunk.JunctionPoints, p) {
			trunk.JunctionPoints = append(trunk.JunctionPoints, p)
		}
	}

	sec := trunk.Sections[0]
	slices.SortFunc(trunk.JunctionPoints, func(a, b layout.Point) int {
		da := math.Abs(a.Y - sec.StartPoint.Y)
		db := math.Abs(b.Y - sec.StartPoint.Y)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})
}

// routeOne builds a single section from (sx,sy) to (tx,ty) bending through
// the mid column.
func routeOne(sx, sy, tx, ty, mid float64) *layout.Section {
	sec := &layout.Section{
		StartPoint: layout.Point{X: sx, Y: sy},
		EndPoint:   layout.Point{X: tx, Y: ty},
	}
	if sy != ty {
		sec.BendPoints = []layout.Point{{X: mid, Y: sy}, {X: mid, Y: ty}}
	}
	return sec
}

// anchor is the absolute position of a port; a missing port falls back to
// the node origin (dummy nodes have zero-size ports there anyway).
func anchor(g *layout.Graph, nodeID, portID string) (x, y float64) {
	n := g.Child(nodeID)
	if n == nil {
		return 0, 0
	}
	if p := n.Port(portID); p != nil {
		return n.X + p.X, n.Y + p.Y
	}
	return n.X, n.Y
}
