// Package graphviz provides the bundled layout engine backend.
//
// Node placement is delegated to Graphviz dot (via goccy/go-graphviz): the
// request graph is converted to DOT, laid out left to right, and the node
// positions are read back from the attributed output. Edge routing is done
// locally by an orthogonal router that derives polylines and junction points
// from the fixed port anchors, since dot's spline routes are useless for
// schematic wiring.
package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	gv "github.com/goccy/go-graphviz"

	"github.com/matzehuels/netdraw/pkg/errors"
	"github.com/matzehuels/netdraw/pkg/layout"
)

// pointsPerInch converts between DOT's inch-based node sizes and its
// point-based coordinates. Points are treated as pixels in the output.
const pointsPerInch = 72.0

// margin padding around the placed graph.
const margin = 10.0

// Engine is a layout.Engine backed by Graphviz dot.
type Engine struct{}

// New creates a graphviz-backed layout engine.
func New() *Engine { return &Engine{} }

// Layout places the request graph with dot and routes its edges
// orthogonally. The graph is annotated in place and returned.
func (e *Engine) Layout(ctx context.Context, g *layout.Graph) (*layout.Graph, error) {
	dot := toDOT(g)

	out, err := runDot(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngine, err, "graphviz layout")
	}
	if err := readPositions(g, out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngine, err, "graphviz output")
	}

	routeEdges(g)
	return g, nil
}

func runDot(ctx context.Context, dot string) (string, error) {
	viz, err := gv.New(ctx)
	if err != nil {
		return "", fmt.Errorf("init graphviz: %w", err)
	}
	defer viz.Close()

	graph, err := gv.ParseBytes([]byte(dot))
	if err != nil {
		return "", fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := viz.Render(ctx, graph, gv.XDOT, &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}

// toDOT converts the request graph to DOT. Nodes are fixed-size boxes; the
// forward-priority layout hint maps onto edge weight so dot keeps datapaths
// on short ranks. Options prefixed "dot." pass through as graph attributes.
func toDOT(g *layout.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, fixedsize=true];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	for k, v := range g.Options {
		if name, ok := strings.CutPrefix(k, "dot."); ok {
			fmt.Fprintf(&buf, "  %s=%q;\n", name, v)
		}
	}
	buf.WriteString("\n")

	for _, n := range g.Children {
		w := n.Width / pointsPerInch
		h := n.Height / pointsPerInch
		if w <= 0 {
			w = 0.05
		}
		if h <= 0 {
			h = 0.05
		}
		fmt.Fprintf(&buf, "  %q [width=%.4f, height=%.4f];\n", n.ID, w, h)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if e.Options["org.eclipse.elk.layered.priority.direction"] != "" {
			fmt.Fprintf(&buf, "  %q -> %q [weight=10];\n", e.Source, e.Target)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

var bbRe = regexp.MustCompile(`bb="0,0,([0-9.]+),([0-9.]+)"`)

// readPositions parses node centers and the bounding box out of attributed
// DOT output and rewrites them into top-left SVG coordinates.
func readPositions(g *layout.Graph, out string) error {
	// Long attribute lists are wrapped with backslash-newline.
	out = strings.ReplaceAll(out, "\\\n", "")

	bb := bbRe.FindStringSubmatch(out)
	if bb == nil {
		return fmt.Errorf("no bounding box in dot output")
	}
	bbW, _ := strconv.ParseFloat(bb[1], 64)
	bbH, _ := strconv.ParseFloat(bb[2], 64)

	for _, n := range g.Children {
		cx, cy, ok := nodePos(out, n.ID)
		if !ok {
			return fmt.Errorf("no position for node %q", n.ID)
		}
		n.X = cx - n.Width/2 + margin
		n.Y = (bbH - cy) - n.Height/2 + margin
	}

	g.Width = bbW + 2*margin
	g.Height = bbH + 2*margin
	return nil
}

// nodePos finds the pos attribute of a node statement. Node statements are
// distinguished from edge statements by the '[' directly following the id.
func nodePos(out, id string) (x, y float64, ok bool) {
	re := regexp.MustCompile(`(?m)^\s*("` + regexp.QuoteMeta(id) + `"|` + regexp.QuoteMeta(id) + `)\s*\[[^\]]*pos="(-?[0-9.]+),(-?[0-9.]+)"`)
	m := re.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, false
	}
	x, _ = strconv.ParseFloat(m[2], 64)
	y, _ = strconv.ParseFloat(m[3], 64)
	return x, y, true
}
