package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdraw/pkg/cache"
	"github.com/matzehuels/netdraw/pkg/draw"
	"github.com/matzehuels/netdraw/pkg/elaborate"
	"github.com/matzehuels/netdraw/pkg/errors"
	"github.com/matzehuels/netdraw/pkg/layout"
	"github.com/matzehuels/netdraw/pkg/netlist"
	"github.com/matzehuels/netdraw/pkg/observability"
	"github.com/matzehuels/netdraw/pkg/skin"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete elaborate → layout → draw pipeline with caching.
// The legacy completion callback, when set, fires before Execute returns.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	result, err := r.execute(ctx, opts)
	if opts.Callback != nil {
		if err != nil {
			opts.Callback("", err)
		} else {
			opts.Callback(result.SVG, nil)
		}
	}
	return result, err
}

// Async couples a render result with its error for channel delivery.
type Async struct {
	Result *Result
	Err    error
}

// ExecuteAsync runs the pipeline on its own goroutine and delivers the
// outcome on the returned channel. The channel is buffered, so the result
// can be collected at any time.
func (r *Runner) ExecuteAsync(ctx context.Context, opts Options) <-chan Async {
	ch := make(chan Async, 1)
	go func() {
		result, err := r.Execute(ctx, opts)
		ch <- Async{Result: result, Err: err}
	}()
	return ch
}

func (r *Runner) execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	result := &Result{}

	sk, err := skin.Parse(opts.SkinText)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSkin, err, "load skin")
	}

	cacheKey := r.Keyer.DiagramKey(opts.netlistHash(), opts.diagramKeyOpts(sk.EngineOptions()))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "diagram")
			result.SVG = string(data)
			result.CacheInfo.DiagramHit = true
			return result, nil
		}
		observability.Cache().OnCacheMiss(ctx, "diagram")
	}

	// Stage 1: Elaborate
	moduleName, mod, err := r.selectModule(opts)
	if err != nil {
		return nil, err
	}
	elaborateStart := time.Now()
	observability.Pipeline().OnElaborateStart(ctx, moduleName)
	m := elaborate.Flatten(moduleName, mod, sk)
	if sk.Constants() {
		elaborate.SynthesizeConstants(m)
	}
	if sk.SplitsAndJoins() {
		elaborate.SynthesizeSplitJoins(m)
	}
	elaborate.BuildNets(m, sk)
	result.Module = m
	result.Stats.ElaborateTime = time.Since(elaborateStart)
	result.Stats.NodeCount = len(m.Nodes)
	result.Stats.WireCount = len(m.Wires)
	observability.Pipeline().OnElaborateComplete(ctx, moduleName,
		len(m.Nodes), len(m.Wires), result.Stats.ElaborateTime, nil)

	logger.Info("elaborated module",
		"module", moduleName,
		"nodes", len(m.Nodes),
		"wires", len(m.Wires),
		"duration", result.Stats.ElaborateTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	request, err := layout.BuildRequest(m, sk)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build layout request")
	}
	observability.Pipeline().OnLayoutStart(ctx, moduleName, len(request.Children))
	laidOut, err := opts.Engine.Layout(ctx, request)
	observability.Pipeline().OnLayoutComplete(ctx, moduleName, time.Since(layoutStart), err)
	if err != nil {
		return nil, err
	}
	if err := layout.Reconcile(laidOut); err != nil {
		return nil, err
	}
	result.Graph = laidOut
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.EdgeCount = len(laidOut.Edges)

	logger.Info("computed layout",
		"children", len(laidOut.Children),
		"edges", len(laidOut.Edges),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Draw
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, moduleName)
	svg, err := draw.Assemble(sk, m, laidOut)
	observability.Pipeline().OnRenderComplete(ctx, moduleName, len(svg), time.Since(renderStart), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "assemble drawing")
	}
	result.SVG = svg
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("rendered drawing",
		"bytes", len(svg),
		"duration", result.Stats.RenderTime)

	if !opts.Refresh {
		if err := r.Cache.Set(ctx, cacheKey, []byte(svg), cache.TTLDiagram); err == nil {
			observability.Cache().OnCacheSet(ctx, "diagram", len(svg))
		}
	}

	return result, nil
}

// selectModule resolves the module to render: the explicit override when
// set, otherwise the netlist's top module.
func (r *Runner) selectModule(opts Options) (string, netlist.Module, error) {
	if opts.Module != "" {
		mod, ok := opts.Netlist.Modules[opts.Module]
		if !ok {
			return "", netlist.Module{}, errors.New(errors.ErrCodeNotFound,
				"module %q not in netlist", opts.Module)
		}
		return opts.Module, mod, nil
	}
	name, mod, err := opts.Netlist.TopModule()
	if err != nil {
		return "", netlist.Module{}, errors.Wrap(errors.ErrCodeInvalidNetlist, err, "select module")
	}
	return name, mod, nil
}
