// Package pkg provides the core libraries for netdraw schematic rendering.
//
// # Overview
//
// netdraw turns a digital-logic netlist and a skin of parametric SVG
// templates into a routed schematic diagram. The pkg directory is organized
// along the pipeline:
//
//  1. [netlist] - Input format: modules, cells, ports, bit-level signals
//  2. [skin] - Template library lookup and option parsing
//  3. [elaborate] - Flattening, constant and split/join synthesis, nets
//  4. [layout] - Layout-engine request building and reconciliation
//  5. [draw] - Drawing assembly from skin templates
//  6. [pipeline] - Orchestration (elaborate → layout → draw) with caching
//
// Supporting packages: [cache] (file/redis diagram cache), [store]
// (rendered-diagram persistence), [errors] (structured error codes),
// [observability] (instrumentation hooks), [config] (TOML configuration),
// [httputil] (retry helpers), [buildinfo] (version stamping).
//
// # Architecture
//
// The typical data flow through netdraw:
//
//	JSON netlist + skin SVG
//	         ↓
//	    [elaborate] package (flatten, synthesize, group nets)
//	         ↓
//	    [layout] package (engine request, dummy fan-outs, reconcile)
//	         ↓
//	    [draw] package (template instantiation + wiring)
//	         ↓
//	    schematic SVG
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    SkinText: skinXML,
//	    Netlist:  nl,
//	    Engine:   graphviz.New(),
//	})
package pkg
