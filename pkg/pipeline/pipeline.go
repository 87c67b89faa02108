// Package pipeline provides the core rendering pipeline for netdraw.
//
// This package implements the complete elaborate → layout → draw pipeline
// shared by the CLI and the HTTP service. By centralizing this logic, both
// entry points behave identically and caching happens in one place.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Elaborate: flatten the netlist, synthesize constants and bus
//     splits/joins, and group ports into wires
//  2. Layout: build the engine request (with dummy fan-out nodes), call the
//     layout engine, and reconcile its answer
//  3. Draw: instantiate skin templates and emit the final drawing
//
// Every stage before the layout-engine call completes synchronously; the
// engine call is the single asynchronous boundary and the only point where
// cancellation is honored.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    SkinText: skinXML,
//	    Netlist:  parsedNetlist,
//	    Engine:   graphviz.New(),
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.SVG
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdraw/pkg/cache"
	"github.com/matzehuels/netdraw/pkg/elaborate"
	"github.com/matzehuels/netdraw/pkg/errors"
	"github.com/matzehuels/netdraw/pkg/layout"
	"github.com/matzehuels/netdraw/pkg/netlist"
)

// Options contains all configuration for one render.
type Options struct {
	// SkinText is the skin document as XML text.
	SkinText string `json:"skin,omitempty"`

	// Netlist is the parsed netlist document.
	Netlist *netlist.Netlist `json:"netlist,omitempty"`

	// Module optionally overrides top-module selection.
	Module string `json:"module,omitempty"`

	// EngineName tags the engine in cache keys ("graphviz", "elkhttp", ...).
	EngineName string `json:"engine,omitempty"`

	// Refresh bypasses the cache for this render.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Engine   layout.Engine `json:"-"`
	Logger   *log.Logger   `json:"-"`
	Callback Callback      `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Callback is the legacy completion hook: invoked with the drawing text on
// success or the error on failure, before the result is delivered.
type Callback func(svg string, err error)

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.SkinText == "" {
		return errors.New(errors.ErrCodeInvalidSkin, "skin text is required")
	}
	if o.Netlist == nil {
		return errors.New(errors.ErrCodeInvalidNetlist, "netlist is required")
	}
	if o.Engine == nil {
		return errors.New(errors.ErrCodeEngineMissing, "no layout engine configured")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// netlistHash fingerprints the netlist for cache keys.
func (o *Options) netlistHash() string {
	data, err := json.Marshal(o.Netlist)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// diagramKeyOpts returns the non-netlist inputs participating in the cache
// key.
func (o *Options) diagramKeyOpts(engineOpts map[string]string) cache.DiagramKeyOpts {
	return cache.DiagramKeyOpts{
		SkinHash:   cache.Hash([]byte(o.SkinText)),
		Module:     o.Module,
		Engine:     o.EngineName,
		EngineOpts: engineOpts,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// SVG is the rendered drawing text.
	SVG string

	// Module is the elaborated flat module (nil on cache hits).
	Module *elaborate.Module

	// Graph is the reconciled layout (nil on cache hits).
	Graph *layout.Graph

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the render came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int
	WireCount     int
	EdgeCount     int
	ElaborateTime time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	DiagramHit bool // Whether the rendered drawing came from cache
}
