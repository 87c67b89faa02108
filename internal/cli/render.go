package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdraw/pkg/cache"
	"github.com/matzehuels/netdraw/pkg/config"
	"github.com/matzehuels/netdraw/pkg/netlist"
	"github.com/matzehuels/netdraw/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string // output file path; "-" writes to stdout, empty writes <netlist>.svg
	skinPath  string // skin document path (overrides config)
	module    string // module name (overrides top-module selection)
	engine    string // layout engine name (overrides config)
	engineURL string // remote layout server URL for elkhttp
	configure string // explicit config file path
	refresh   bool   // bypass the diagram cache
	noCache   bool   // disable caching entirely
}

// newRenderCmd creates the render command: JSON netlist in, schematic SVG out.
func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [netlist.json]",
		Short: "Render a netlist to a schematic SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <netlist>.svg)")
	cmd.Flags().StringVar(&opts.skinPath, "skin", "", "skin SVG file")
	cmd.Flags().StringVar(&opts.module, "module", "", "module to render (default: top module)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "layout engine: graphviz or elkhttp")
	cmd.Flags().StringVar(&opts.engineURL, "engine-url", "", "remote layout server URL (elkhttp)")
	cmd.Flags().StringVar(&opts.configure, "config", "", "config file path")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the diagram cache")

	return cmd
}

func runRender(cmd *cobra.Command, netlistPath string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(opts.configure)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRenderFlags(&cfg, opts)

	skinText, err := loadSkin(cfg.Skin)
	if err != nil {
		return err
	}

	f, err := os.Open(netlistPath)
	if err != nil {
		return fmt.Errorf("open netlist: %w", err)
	}
	nl, err := netlist.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	engine, err := engineFor(cfg.Engine)
	if err != nil {
		return err
	}

	var diagramCache cache.Cache
	if !opts.noCache && cfg.Cache.Dir != "" {
		if diagramCache, err = cache.NewFileCache(cfg.Cache.Dir); err != nil {
			logger.Warn("cache disabled", "err", err)
			diagramCache = nil
		}
	}

	runner := pipeline.NewRunner(diagramCache, nil, logger)

	track := newProgress(logger)
	resultCh := runner.ExecuteAsync(ctx, pipeline.Options{
		SkinText:   skinText,
		Netlist:    nl,
		Module:     opts.module,
		Engine:     engine,
		EngineName: cfg.Engine.Name,
		Refresh:    opts.refresh,
		Logger:     logger,
	})
	async := awaitWithSpinner(ctx, "rendering "+filepath.Base(netlistPath), resultCh)
	if async.Err != nil {
		return async.Err
	}
	result := async.Result

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(netlistPath, filepath.Ext(netlistPath)) + ".svg"
	}
	if out == "-" {
		fmt.Fprintln(cmd.OutOrStdout(), result.SVG)
	} else if err := os.WriteFile(out, []byte(result.SVG), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if result.CacheInfo.DiagramHit {
		track.done(fmt.Sprintf("Rendered %s from cache → %s", filepath.Base(netlistPath), out))
	} else {
		track.done(fmt.Sprintf("Rendered %s (%d cells, %d wires) → %s",
			filepath.Base(netlistPath), result.Stats.NodeCount, result.Stats.WireCount, out))
	}
	return nil
}

func applyRenderFlags(cfg *config.Config, opts *renderOpts) {
	if opts.skinPath != "" {
		cfg.Skin = opts.skinPath
	}
	if opts.engine != "" {
		cfg.Engine.Name = opts.engine
	}
	if opts.engineURL != "" {
		cfg.Engine.URL = opts.engineURL
	}
}

func loadSkin(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no skin configured: pass --skin or set skin in %s", config.FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read skin: %w", err)
	}
	return string(data), nil
}
