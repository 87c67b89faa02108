package cli

import (
	"fmt"

	"github.com/matzehuels/netdraw/pkg/config"
	"github.com/matzehuels/netdraw/pkg/layout"
	"github.com/matzehuels/netdraw/pkg/layout/elkhttp"
	"github.com/matzehuels/netdraw/pkg/layout/graphviz"
)

// engineFor resolves the configured layout engine.
func engineFor(cfg config.EngineConfig) (layout.Engine, error) {
	switch cfg.Name {
	case "", "graphviz":
		return graphviz.New(), nil
	case "elkhttp":
		if cfg.URL == "" {
			return nil, fmt.Errorf("engine elkhttp requires a url")
		}
		return elkhttp.New(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unknown layout engine %q (must be graphviz or elkhttp)", cfg.Name)
	}
}
