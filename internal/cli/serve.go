package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdraw/internal/server"
	"github.com/matzehuels/netdraw/pkg/cache"
	"github.com/matzehuels/netdraw/pkg/config"
	"github.com/matzehuels/netdraw/pkg/pipeline"
	"github.com/matzehuels/netdraw/pkg/store"
)

// newServeCmd creates the serve command running the HTTP rendering service.
func newServeCmd() *cobra.Command {
	var (
		addr      string
		skinPath  string
		configure string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP rendering service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, skinPath, configure)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, then :8080)")
	cmd.Flags().StringVar(&skinPath, "skin", "", "skin SVG file")
	cmd.Flags().StringVar(&configure, "config", "", "config file path")

	return cmd
}

func runServe(ctx context.Context, addr, skinPath, configure string) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(configure)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if skinPath != "" {
		cfg.Skin = skinPath
	}

	skinText, err := loadSkin(cfg.Skin)
	if err != nil {
		return err
	}
	engine, err := engineFor(cfg.Engine)
	if err != nil {
		return err
	}

	diagramCache, err := serverCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	if diagramCache != nil {
		defer diagramCache.Close()
	}

	diagramStore, err := serverStore(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer diagramStore.Close(context.Background())

	srv := server.New(server.Options{
		Addr:     cfg.Server.Addr,
		Runner:   pipeline.NewRunner(diagramCache, nil, logger),
		Engine:   engine,
		SkinText: skinText,
		Store:    diagramStore,
		Logger:   logger,
	})
	return srv.ListenAndServe(ctx)
}

// serverCache prefers Redis when configured, falling back to the file cache.
func serverCache(ctx context.Context, cfg config.CacheConfig, logger *log.Logger) (cache.Cache, error) {
	if cfg.Redis != "" {
		c, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis, err)
		}
		return c, nil
	}
	if cfg.Dir != "" {
		c, err := cache.NewFileCache(cfg.Dir)
		if err != nil {
			logger.Warn("cache disabled", "err", err)
			return nil, nil
		}
		return c, nil
	}
	return nil, nil
}

func serverStore(ctx context.Context, cfg config.ServerConfig) (store.Store, error) {
	if cfg.MongoURI != "" {
		s, err := store.NewMongoStore(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		return s, nil
	}
	return store.NewMemoryStore(), nil
}
