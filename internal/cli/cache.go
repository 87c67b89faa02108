package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netdraw/pkg/config"
)

// newCacheCmd creates the cache command group for the local file cache.
func newCacheCmd() *cobra.Command {
	var configure string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered-diagram cache",
	}
	cmd.PersistentFlags().StringVar(&configure, "config", "", "config file path")

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show cache location and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir(configure)
			if err != nil {
				return err
			}
			files, bytes := cacheUsage(dir)
			fmt.Fprintf(cmd.OutOrStdout(), "dir:   %s\nfiles: %d\nsize:  %.1f KiB\n",
				dir, files, float64(bytes)/1024)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all cached diagrams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir(configure)
			if err != nil {
				return err
			}
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			loggerFromContext(cmd.Context()).Info("cache cleared", "dir", dir)
			return nil
		},
	})

	return cmd
}

func cacheDir(configure string) (string, error) {
	cfg, err := config.Load(configure)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if cfg.Cache.Dir == "" {
		return "", fmt.Errorf("no cache directory configured")
	}
	return cfg.Cache.Dir, nil
}

func cacheUsage(dir string) (files int, bytes int64) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			files++
			bytes += info.Size()
		}
		return nil
	})
	return files, bytes
}
