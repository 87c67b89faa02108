// Package config loads netdraw's TOML configuration file.
//
// The file is optional; every field except the skin path has a working
// default, and the skin path comes from the file or the --skin flag. The CLI looks
// for netdraw.toml in the working directory, then under the user config
// directory.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file name.
const FileName = "netdraw.toml"

// Config is the full configuration tree.
type Config struct {
	// Skin is the path of the default skin document.
	Skin string `toml:"skin"`

	Engine EngineConfig `toml:"engine"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// EngineConfig selects and parameterizes the layout engine.
type EngineConfig struct {
	// Name is "graphviz" (bundled) or "elkhttp" (remote).
	Name string `toml:"name"`

	// URL is the remote layout server base URL for elkhttp.
	URL string `toml:"url"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	// Dir is the file-cache directory. Empty disables file caching.
	Dir string `toml:"dir"`

	// Redis is a "host:port" address. When set it takes precedence over
	// the file cache.
	Redis string `toml:"redis"`
}

// ServerConfig parameterizes the HTTP service.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`

	// MongoURI enables the MongoDB diagram store when set.
	MongoURI string `toml:"mongo_uri"`
}

// Default returns the built-in configuration.
func Default() Config {
	cacheDir, _ := os.UserCacheDir()
	return Config{
		Engine: EngineConfig{Name: "graphviz"},
		Cache:  CacheConfig{Dir: filepath.Join(cacheDir, "netdraw")},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads the configuration from path. An empty path searches the
// working directory and the user config directory; a missing file yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfig()
		if path == "" {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func findConfig() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "netdraw", FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
