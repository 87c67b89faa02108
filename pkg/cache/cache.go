// Package cache provides the caching layer for rendered diagrams.
//
// A Cache stores opaque byte blobs under string keys with a TTL; backends
// exist for local files (CLI), Redis (server deployments), and a null cache
// that disables caching entirely. A Keyer derives stable cache keys from the
// pipeline inputs so that identical netlist/skin/engine combinations reuse
// the rendered drawing.
package cache

import (
	"context"
	"time"
)

// TTLs for cached artifacts.
const (
	// TTLDiagram is how long rendered diagrams stay cached. Diagrams are
	// pure functions of their inputs, so the TTL only bounds disk usage.
	TTLDiagram = 30 * 24 * time.Hour
)

// Cache is a byte-blob cache with TTL semantics.
type Cache interface {
	// Get returns the cached data and whether the key was present.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DiagramKeyOpts are the render inputs that participate in the diagram
// cache key beyond the netlist itself.
type DiagramKeyOpts struct {
	SkinHash   string
	Module     string
	Engine     string
	EngineOpts map[string]string
}

// Keyer derives cache keys from pipeline inputs.
type Keyer interface {
	// DiagramKey is the key for a fully rendered drawing.
	DiagramKey(netlistHash string, opts DiagramKeyOpts) string
}

// DefaultKeyer hashes all inputs into fixed-width keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// DiagramKey implements Keyer.
func (k *DefaultKeyer) DiagramKey(netlistHash string, opts DiagramKeyOpts) string {
	return hashKey("diagram", netlistHash, opts)
}
