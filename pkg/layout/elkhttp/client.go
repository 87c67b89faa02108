// Package elkhttp is a layout.Engine backed by a remote ELK-style layout
// server. The request graph is posted as JSON and the server answers with
// the same graph annotated with coordinates, routed sections and junction
// points. Transient failures (network errors, 5xx) are retried with
// backoff; everything else propagates verbatim.
package elkhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/netdraw/pkg/errors"
	"github.com/matzehuels/netdraw/pkg/httputil"
	"github.com/matzehuels/netdraw/pkg/layout"
)

const defaultTimeout = 60 * time.Second

// Client posts layout requests to a remote layout server.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the layout server at base (e.g.
// "http://localhost:8444"). The graph is posted to base+"/layout".
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Layout implements layout.Engine.
func (c *Client) Layout(ctx context.Context, g *layout.Graph) (*layout.Graph, error) {
	body, err := json.Marshal(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout request")
	}

	var out layout.Graph
	err = httputil.RetryWithBackoff(ctx, func() error {
		return c.post(ctx, body, &out)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngine, err, "layout server %s", c.base)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, body []byte, out *layout.Graph) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/layout", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return httputil.Retryable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return httputil.Retryable(fmt.Errorf("layout server returned %s", resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("layout server returned %s: %s", resp.Status, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
