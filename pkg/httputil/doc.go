// Package httputil provides small HTTP client helpers: retry with
// exponential backoff for transient failures. It is used by the remote
// layout-engine client.
package httputil
