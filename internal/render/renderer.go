// SPDX-License-Identifier: MIT

// Package render implements the server-side rendering route. The renderer
// itself is an external collaborator reached through the Renderer interface;
// Client talks to a rendering sidecar over HTTP.
package render

import (
	"context"
	"net/url"

	"github.com/ManuGH/ssrserve/internal/manifest"
)

// Options are the inputs of one render call.
type Options struct {
	// Symbols is the asset-symbol manifest, passed through unmodified.
	Symbols *manifest.Manifest
	// URL is the absolute URL of the request being rendered.
	URL *url.URL
	// Debug asks the renderer for development output.
	Debug bool
}

// Result is the outcome of a render call.
type Result struct {
	HTML string
}

// Renderer produces the HTML document for a request.
type Renderer interface {
	Render(ctx context.Context, opts Options) (Result, error)
}

// Func adapts a plain function to Renderer.
type Func func(ctx context.Context, opts Options) (Result, error)

// Render calls f.
func (f Func) Render(ctx context.Context, opts Options) (Result, error) {
	return f(ctx, opts)
}
