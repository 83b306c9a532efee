// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/ssrserve/internal/manifest"
	"github.com/ManuGH/ssrserve/internal/platform/fs"
)

// CheckFunc adapts a function into a Checker.
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewCheckFunc returns a named checker backed by fn.
func NewCheckFunc(name string, fn func(ctx context.Context) CheckResult) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

func (c *CheckFunc) Name() string                          { return c.name }
func (c *CheckFunc) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// NewManifestChecker reports whether the symbol manifest loaded at startup is
// still present on disk. The in-memory copy keeps serving either way, so a
// missing file only degrades.
func NewManifestChecker(m *manifest.Manifest) Checker {
	return NewCheckFunc("manifest", func(context.Context) CheckResult {
		if m == nil {
			return CheckResult{Status: StatusUnhealthy, Error: "manifest not loaded"}
		}
		if m.Path() == "" {
			return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d entries (in memory)", m.Len())}
		}
		if err := fs.IsRegularFile(m.Path()); err != nil {
			return CheckResult{Status: StatusDegraded, Error: err.Error(), Message: m.Path()}
		}
		return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d entries", m.Len())}
	})
}

// NewStaticRootChecker verifies the static root is an accessible directory.
func NewStaticRootChecker(root string) Checker {
	return NewCheckFunc("static_root", func(context.Context) CheckResult {
		if err := fs.IsDir(root); err != nil {
			return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: root}
		}
		return CheckResult{Status: StatusHealthy, Message: root}
	})
}

// NewHTTPChecker probes url with GET and expects a 2xx answer. An empty url
// means the probe is not configured and always passes.
func NewHTTPChecker(name, url string, client *http.Client) Checker {
	return NewCheckFunc(name, func(ctx context.Context) CheckResult {
		if url == "" {
			return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
		}
		resp, err := client.Do(req)
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return CheckResult{Status: StatusUnhealthy, Error: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
		}
		return CheckResult{Status: StatusHealthy, Message: url}
	})
}
