// SPDX-License-Identifier: MIT

// Package static implements the static file fallback stage.
package static

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ManuGH/ssrserve/internal/httperr"
	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/metrics"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	pfs "github.com/ManuGH/ssrserve/internal/platform/fs"
	"github.com/rs/zerolog"
)

const (
	indexFile    = "index.html"
	cacheControl = "public, max-age=0"
)

// Server serves files below a root directory. Requests it cannot answer from
// disk continue down the pipeline.
type Server struct {
	root   string
	logger zerolog.Logger
}

// Option customises a Server.
type Option func(*Server)

// WithLogger replaces the static logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New returns a static file server rooted at root.
func New(root string, opts ...Option) *Server {
	s := &Server{
		root:   root,
		logger: xglog.WithComponent("static"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stage returns the pipeline stage of the server.
func (s *Server) Stage() pipeline.Stage {
	return s.serve
}

func (s *Server) serve(c *pipeline.Context, next pipeline.Next) error {
	r := c.Request
	logger := xglog.WithContext(r.Context(), s.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "static.dispatch").
		Str(xglog.FieldPath, r.URL.Path).
		Msg("looking up static file")

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return s.passThrough(next)
	}

	// Enhanced traversal detection including multiple URL-decode passes,
	// Unicode normalization, mixed-case encodings, and NUL bytes.
	raw := r.URL.EscapedPath()
	if pfs.IsPathTraversal(raw) || pfs.IsPathTraversal(r.URL.Path) {
		return s.forbidden(logger, r.URL.Path, "path_escape")
	}

	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if hasDotSegment(rel) {
		return s.passThrough(next)
	}

	file, info, err := s.open(rel)
	switch {
	case err == nil:
	case errors.Is(err, pfs.ErrPathEscape), errors.Is(err, pfs.ErrInvalidPath):
		return s.forbidden(logger, r.URL.Path, "symlink_escape")
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR), errors.Is(err, errNoIndex):
		return s.passThrough(next)
	default:
		metrics.IncStaticResult(metrics.StaticError)
		return fmt.Errorf("static: open %q: %w", r.URL.Path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldFile, file.Name()).Msg("failed to close file")
		}
	}()

	w := c.Response
	etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cacheControl)

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		metrics.IncStaticResult(metrics.StaticNotModified)
		w.SetStatus(http.StatusNotModified)
		return nil
	}

	metrics.IncStaticResult(metrics.StaticServed)
	// ServeContent handles Range requests and sets Content-Type,
	// Content-Length and Last-Modified.
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
	return nil
}

var errNoIndex = errors.New("directory without index")

// open resolves rel below the root, following a directory to its index file.
func (s *Server) open(rel string) (*os.File, os.FileInfo, error) {
	target := rel
	if target == "" {
		target = "."
	}
	realPath, err := pfs.ConfineRelPath(s.root, target)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		realPath, err = pfs.ConfineRelPath(s.root, filepath.Join(target, indexFile))
		if err != nil {
			return nil, nil, err
		}
		info, err = os.Stat(realPath)
		if err != nil {
			return nil, nil, err
		}
		if info.IsDir() {
			return nil, nil, errNoIndex
		}
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fs.ErrNotExist
	}

	// #nosec G304 -- realPath is confined to the static root
	f, err := os.Open(realPath)
	if err != nil {
		return nil, nil, err
	}
	// Re-fetch stat info from the opened file handle
	info, err = f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

func (s *Server) passThrough(next pipeline.Next) error {
	metrics.IncStaticResult(metrics.StaticFallthrough)
	return next()
}

func (s *Server) forbidden(logger zerolog.Logger, p, reason string) error {
	logger.Warn().
		Str(xglog.FieldEvent, "static.denied").
		Str(xglog.FieldPath, p).
		Str("reason", reason).
		Msg("static request denied")
	metrics.IncStaticResult(metrics.StaticForbidden)
	return httperr.New(http.StatusForbidden, "")
}

// hasDotSegment reports whether any path segment is hidden (starts with ".").
func hasDotSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// etagMatches implements the weak comparison of If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
