// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"net/http"
	"net/url"
)

type slotKey struct{}

// slot carries the outcome of a mounted net/http handler back to its stage.
type slot struct {
	passed bool
	err    error
}

func slotFrom(r *http.Request) *slot {
	if r == nil {
		return nil
	}
	s, _ := r.Context().Value(slotKey{}).(*slot)
	return s
}

// Pass marks a request served by a mounted handler as unhandled so the
// pipeline continues with the next stage.
func Pass(r *http.Request) {
	if s := slotFrom(r); s != nil {
		s.passed = true
	}
}

// Fail raises err from inside a mounted handler. The first error wins.
func Fail(r *http.Request, err error) {
	if s := slotFrom(r); s != nil && s.err == nil {
		s.err = err
	}
}

// HandlerFunc is a net/http handler that reports failures as errors.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts h so that its error is raised through the pipeline.
func Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			Fail(r, err)
		}
	}
}

// Mount runs h against the buffered response. The handler may call Pass to
// continue with the next stage or Fail to raise an error; otherwise the
// request counts as handled.
func Mount(h http.Handler) Stage {
	return func(c *Context, next Next) error {
		s := &slot{}
		r := c.Request.WithContext(context.WithValue(c.Request.Context(), slotKey{}, s))
		h.ServeHTTP(c.Response, r)
		if s.err != nil {
			return s.err
		}
		if s.passed {
			return next()
		}
		return nil
	}
}

// Wrap runs a net/http middleware around the rest of the pipeline. The
// middleware sees the buffered response writer; stages after it write to the
// context's response directly, so mw must not rely on observing those writes.
// A middleware that answers on its own (without calling its handler) ends the
// pipeline there.
func Wrap(mw func(http.Handler) http.Handler) Stage {
	return func(c *Context, next Next) error {
		orig := c.Request
		defer func() { c.Request = orig }()

		inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			c.Request = r
			if err := next(); err != nil {
				Fail(r, err)
			}
		})
		return Mount(mw(inner))(c, func() error { return nil })
	}
}

// RequestURL reconstructs the absolute URL of a server request.
func RequestURL(r *http.Request) *url.URL {
	u := *r.URL
	u.User = nil
	u.Fragment = ""
	if u.Scheme == "" {
		u.Scheme = "http"
		if r.TLS != nil {
			u.Scheme = "https"
		}
	}
	if u.Host == "" {
		u.Host = r.Host
	}
	return &u
}
