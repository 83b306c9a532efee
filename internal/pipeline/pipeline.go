// SPDX-License-Identifier: MIT

// Package pipeline implements the ordered request pipeline.
//
// A Pipeline is a list of stages. Each stage receives the request Context and
// a continuation; it either handles the request (writes the buffered response
// and returns without calling next) or defers to the following stage by
// calling next. Errors travel back up the chain as return values until a stage
// (normally the error boundary) converts them into a response.
package pipeline

import (
	"errors"
	"net/http"

	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/rs/zerolog"
)

// ErrNextCalledTwice is returned when a stage invokes its continuation more
// than once. Downstream stages are not run again.
var ErrNextCalledTwice = errors.New("pipeline: next called more than once")

// Next invokes the remainder of the pipeline.
type Next func() error

// Stage is one unit of the pipeline.
type Stage func(c *Context, next Next) error

// Context is the per-request state shared by all stages.
type Context struct {
	Request  *http.Request
	Response *Response

	// Route names the stage that answered the request. It is set by stages
	// built with Named and is empty until one of them handles the request.
	Route string
}

// NewContext creates the context for r with an empty buffered response.
func NewContext(r *http.Request) *Context {
	return &Context{Request: r, Response: NewResponse()}
}

// Named labels s. When s handles the request (returns without calling next,
// successfully or not) the context's Route is set to name.
func Named(name string, s Stage) Stage {
	return func(c *Context, next Next) error {
		deferred := false
		err := s(c, func() error {
			deferred = true
			return next()
		})
		if !deferred {
			c.Route = name
		}
		return err
	}
}

// Pipeline is an ordered list of stages. It is safe for concurrent use once
// built; Use must not be called while serving.
type Pipeline struct {
	stages []Stage
	logger zerolog.Logger
}

// New returns a pipeline running stages in order.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{
		stages: append([]Stage(nil), stages...),
		logger: xglog.WithComponent("pipeline"),
	}
}

// Use appends stages.
func (p *Pipeline) Use(stages ...Stage) *Pipeline {
	p.stages = append(p.stages, stages...)
	return p
}

// WithLogger replaces the logger used for failures that escape every stage.
func (p *Pipeline) WithLogger(logger zerolog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// Len reports the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Run executes the pipeline against c and returns the error, if any, that no
// stage handled.
func (p *Pipeline) Run(c *Context) error {
	return p.dispatch(c, 0)
}

func (p *Pipeline) dispatch(c *Context, i int) error {
	if i >= len(p.stages) {
		return nil
	}
	called := false
	return p.stages[i](c, func() error {
		if called {
			return ErrNextCalledTwice
		}
		called = true
		return p.dispatch(c, i+1)
	})
}

// ServeHTTP runs the pipeline for one request and flushes the buffered
// response to w.
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := NewContext(r)

	if err := p.runGuarded(c); err != nil {
		// Only reachable without an error boundary in the chain.
		p.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "pipeline.unhandled_error").
			Str(xglog.FieldMethod, r.Method).
			Str(xglog.FieldPath, r.URL.Path).
			Msg("error escaped the pipeline")
		c.Response.Reset()
		c.Response.Header().Set("Content-Type", "text/plain; charset=utf-8")
		c.Response.SetStatus(http.StatusInternalServerError)
		c.Response.SetBodyString(http.StatusText(http.StatusInternalServerError))
	}

	if err := c.Response.flush(w, r.Method == http.MethodHead); err != nil {
		p.logger.Debug().
			Err(err).
			Str(xglog.FieldEvent, "pipeline.write_failed").
			Str(xglog.FieldPath, r.URL.Path).
			Msg("failed to write response")
	}
}

func (p *Pipeline) runGuarded(c *Context) error {
	return Guard(func() error { return p.Run(c) })
}
