// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(trace *[]string, name string) Stage {
	return func(c *Context, next Next) error {
		*trace = append(*trace, name+">")
		err := next()
		*trace = append(*trace, "<"+name)
		return err
	}
}

func quiet(p *Pipeline) *Pipeline {
	return p.WithLogger(zerolog.Nop())
}

func TestPipeline_RunsStagesInOrder(t *testing.T) {
	var trace []string
	p := New(record(&trace, "a"), record(&trace, "b")).Use(record(&trace, "c"))
	require.Equal(t, 3, p.Len())

	require.NoError(t, p.Run(NewContext(httptest.NewRequest(http.MethodGet, "/", nil))))
	assert.Equal(t, []string{"a>", "b>", "c>", "<c", "<b", "<a"}, trace)
}

func TestPipeline_ShortCircuit(t *testing.T) {
	var trace []string
	handled := func(c *Context, _ Next) error {
		trace = append(trace, "handled")
		c.Response.SetBodyString("done")
		return nil
	}
	p := New(record(&trace, "outer"), handled, record(&trace, "never"))

	c := NewContext(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, p.Run(c))
	assert.Equal(t, []string{"outer>", "handled", "<outer"}, trace)
	assert.Equal(t, http.StatusOK, c.Response.Status())
	assert.Equal(t, "done", string(c.Response.Body()))
}

func TestPipeline_NextCalledTwice(t *testing.T) {
	runs := 0
	twice := func(_ *Context, next Next) error {
		require.NoError(t, next())
		return next()
	}
	counter := func(_ *Context, _ Next) error {
		runs++
		return nil
	}

	err := New(twice, counter).Run(NewContext(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.ErrorIs(t, err, ErrNextCalledTwice)
	assert.Equal(t, 1, runs)
}

func TestPipeline_ErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	var seen error
	observer := func(_ *Context, next Next) error {
		seen = next()
		return seen
	}
	failing := func(_ *Context, _ Next) error { return boom }

	err := New(observer, failing).Run(NewContext(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, seen, boom)
}

func TestPipeline_EmptyResponseIs404(t *testing.T) {
	rec := httptest.NewRecorder()
	quiet(New()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("Content-Length"))
}

func TestPipeline_UnhandledErrorBecomes500(t *testing.T) {
	p := quiet(New(func(c *Context, _ Next) error {
		c.Response.Header().Set("Content-Type", "text/html")
		c.Response.SetBodyString("partial")
		return errors.New("secret detail")
	}))

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "secret detail")
	assert.NotContains(t, rec.Body.String(), "partial")
}

func TestPipeline_PanicBecomes500(t *testing.T) {
	p := quiet(New(func(_ *Context, _ Next) error {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestGuard(t *testing.T) {
	t.Run("returns error unchanged", func(t *testing.T) {
		want := errors.New("x")
		assert.Same(t, want, Guard(func() error { return want }))
	})

	t.Run("recovers panic with stack", func(t *testing.T) {
		err := Guard(func() error { panic("bad") })
		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "bad", pe.Value)
		assert.Contains(t, pe.Stack, "goroutine")
		assert.Equal(t, "panic: bad", pe.Error())
	})

	t.Run("unwraps error panics", func(t *testing.T) {
		cause := errors.New("cause")
		err := Guard(func() error { panic(cause) })
		assert.ErrorIs(t, err, cause)
	})

	t.Run("re-raises abort", func(t *testing.T) {
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			_ = Guard(func() error { panic(http.ErrAbortHandler) })
		})
	})
}

func TestResponse_StatusAndBody(t *testing.T) {
	r := NewResponse()
	assert.False(t, r.Written())
	assert.Equal(t, http.StatusNotFound, r.Status())

	r.WriteHeader(http.StatusTeapot)
	r.WriteHeader(http.StatusOK)
	assert.Equal(t, http.StatusTeapot, r.Status())

	r.SetStatus(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, r.Status())

	r2 := NewResponse()
	_, err := r2.Write([]byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, r2.Status())
	assert.True(t, r2.Written())
}

func TestResponse_ResetKeepsNonContentHeaders(t *testing.T) {
	r := NewResponse()
	r.Header().Set("X-Response-Time", "1ms")
	r.Header().Set("Content-Type", "text/css")
	r.Header().Set("ETag", `W/"1"`)
	r.SetStatus(http.StatusPartialContent)
	r.SetBodyString("body")

	r.Reset()

	assert.False(t, r.Written())
	assert.Empty(t, r.Body())
	assert.Equal(t, "1ms", r.Header().Get("X-Response-Time"))
	assert.Empty(t, r.Header().Get("Content-Type"))
	assert.Empty(t, r.Header().Get("ETag"))
}

func TestServeHTTP_HeadOmitsBody(t *testing.T) {
	p := quiet(New(func(c *Context, _ Next) error {
		c.Response.SetBodyString("hello world")
		return nil
	}))

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "11", rec.Header().Get("Content-Length"))
	assert.Zero(t, rec.Body.Len())
}

func TestServeHTTP_NotModifiedHasNoBody(t *testing.T) {
	p := quiet(New(func(c *Context, _ Next) error {
		c.Response.SetBodyString("ignored")
		c.Response.SetStatus(http.StatusNotModified)
		return nil
	}))

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Zero(t, rec.Body.Len())
	assert.Empty(t, rec.Header().Get("Content-Length"))
}

func TestMount(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    bool
		wantNext   bool
		wantStatus int
	}{
		{
			name: "handled",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "passed",
			handler:    func(_ http.ResponseWriter, r *http.Request) { Pass(r) },
			wantNext:   true,
			wantStatus: http.StatusNotFound,
		},
		{
			name: "failed",
			handler: Handle(func(http.ResponseWriter, *http.Request) error {
				return errors.New("nope")
			}),
			wantErr:    true,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			c := NewContext(httptest.NewRequest(http.MethodGet, "/", nil))
			err := Mount(tt.handler)(c, func() error {
				nextCalled = true
				return nil
			})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantNext, nextCalled)
			assert.Equal(t, tt.wantStatus, c.Response.Status())
		})
	}
}

func TestFail_FirstErrorWins(t *testing.T) {
	first := errors.New("first")
	c := NewContext(httptest.NewRequest(http.MethodGet, "/", nil))
	err := Mount(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		Fail(r, first)
		Fail(r, errors.New("second"))
	}))(c, func() error { return nil })
	assert.Same(t, first, err)
}

func TestPassAndFailOutsideMountAreNoops(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.NotPanics(t, func() {
		Pass(r)
		Fail(r, errors.New("ignored"))
		Pass(nil)
	})
}

func TestWrap(t *testing.T) {
	type key struct{}

	t.Run("continues with enriched request", func(t *testing.T) {
		mw := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Wrapped", "yes")
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), key{}, "v")))
			})
		}
		var got any
		p := quiet(New(Wrap(mw), func(c *Context, _ Next) error {
			got = c.Request.Context().Value(key{})
			c.Response.SetBodyString("inner")
			return nil
		}))

		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "v", got)
		assert.Equal(t, "yes", rec.Header().Get("X-Wrapped"))
		assert.Equal(t, "inner", rec.Body.String())
	})

	t.Run("propagates downstream error", func(t *testing.T) {
		boom := errors.New("boom")
		mw := func(next http.Handler) http.Handler { return next }
		err := New(Wrap(mw), func(*Context, Next) error { return boom }).
			Run(NewContext(httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("middleware may answer alone", func(t *testing.T) {
		mw := func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			})
		}
		reached := false
		c := NewContext(httptest.NewRequest(http.MethodGet, "/", nil))
		err := New(Wrap(mw), func(*Context, Next) error {
			reached = true
			return nil
		}).Run(c)
		require.NoError(t, err)
		assert.False(t, reached)
		assert.Equal(t, http.StatusServiceUnavailable, c.Response.Status())
	})
}

func TestRequestURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/a/b?x=1", nil)
	r.Host = "example.test:8080"
	assert.Equal(t, "http://example.test:8080/a/b?x=1", RequestURL(r).String())

	r.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https://example.test:8080/a/b?x=1", RequestURL(r).String())

	// the request's own URL is left untouched
	assert.Empty(t, r.URL.Host)
}

func TestServeHTTP_WriteFailureIsLogged(t *testing.T) {
	p := quiet(New(func(c *Context, _ Next) error {
		c.Response.SetBodyString("x")
		return nil
	}))
	w := &failingWriter{header: make(http.Header)}
	assert.NotPanics(t, func() {
		p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusOK, w.status)
}

type failingWriter struct {
	header http.Header
	status int
}

func (f *failingWriter) Header() http.Header       { return f.header }
func (f *failingWriter) WriteHeader(code int)      { f.status = code }
func (f *failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestNamed(t *testing.T) {
	handled := func(c *Context, _ Next) error {
		c.Response.WriteHeader(http.StatusOK)
		return nil
	}
	failing := func(*Context, Next) error { return errors.New("boom") }
	passing := func(_ *Context, next Next) error { return next() }

	tests := []struct {
		name    string
		stages  []Stage
		want    string
		wantErr bool
	}{
		{"first handles", []Stage{Named("a", handled), Named("b", handled)}, "a", false},
		{"first passes", []Stage{Named("a", passing), Named("b", handled)}, "b", false},
		{"error counts as handled", []Stage{Named("a", failing)}, "a", true},
		{"nobody handles", []Stage{Named("a", passing)}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(httptest.NewRequest(http.MethodGet, "/", nil))
			err := New(tt.stages...).Run(c)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, c.Route)
		})
	}
}
