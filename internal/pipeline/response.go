// SPDX-License-Identifier: MIT

package pipeline

import (
	"bytes"
	"net/http"
	"strconv"
)

// contentHeaders describe the body and are dropped when the body is replaced.
var contentHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Content-Encoding",
	"Content-Disposition",
	"ETag",
	"Last-Modified",
	"Accept-Ranges",
}

// Response is the buffered response of a single request. It implements
// http.ResponseWriter so ordinary net/http handlers can write into it; nothing
// reaches the client until the pipeline has finished.
//
// Status follows the framework convention: an explicit status wins, a written
// body implies 200, and an untouched response reports 404.
type Response struct {
	header      http.Header
	status      int
	wroteHeader bool
	bodyWritten bool
	body        bytes.Buffer
}

// NewResponse returns an empty buffered response.
func NewResponse() *Response {
	return &Response{header: make(http.Header)}
}

// Header returns the mutable response header map.
func (r *Response) Header() http.Header {
	return r.header
}

// WriteHeader records the status. As with net/http, only the first call (or
// the implicit 200 of a Write) counts; use SetStatus to override.
func (r *Response) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
}

// Write appends to the buffered body.
func (r *Response) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.bodyWritten = true
	return r.body.Write(p)
}

// SetStatus sets the status unconditionally.
func (r *Response) SetStatus(code int) {
	r.status = code
	r.wroteHeader = true
}

// Status reports the status that will be sent.
func (r *Response) Status() int {
	switch {
	case r.status != 0:
		return r.status
	case r.bodyWritten:
		return http.StatusOK
	default:
		return http.StatusNotFound
	}
}

// SetBody replaces the body.
func (r *Response) SetBody(b []byte) {
	r.body.Reset()
	r.body.Write(b)
	r.bodyWritten = true
}

// SetBodyString replaces the body with s.
func (r *Response) SetBodyString(s string) {
	r.body.Reset()
	r.body.WriteString(s)
	r.bodyWritten = true
}

// Body returns the buffered body. The slice aliases the buffer.
func (r *Response) Body() []byte {
	return r.body.Bytes()
}

// Written reports whether any stage has set a status or body.
func (r *Response) Written() bool {
	return r.wroteHeader || r.bodyWritten
}

// Reset discards status, body and the headers that describe the body. Other
// headers (timing, request id) survive.
func (r *Response) Reset() {
	r.status = 0
	r.wroteHeader = false
	r.bodyWritten = false
	r.body.Reset()
	for _, h := range contentHeaders {
		r.header.Del(h)
	}
}

// flush copies the buffered response to w.
func (r *Response) flush(w http.ResponseWriter, head bool) error {
	dst := w.Header()
	for k, v := range r.header {
		dst[k] = v
	}

	status := r.Status()
	allowed := bodyAllowed(status)
	if allowed && dst.Get("Content-Length") == "" {
		dst.Set("Content-Length", strconv.Itoa(r.body.Len()))
	}
	w.WriteHeader(status)

	if head || !allowed || r.body.Len() == 0 {
		return nil
	}
	_, err := w.Write(r.body.Bytes())
	return err
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
