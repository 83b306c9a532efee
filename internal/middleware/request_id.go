// SPDX-License-Identifier: MIT

package middleware

import (
	"regexp"

	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	"github.com/google/uuid"
)

// HeaderRequestID is the correlation header echoed on every response.
const HeaderRequestID = "X-Request-ID"

// validRequestID bounds what an inbound id may look like before it is trusted
// into logs and headers.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestID reuses a well-formed inbound X-Request-ID or generates one, sets
// it on the response and stores it in the request context for logging.
func RequestID() pipeline.Stage {
	return func(c *pipeline.Context, next pipeline.Next) error {
		reqID := c.Request.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(reqID) {
			reqID = uuid.New().String()
		}
		c.Response.Header().Set(HeaderRequestID, reqID)

		orig := c.Request
		c.Request = orig.WithContext(xglog.ContextWithRequestID(orig.Context(), reqID))
		defer func() { c.Request = orig }()

		return next()
	}
}
