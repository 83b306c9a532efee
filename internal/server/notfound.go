// SPDX-License-Identifier: MIT

package server

import (
	"net/http"

	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/pipeline"
	"github.com/rs/zerolog"
)

// NotFound is the terminal stage. It answers 404 with the absolute request
// URL in quotes and never calls next.
func NotFound(logger zerolog.Logger) pipeline.Stage {
	return func(c *pipeline.Context, _ pipeline.Next) error {
		u := pipeline.RequestURL(c.Request).String()

		logger.Debug().
			Str(xglog.FieldEvent, "notfound.dispatch").
			Str(xglog.FieldURL, u).
			Msg("no handler matched")

		res := c.Response
		res.Header().Set("Content-Type", "text/plain; charset=utf-8")
		res.SetStatus(http.StatusNotFound)
		res.SetBodyString(`"` + u + `" not found`)
		return nil
	}
}
