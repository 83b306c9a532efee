// SPDX-License-Identifier: MIT

package log

import (
	stdlog "log"
	"strings"

	"github.com/rs/zerolog"
)

// StdLogger adapts logger for APIs that want a *log.Logger, such as
// http.Server.ErrorLog. Every line is logged at level.
func StdLogger(logger zerolog.Logger, level zerolog.Level) *stdlog.Logger {
	return stdlog.New(levelWriter{logger: logger, level: level}, "", 0)
}

type levelWriter struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func (w levelWriter) Write(p []byte) (int, error) {
	w.logger.WithLevel(w.level).Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
