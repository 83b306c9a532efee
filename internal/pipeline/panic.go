// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"
	"net/http"
	"runtime"
)

// PanicError is a recovered panic turned into an error.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Guard calls next and converts a panic into a *PanicError.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Guard(next Next) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)
			err = &PanicError{Value: rec, Stack: string(buf[:n])}
		}
	}()
	return next()
}
