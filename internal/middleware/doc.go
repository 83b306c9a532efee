// SPDX-License-Identifier: MIT

// Package middleware provides the cross-cutting pipeline stages of the server:
// the error boundary, response timing, access logging, request correlation,
// metrics, tracing and rate limiting.
package middleware
