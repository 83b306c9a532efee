// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// HTTP fields
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldURL          = "url"
	FieldStatus       = "status"
	FieldResponseTime = "response_time"

	// Error fields
	FieldStackTrace = "stack_trace"

	// Asset fields
	FieldManifest   = "manifest"
	FieldSymbols    = "symbols"
	FieldStaticRoot = "static_root"
	FieldFile       = "file"

	// Network fields
	FieldAddr = "addr"
	FieldPort = "port"
)
