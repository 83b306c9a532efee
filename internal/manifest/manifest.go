// SPDX-License-Identifier: MIT

// Package manifest loads the asset-symbol manifest produced by the frontend
// build. The contents are opaque to the server: they are checked to be a JSON
// object and then handed unmodified to every render call.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNotObject is returned when the manifest is valid JSON but not an object.
	ErrNotObject = errors.New("manifest: not a JSON object")
	// ErrInvalidJSON is returned when the manifest cannot be parsed.
	ErrInvalidJSON = errors.New("manifest: invalid JSON")
)

// Manifest is an immutable, loaded asset-symbol manifest. It is safe for
// concurrent use.
type Manifest struct {
	path    string
	raw     json.RawMessage
	entries int
}

// Load reads and checks the manifest at path.
func Load(path string) (*Manifest, error) {
	// #nosec G304 -- manifest path is provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.path = path
	return m, nil
}

// FromBytes builds a manifest from raw JSON. data is copied.
func FromBytes(data []byte) (*Manifest, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, ErrInvalidJSON
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	return &Manifest{
		raw:     append(json.RawMessage(nil), trimmed...),
		entries: len(top),
	}, nil
}

// Path is the file the manifest was loaded from, empty for FromBytes.
func (m *Manifest) Path() string {
	return m.path
}

// Len is the number of top-level keys.
func (m *Manifest) Len() int {
	return m.entries
}

// Raw returns a copy of the manifest bytes.
func (m *Manifest) Raw() []byte {
	return append([]byte(nil), m.raw...)
}

// MarshalJSON embeds the manifest verbatim.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return m.Raw(), nil
}
