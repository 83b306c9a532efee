// SPDX-License-Identifier: MIT

package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{"symbols":{"s_abc":{"hash":"abc","canonicalFilename":"q-abc.js"}},"mapping":{"s_abc":"q-abc.js"}}`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q-symbols.json")
	require.NoError(t, os.WriteFile(path, []byte("\n"+sample+"\n"), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path())
	assert.Equal(t, 2, m.Len())
	assert.JSONEq(t, sample, string(m.Raw()))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromBytes_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrInvalidJSON},
		{"garbage", "{not json", ErrInvalidJSON},
		{"array", "[1,2]", ErrNotObject},
		{"string", `"x"`, ErrNotObject},
		{"null", "null", ErrNotObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes([]byte(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRaw_IsACopy(t *testing.T) {
	input := []byte(sample)
	m, err := FromBytes(input)
	require.NoError(t, err)

	input[2] = 'X'
	raw := m.Raw()
	raw[2] = 'Y'
	assert.Equal(t, sample, string(m.Raw()))
}

func TestMarshalJSON_EmbedsVerbatim(t *testing.T) {
	m, err := FromBytes([]byte(sample))
	require.NoError(t, err)

	out, err := json.Marshal(struct {
		Symbols *Manifest `json:"symbols"`
		Debug   bool      `json:"debug"`
	}{Symbols: m, Debug: true})
	require.NoError(t, err)

	var got struct {
		Symbols json.RawMessage `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	if diff := cmp.Diff(sample, string(got.Symbols)); diff != "" {
		t.Errorf("manifest changed in transit (-want +got):\n%s", diff)
	}

	var nilManifest *Manifest
	out, err = json.Marshal(nilManifest)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
