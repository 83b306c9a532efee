// SPDX-License-Identifier: MIT

package fs

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// dangerSubstrings are rejected anywhere in a decoded, lower-cased path.
var dangerSubstrings = []string{
	"..",        // parent traversal
	"..\\",      // windows-style backslash
	"%00",       // encoded NUL
	"\x00",      // literal NUL
	"%c0%ae",    // overlong UTF-8 for '.'
	"%e0%80%ae", // another overlong variant
}

// IsPathTraversal performs robust checks against path traversal attempts.
// It decodes the input multiple times to catch double-encoding, applies
// Unicode normalization, and searches for dangerous sequences including NULs.
func IsPathTraversal(p string) bool {
	decoded := p
	for range 3 {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
			decoded = d2
		}
		if decoded == prev {
			break
		}
	}

	// Overlong encodings only show up before decoding.
	for _, candidate := range []string{strings.ToLower(p), strings.ToLower(decoded)} {
		for _, pat := range dangerSubstrings {
			if strings.Contains(candidate, pat) {
				return true
			}
		}
	}

	// Compatibility forms fold look-alikes such as the one-dot leader
	// (U+2024) into plain dots.
	normalized := strings.ToLower(norm.NFKC.String(decoded))
	return strings.Contains(normalized, "..")
}
