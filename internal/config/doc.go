// SPDX-License-Identifier: MIT

// Package config provides configuration management for ssrserve.
//
// Values are resolved with the precedence ENV > YAML file > defaults. The
// loader applies defaults, merges a strictly parsed single-document YAML file,
// overlays environment variables and finally validates the result.
package config
