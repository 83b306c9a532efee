// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors of ssrserve. Collectors are
// registered with the default registry at init and exposed on the ops
// listener's /metrics endpoint.
package metrics
