// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ssrserve_build_info",
		Help: "Build information; always 1",
	}, []string{"version", "commit"})

	manifestEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ssrserve_manifest_entries",
		Help: "Top-level keys in the loaded asset-symbol manifest",
	})
)

// RecordBuildInfo publishes the running version.
func RecordBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}

// RecordManifest publishes the size of the loaded manifest.
func RecordManifest(entries int) { manifestEntries.Set(float64(entries)) }
