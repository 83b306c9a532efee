// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

// runHealthcheckCLI probes the ops listener, for use as a container
// HEALTHCHECK. It exits 0 only on a 200 answer.
func runHealthcheckCLI(args []string) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	mode := fs.String("mode", "ready", "healthcheck mode: ready (default) or live")
	addr := fs.String("addr", "127.0.0.1:9090", "ops listener address")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := "/readyz"
	switch *mode {
	case "ready":
	case "live":
		path = "/healthz"
	default:
		fmt.Fprintf(os.Stderr, "unknown healthcheck mode %q\n", *mode)
		return 2
	}

	return probe(&http.Client{Timeout: *timeout}, "http://"+*addr+path, *mode)
}

func probe(client *http.Client, url, mode string) int {
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (network): %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (status): %s\n", resp.Status)
		return 1
	}

	fmt.Printf("Healthcheck successful (%s)\n", mode)
	return 0
}
