// SPDX-License-Identifier: MIT

// Command ssrserve serves a server-side rendered application: "/" is rendered
// by the rendering sidecar, other paths are served from the static root, and
// everything else is answered with 404.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/ssrserve/internal/config"
	"github.com/ManuGH/ssrserve/internal/daemon"
	xglog "github.com/ManuGH/ssrserve/internal/log"
	"github.com/ManuGH/ssrserve/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ssrserve", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "path to config file (YAML)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Println(version.String())
		return 0
	}

	// Safe defaults until the configuration is known.
	xglog.Configure(xglog.Config{Version: version.Version})
	logger := xglog.WithComponent("main")

	cfg, err := config.NewLoader(*configPath, version.Version).Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
		return 1
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.Log.Service,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("main")

	source := "env+defaults"
	if *configPath != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", *configPath).
		Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := daemon.Run(ctx, cfg); err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "server.exit").
			Msg("server stopped with error")
		return 1
	}
	return 0
}
