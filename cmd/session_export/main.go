// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/accel_windows/internal/app"
	"github.com/relabs-tech/accel_windows/internal/config"
)

func main() {
	configPath := flag.String("config", "./accel_config.txt", "path to configuration file")
	session := flag.String("session", "", "collector session id (default: session of the latest window)")
	out := flag.String("out", "", "report file (default: EXPORT_PATH)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *out == "" {
		*out = cfg.ExportPath
	}

	if err := app.RunSessionExport(cfg, *session, *out); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	log.Printf("report written to %s", *out)
}
