// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/accel_windows/internal/config"
	"github.com/relabs-tech/accel_windows/internal/export"
	"github.com/relabs-tech/accel_windows/internal/persistence"
	"github.com/relabs-tech/accel_windows/internal/stats"
)

// resultsFromRecords rebuilds the flat results log of a stored session.
func resultsFromRecords(recs []persistence.Record) []stats.Triple {
	out := make([]stats.Triple, 0, len(recs)*3)
	for _, rec := range recs {
		t := rec.Summary.Triples()
		out = append(out, t[:]...)
	}
	return out
}

// RunSessionExport writes the report of a session stored in Redis to out.
// An empty session selects the session of the latest stored window.
func RunSessionExport(cfg *config.Config, session, out string) error {
	if cfg.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := persistence.NewSummaryStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
	defer store.Stop()

	if session == "" {
		latest, err := store.FetchLatest(ctx)
		if err != nil {
			return err
		}
		if latest == nil {
			return export.ErrNoResults
		}
		session = latest.Session
	}

	recs, err := store.Session(ctx, session)
	if err != nil {
		return err
	}
	log.Printf("session_export: %d windows in session %s", len(recs), session)

	return export.WriteFile(out, resultsFromRecords(recs), cfg.WindowSize)
}
