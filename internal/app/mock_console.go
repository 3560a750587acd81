// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/accel_windows/internal/config"
	"github.com/relabs-tech/accel_windows/internal/export"
	"github.com/relabs-tech/accel_windows/internal/imu"
	"github.com/relabs-tech/accel_windows/internal/pipeline"
)

// RunMockConsole runs the pipeline locally on the mock source and prints
// every window as it is committed. No broker or hardware is needed.
func RunMockConsole(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, err := pipeline.New(pipelineOptions(cfg, nil))
	if err != nil {
		return err
	}
	events, unsubscribe := orch.Subscribe(64)
	defer unsubscribe()

	interval := time.Duration(cfg.SampleInterval) * time.Millisecond
	step := interval
	if step <= 0 {
		step = 10 * time.Millisecond
	}
	src := imu.NewMockSource(step)

	fmt.Printf("Sliding window dimension: %d samples\n\n", cfg.WindowSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := orch.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer orch.Close()
		return pumpSamples(gctx, src, orch, interval)
	})
	g.Go(func() error {
		for s := range events {
			if err := export.WriteWindow(os.Stdout, s); err != nil {
				return err
			}
		}
		return nil
	})

	err = g.Wait()
	log.Printf("console: %d windows computed", len(orch.Summaries()))
	return err
}
