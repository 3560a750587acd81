// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"

	"github.com/relabs-tech/accel_windows/internal/export"
	"github.com/relabs-tech/accel_windows/internal/pipeline"
)

type exportRecorder interface {
	ExportFinished(result string)
}

// exportResults writes the orchestrator's current log to path.
func exportResults(o *pipeline.Orchestrator, path string, rec exportRecorder) error {
	err := export.WriteFile(path, o.Results(), o.Options().WindowSize)
	if rec != nil {
		rec.ExportFinished(exportOutcome(err))
	}
	return err
}

func exportOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, export.ErrNoResults):
		return "empty"
	case errors.Is(err, export.ErrNotFound):
		return "not_found"
	default:
		return "io"
	}
}
