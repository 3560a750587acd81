// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/accel_windows/internal/persistence"
	"github.com/relabs-tech/accel_windows/internal/stats"
)

const sinkTimeout = 2 * time.Second

// summarySink receives every committed window summary.
type summarySink interface {
	Name() string
	Publish(ctx context.Context, rec persistence.Record) error
}

type mqttSink struct {
	client mqtt.Client
	topic  string
}

func (s *mqttSink) Name() string { return "mqtt" }

func (s *mqttSink) Publish(_ context.Context, rec persistence.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	token := s.client.Publish(s.topic, 0, false, payload)
	if !token.WaitTimeout(sinkTimeout) {
		return fmt.Errorf("publish to %s timed out", s.topic)
	}
	return token.Error()
}

type redisSink struct {
	store *persistence.SummaryStore
}

func (s *redisSink) Name() string { return "redis" }

func (s *redisSink) Publish(ctx context.Context, rec persistence.Record) error {
	return s.store.Save(ctx, rec)
}

type publishFailureRecorder interface {
	PublishFailed(sink string)
}

// forwardSummaries hands each summary from events to every sink until
// events is closed. A failing sink is logged and counted; it never stops
// the others.
func forwardSummaries(events <-chan stats.Summary, session string, sinks []summarySink, failures publishFailureRecorder) {
	for s := range events {
		rec := persistence.Record{
			Session: session,
			Time:    time.Now().UTC().Format(time.RFC3339),
			Summary: s,
		}
		for _, sink := range sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			err := sink.Publish(ctx, rec)
			cancel()
			if err != nil {
				log.Printf("collector: %s publish error (window %d): %v", sink.Name(), s.Window, err)
				if failures != nil {
					failures.PublishFailed(sink.Name())
				}
			}
		}
	}
}
