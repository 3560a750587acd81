// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relabs-tech/accel_windows/internal/stats"
)

// Record is one window summary tagged with the collector run it came from.
type Record struct {
	Session string        `json:"session"`
	Time    string        `json:"time"` // RFC3339
	Summary stats.Summary `json:"summary"`
}

// SummaryStore keeps window summaries in Redis: one list per collector
// session plus a "latest" key.
type SummaryStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSummaryStore(addr, password string, db int, prefix string) *SummaryStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if prefix == "" {
		prefix = "accel"
	}
	return &SummaryStore{client: client, prefix: prefix, ttl: 24 * time.Hour}
}

func (s *SummaryStore) Check(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SummaryStore) Stop() error {
	return s.client.Close()
}

func (s *SummaryStore) latestKey() string {
	return s.prefix + ":windows:latest"
}

func (s *SummaryStore) sessionKey(session string) string {
	return s.prefix + ":session:" + session + ":windows"
}

// Save appends the record to its session list and replaces the latest key.
func (s *SummaryStore) Save(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal window summary: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.latestKey(), payload, s.ttl)
	pipe.RPush(ctx, s.sessionKey(rec.Session), payload)
	pipe.Expire(ctx, s.sessionKey(rec.Session), s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis exec: %w", err)
	}
	return nil
}

// Session returns every record stored for a session, oldest first.
func (s *SummaryStore) Session(ctx context.Context, session string) ([]Record, error) {
	items, err := s.client.LRange(ctx, s.sessionKey(session), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal window summary: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// FetchLatest returns the most recent record, or nil when there is none.
func (s *SummaryStore) FetchLatest(ctx context.Context) (*Record, error) {
	data, err := s.client.Get(ctx, s.latestKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal window summary: %w", err)
	}
	return &rec, nil
}
