// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/accel_windows/internal/config"
	"github.com/relabs-tech/accel_windows/internal/imu"
	"github.com/relabs-tech/accel_windows/internal/metrics"
	"github.com/relabs-tech/accel_windows/internal/persistence"
	"github.com/relabs-tech/accel_windows/internal/pipeline"
	"github.com/relabs-tech/accel_windows/internal/sensors"
)

// errorBackoff throttles the pump while the source keeps failing.
const errorBackoff = 50 * time.Millisecond

// pipelineOptions maps the configuration onto orchestrator options.
func pipelineOptions(cfg *config.Config, obs pipeline.Observer) pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.WindowSize = cfg.WindowSize
	opts.Alpha = cfg.FilterAlpha
	opts.Convention = cfg.WindowConvention
	opts.Deviation = cfg.StdDevMode
	opts.Workers = cfg.ComputeWorkers
	opts.QueueSize = cfg.SampleQueueSize
	opts.Observer = obs
	return opts
}

// openSource builds the configured sample source. The returned close
// function is safe to call more than once.
func openSource(cfg *config.Config) (imu.Source, func(), error) {
	switch cfg.SampleSource {
	case config.SourceMock:
		log.Println("collector: using mock accelerometer source")
		step := time.Duration(cfg.SampleInterval) * time.Millisecond
		if step <= 0 {
			step = 10 * time.Millisecond
		}
		return imu.NewMockSource(step), func() {}, nil

	case config.SourceMPU9250:
		log.Printf("collector: using MPU9250 on %s (CS %s)", cfg.IMUSPIDevice, cfg.IMUCSPin)
		src, err := sensors.NewMPU9250(sensors.MPU9250Opts{
			Name:       "imu",
			SPIDevice:  cfg.IMUSPIDevice,
			CSPin:      cfg.IMUCSPin,
			AccelRange: cfg.IMUAccelRange,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil

	case config.SourceSerial:
		log.Printf("collector: using serial sensor hub on %s @ %d baud", cfg.SerialPort, cfg.SerialBaudRate)
		src, err := sensors.NewSerialSource(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			return nil, nil, err
		}
		var once sync.Once
		return src, func() {
			once.Do(func() {
				if err := src.Close(); err != nil {
					log.Printf("collector: serial close error: %v", err)
				}
			})
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown sample source %q", cfg.SampleSource)
}

type sampleSubmitter interface {
	Submit(ctx context.Context, s imu.Sample) error
}

// pumpSamples reads src and submits every sample to dst until ctx is done
// or the source is exhausted. Read errors drop the sample and are logged.
func pumpSamples(ctx context.Context, src imu.Source, dst sampleSubmitter, interval time.Duration) error {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		s, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Println("collector: sample source exhausted")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("collector: error reading sample: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(errorBackoff):
			}
			continue
		}

		if err := dst.Submit(ctx, s); err != nil {
			if errors.Is(err, pipeline.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// RunCollector reads accelerometer samples, runs the window pipeline and
// serves the results until SIGINT or SIGTERM.
func RunCollector(cfg *config.Config) error {
	log.Println("collector: starting accelerometer window collector")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := uuid.NewString()
	log.Printf("collector: session %s", session)

	m := metrics.New(prometheus.DefaultRegisterer)
	orch, err := pipeline.New(pipelineOptions(cfg, m))
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	src, closeSource, err := openSource(cfg)
	if err != nil {
		return fmt.Errorf("sample source: %w", err)
	}
	defer closeSource()

	var sinks []summarySink

	// --- connect to MQTT ---
	if cfg.MQTTBroker != "" {
		opts := mqtt.NewClientOptions().
			AddBroker(cfg.MQTTBroker).
			SetClientID(cfg.MQTTClientIDCollector)

		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return fmt.Errorf("MQTT connect error: %w", token.Error())
		}
		defer client.Disconnect(250)
		log.Printf("collector: connected to MQTT broker at %s, publishing to %s", cfg.MQTTBroker, cfg.TopicWindowStats)
		sinks = append(sinks, &mqttSink{client: client, topic: cfg.TopicWindowStats})
	}

	// --- connect to Redis ---
	if cfg.RedisAddr != "" {
		store := persistence.NewSummaryStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		defer store.Stop()
		checkCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := store.Check(checkCtx)
		cancel()
		if err != nil {
			log.Printf("collector: WARNING: redis at %s unreachable: %v", cfg.RedisAddr, err)
		} else {
			log.Printf("collector: storing window summaries in redis at %s", cfg.RedisAddr)
		}
		sinks = append(sinks, &redisSink{store: store})
	}

	// --- OLED display ---
	if cfg.DisplayEnabled {
		display, err := openDisplay(cfg.DisplayI2CBus, orch.Gravity)
		if err != nil {
			log.Printf("collector: WARNING: display unavailable: %v", err)
		} else {
			defer display.Close()
			sinks = append(sinks, display)
		}
	}

	events, unsubscribe := orch.Subscribe(256)
	defer unsubscribe()

	web := NewWeb(orch, WebOpts{
		Session:    session,
		ExportPath: cfg.ExportPath,
		Exports:    m,
		StaticDir:  cfg.WebStaticDir,
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: web.Routes(),
	}

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
		interval := time.Duration(cfg.SampleInterval) * time.Millisecond
		return pumpSamples(gctx, src, orch, interval)
	})

	// a blocking serial read only returns once the port is closed
	g.Go(func() error {
		<-gctx.Done()
		closeSource()
		return nil
	})

	g.Go(func() error {
		forwardSummaries(events, session, sinks, m)
		return nil
	})

	g.Go(func() error {
		log.Printf("collector: web server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Printf("collector: stopped after %d windows", len(orch.Summaries()))

	if cfg.ExportOnExit {
		if xerr := exportResults(orch, cfg.ExportPath, m); xerr != nil {
			log.Printf("collector: export to %s failed: %v", cfg.ExportPath, xerr)
		} else {
			log.Printf("collector: results exported to %s", cfg.ExportPath)
		}
	}

	return err
}
