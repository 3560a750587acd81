// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/accel_windows/internal/config"
	"github.com/relabs-tech/accel_windows/internal/export"
	"github.com/relabs-tech/accel_windows/internal/persistence"
)

// printRecord decodes one published window and prints it as a report stanza.
func printRecord(w io.Writer, payload []byte) error {
	var rec persistence.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fmt.Errorf("unmarshal window: %w", err)
	}
	fmt.Fprintf(w, "[%s] %s\n", rec.Session, rec.Time)
	return export.WriteWindow(w, rec.Summary)
}

func RunConsoleMQTT(cfg *config.Config) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not configured")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicWindowStats, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printRecord(os.Stdout, msg.Payload()); err != nil {
			log.Printf("console: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicWindowStats)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("console: shutting down")
	return nil
}
