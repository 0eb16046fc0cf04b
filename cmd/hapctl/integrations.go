package main

import (
	"fmt"
	"log/slog"

	"github.com/hapbridge/hap-go/internal/bridgeconfig"
	"github.com/hapbridge/hap-go/internal/history"
	"github.com/hapbridge/hap-go/internal/mqttlink"
	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/server"
)

// startMQTT connects the configured devices through the broker of cfg. The
// returned function closes the link.
func startMQTT(cfg bridgeconfig.MQTTConfig, db *server.Database, devs []devices.Device, logger *slog.Logger) (func(), error) {
	client, err := mqttlink.Connect(mqttlink.Config{
		Broker:      cfg.Broker,
		ClientID:    cfg.ClientID,
		Username:    cfg.Username,
		Password:    cfg.Password,
		TopicPrefix: cfg.TopicPrefix,
		QoS:         byte(cfg.QoS),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	link := mqttlink.New(client, db, devs, cfg.TopicPrefix, logger)
	if err := link.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("starting mqtt link: %w", err)
	}
	return link.Close, nil
}

// startHistory records characteristic changes in the InfluxDB server of cfg.
// The returned function stops recording and flushes pending points.
func startHistory(cfg bridgeconfig.HistoryConfig, db *server.Database, logger *slog.Logger) (func(), error) {
	client, err := history.Connect(history.Config{
		URL:           cfg.URL,
		Token:         cfg.Token,
		Org:           cfg.Org,
		Bucket:        cfg.Bucket,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	recorder := history.NewRecorder(client, logger)
	recorder.Start(db)
	logger.Info("history recording enabled", "url", cfg.URL, "bucket", cfg.Bucket)

	return func() {
		recorder.Stop()
		client.Close()
	}, nil
}
