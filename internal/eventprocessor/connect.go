// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// natsOptions builds the client options shared by every connection: retry on
// first connect, unlimited reconnects by default, and callbacks that log
// through the Watermill adapter.
func natsOptions(cfg ConnConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	opts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
		natsgo.ErrorHandler(func(nc *natsgo.Conn, sub *natsgo.Subscription, err error) {
			fields := watermill.LogFields{}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			logger.Error("NATS error", err, fields)
		}),
	}
	if cfg.Name != "" {
		opts = append(opts, natsgo.Name(cfg.Name))
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, natsgo.Timeout(cfg.ConnectTimeout))
	}
	return opts
}

// Connection is a NATS connection with its JetStream handle.
type Connection struct {
	NC *natsgo.Conn
	JS jetstream.JetStream
}

// Connect dials NATS and opens a JetStream context.
func Connect(cfg ConnConfig, logger watermill.LoggerAdapter) (*Connection, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	nc, err := natsgo.Connect(cfg.URL, natsOptions(cfg, logger)...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return &Connection{NC: nc, JS: js}, nil
}

// IsConnected reports whether the connection is currently up.
func (c *Connection) IsConnected() bool {
	return c.NC != nil && c.NC.IsConnected()
}

// Close drains and closes the connection.
func (c *Connection) Close() error {
	if c.NC == nil {
		return nil
	}
	if err := c.NC.Drain(); err != nil {
		c.NC.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
