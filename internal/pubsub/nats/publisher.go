// Package nats publishes estimate snapshots to a NATS subject.
package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mtlprog/dripstat/internal/estimate"
)

// Publisher sends every estimate snapshot to one subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// Connect dials NATS and returns a publisher for subject.
func Connect(url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}

	nc, err := nats.Connect(url,
		nats.Name("dripstat"),
		nats.Timeout(5*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	slog.Info("NATS: connected", "url", url, "subject", subject)
	return &Publisher{nc: nc, subject: subject}, nil
}

// Publish encodes snap as JSON and publishes it.
func (p *Publisher) Publish(snap estimate.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.subject, err)
	}
	return nil
}

// Observe is an estimate.Observer that logs publish failures.
func (p *Publisher) Observe(snap estimate.Snapshot) {
	if err := p.Publish(snap); err != nil {
		slog.Warn("NATS: publish failed", "error", err)
	}
}

// Ready reports whether the connection is established.
func (p *Publisher) Ready() bool {
	return p.nc != nil && p.nc.Status() == nats.CONNECTED
}

// Close drains pending messages and closes the connection. It is safe to call
// more than once.
func (p *Publisher) Close() error {
	if p.nc == nil || p.nc.IsClosed() || p.nc.IsDraining() {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("draining NATS connection: %w", err)
	}
	return nil
}
