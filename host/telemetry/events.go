// Package telemetry publishes lock events to NATS and exposes Prometheus
// metrics for a simulated board.
package telemetry

import (
	"context"
	"time"
)

// Subject names, relative to the configured prefix
const (
	SubjectLockApplied    = "lock.applied"
	SubjectSessionStarted = "session.started"
)

// Subject joins a prefix and a subject name
func Subject(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// LockApplied is published when a check changes the lock state
type LockApplied struct {
	BoardID   string    `json:"board_id"`
	State     string    `json:"state"`
	Overflows uint32    `json:"overflows"`
	Time      time.Time `json:"time"`
}

// SessionStarted is published when the privilege gate starts a console session
type SessionStarted struct {
	BoardID   string    `json:"board_id"`
	Privilege string    `json:"privilege"`
	Time      time.Time `json:"time"`
}

// Publisher sends events to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}

// NoopPublisher is a Publisher that does nothing (used when NATS is not configured).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, subject string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
