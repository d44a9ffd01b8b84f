package telemetry

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"slotlock/core"
)

// Observer implements core.Observer: it counts every lock application and
// session in the metrics and publishes state changes and sessions.
type Observer struct {
	boardID   string
	prefix    string
	publisher Publisher
	metrics   *Metrics
	overflows func() uint32
	logger    *slog.Logger
	now       func() time.Time
}

// ObserverConfig configures an Observer. Zero fields get defaults: a random
// board ID, a no-op publisher, no metrics.
type ObserverConfig struct {
	BoardID       string
	SubjectPrefix string
	Publisher     Publisher
	Metrics       *Metrics
	Overflows     func() uint32
	Logger        *slog.Logger
}

// NewObserver creates an observer
func NewObserver(cfg ObserverConfig) *Observer {
	if cfg.BoardID == "" {
		cfg.BoardID = uuid.NewString()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = &NoopPublisher{}
	}
	if cfg.Overflows == nil {
		cfg.Overflows = func() uint32 { return 0 }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Observer{
		boardID:   cfg.BoardID,
		prefix:    cfg.SubjectPrefix,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		overflows: cfg.Overflows,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// BoardID returns the ID stamped on published events
func (o *Observer) BoardID() string {
	return o.boardID
}

// LockApplied implements core.Observer
func (o *Observer) LockApplied(state core.LockState, changed bool) {
	if o.metrics != nil {
		o.metrics.lockApplied.WithLabelValues(state.String()).Inc()
	}
	if !changed {
		return
	}

	o.logger.Info("lock state changed", "state", state.String())
	o.publish(SubjectLockApplied, LockApplied{
		BoardID:   o.boardID,
		State:     state.String(),
		Overflows: o.overflows(),
		Time:      o.now().UTC(),
	})
}

// SessionStarted implements core.Observer
func (o *Observer) SessionStarted(level core.PrivilegeLevel) {
	if o.metrics != nil {
		o.metrics.sessions.WithLabelValues(level.String()).Inc()
	}

	o.logger.Info("console session started", "privilege", level.String())
	o.publish(SubjectSessionStarted, SessionStarted{
		BoardID:   o.boardID,
		Privilege: level.String(),
		Time:      o.now().UTC(),
	})
}

func (o *Observer) publish(name string, event any) {
	subject := Subject(o.prefix, name)
	if err := o.publisher.Publish(context.Background(), subject, event); err != nil {
		o.logger.Warn("publishing event failed", "subject", subject, "error", err)
	}
}
