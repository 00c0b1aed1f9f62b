package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	listenerPingInterval = 90 * time.Second
)

// Listener turns Postgres notifications on ChangeChannel into change signals.
type Listener struct {
	listener *pq.Listener
	changes  chan struct{}
	logger   *slog.Logger
}

// NewListener opens a dedicated LISTEN connection.
func NewListener(dsn string, logger *slog.Logger) (*Listener, error) {
	l := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("catalog listener event", slog.Int("event", int(ev)), slog.String("error", err.Error()))
		}
	})
	if err := l.Listen(ChangeChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", ChangeChannel, err)
	}
	return &Listener{
		listener: l,
		changes:  make(chan struct{}, 1),
		logger:   logger,
	}, nil
}

// Changes emits one signal per burst of notifications.
// A reconnect also signals, since notifications may have been missed.
func (l *Listener) Changes() <-chan struct{} {
	return l.changes
}

// Run forwards notifications until ctx is cancelled, then closes the connection.
func (l *Listener) Run(ctx context.Context) {
	defer l.listener.Close()
	ping := time.NewTicker(listenerPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.listener.Notify:
			l.signal()
		case <-ping.C:
			if err := l.listener.Ping(); err != nil {
				l.logger.Warn("catalog listener ping failed", slog.String("error", err.Error()))
			}
		}
	}
}

// signal never blocks: a pending signal already covers this change.
func (l *Listener) signal() {
	select {
	case l.changes <- struct{}{}:
	default:
	}
}
