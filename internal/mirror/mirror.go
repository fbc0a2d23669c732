// Package mirror keeps a viewer's local copy of the transaction log in
// sync with the server over the live channel.
//
// A snapshot replaces the local state wholesale. Updates go through the
// same reconcile.Reconcile the server uses, so both sides converge on the
// same log. When the connection drops the mirror waits a fixed backoff,
// reconnects and starts over from a fresh snapshot.
package mirror

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Asthay97/personal-bank-fullstack/internal/livefeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/resilience/retry"
	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// ErrServiceAlreadyStarted is returned by Run while another Run is active.
var ErrServiceAlreadyStarted = errors.New("mirror already running")

// DefaultReconnectBackoff is the wait between a dropped connection and the
// next attempt.
const DefaultReconnectBackoff = 3 * time.Second

// Conn is one live channel connection.
type Conn interface {
	// Receive blocks for the next message. Payload problems are reported
	// with livefeed.ErrInvalidMessage or livefeed.ErrUnknownMessageType and
	// leave the connection usable; any other error ends the connection.
	Receive(ctx context.Context) (livefeed.Message, error)
	Close() error
}

// Dialer opens live channel connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Mirror is safe for concurrent use.
type Mirror struct {
	mu      sync.RWMutex
	state   State
	log     []txrecord.Record
	orphans reconcile.Orphans

	limits  reconcile.Limits
	dialer  Dialer
	retry   retry.Retry
	changes chan struct{}

	running sync.Mutex
}

type config struct {
	limits  reconcile.Limits
	backoff time.Duration
}

// Option configures a Mirror.
type Option func(*config)

// WithLimits sets the log and orphan bounds. They should match the server.
func WithLimits(l reconcile.Limits) Option {
	return func(c *config) {
		c.limits = l
	}
}

// WithReconnectBackoff sets the fixed wait before reconnecting.
func WithReconnectBackoff(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// New returns a disconnected Mirror with an empty log.
func New(dialer Dialer, opts ...Option) *Mirror {
	cfg := config{backoff: DefaultReconnectBackoff}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Mirror{
		log:     []txrecord.Record{},
		limits:  cfg.limits,
		dialer:  dialer,
		retry:   retry.New(retry.WithAttempts(0), retry.WithFixedDelay(cfg.backoff)),
		changes: make(chan struct{}, 1),
	}
}

// State returns the current connection state.
func (m *Mirror) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

func (m *Mirror) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Transactions returns a copy of the local log, most-recent-first.
func (m *Mirror) Transactions() []txrecord.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return txrecord.CloneAll(m.log)
}

// Groups returns the local log in display order.
func (m *Mirror) Groups() []reconcile.Group {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return reconcile.Arrange(m.log)
}

// Changes signals after every change of the local log. Signals coalesce:
// a reader sees at least one signal after the latest change.
func (m *Mirror) Changes() <-chan struct{} {
	return m.changes
}

func (m *Mirror) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// Apply folds one live message into the local state and reports whether
// the log changed. Unknown message types are ignored.
func (m *Mirror) Apply(msg livefeed.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch msg.Type {
	case livefeed.TypeSnapshot:
		m.log = txrecord.CloneAll(msg.Transactions)
		if m.log == nil {
			m.log = []txrecord.Record{}
		}
		m.orphans = reconcile.Orphans{}
		m.state = StateSynced
	case livefeed.TypeUpdate:
		if msg.Transaction == nil || !m.applyUpdate(*msg.Transaction) {
			return false
		}
	default:
		return false
	}

	m.notify()
	return true
}

// applyUpdate merges the top-level record, then each of its inner records
// so that replaced inner records converge as well.
func (m *Mirror) applyUpdate(rec txrecord.Record) bool {
	changed := false

	res := reconcile.Reconcile(m.log, m.orphans, rec, m.limits)
	m.log, m.orphans = res.Log, res.Orphans
	changed = changed || res.Change.Visible()

	for _, in := range rec.InnerTransactions {
		in.IsInner = true
		in.ParentID = rec.ID

		res = reconcile.Reconcile(m.log, m.orphans, in, m.limits)
		m.log, m.orphans = res.Log, res.Orphans
		changed = changed || res.Change.Visible()
	}

	return changed
}

// Run connects and keeps the mirror synced until ctx is done. It only
// returns ctx's error, or ErrServiceAlreadyStarted.
func (m *Mirror) Run(ctx context.Context) error {
	if !m.running.TryLock() {
		return ErrServiceAlreadyStarted
	}
	defer m.running.Unlock()
	defer m.setState(StateDisconnected)

	err := m.retry.Execute(ctx, func() error {
		err := m.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m.setState(StateReconnecting)
		logger.Warn(ctx, "live channel lost, reconnecting", "error", err)
		return err
	})

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// session runs one connection until it fails.
func (m *Mirror) session(ctx context.Context) error {
	m.setState(StateConnecting)

	conn, err := m.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		msg, err := conn.Receive(ctx)
		switch {
		case errors.Is(err, livefeed.ErrUnknownMessageType):
			logger.Debug(ctx, "ignoring live message", "message.type", msg.Type)
			continue
		case errors.Is(err, livefeed.ErrInvalidMessage):
			logger.Warn(ctx, "dropping invalid live message", "error", err)
			continue
		case err != nil:
			return err
		}

		if msg.Type == livefeed.TypeUpdate && m.State() != StateSynced {
			// Updates only make sense on top of a snapshot.
			continue
		}
		m.Apply(msg)
	}
}
