// Package txfeed runs the transaction feed of one account: events from an
// EventSource are mapped, reconciled into the log, checkpointed and fanned
// out to live subscribers.
//
// Reconciliation is a critical section. Ingest calls never interleave, and
// a new subscriber's snapshot is taken inside the same section so it can
// neither miss nor repeat an update.
package txfeed

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Asthay97/personal-bank-fullstack/internal/fanout"
	"github.com/Asthay97/personal-bank-fullstack/internal/ingest"
	"github.com/Asthay97/personal-bank-fullstack/internal/livefeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/x/chflow"
	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
	"github.com/Asthay97/personal-bank-fullstack/internal/txstore"
)

const instrumentationName = "github.com/Asthay97/personal-bank-fullstack/internal/txfeed"

// ErrServiceAlreadyStarted is returned if Start is called more than once.
var ErrServiceAlreadyStarted = errors.New("service already started")

// Stats is a point-in-time view of the feed.
type Stats struct {
	Transactions   int `json:"transactions"`
	PendingOrphans int `json:"pendingOrphans"`
	Subscribers    int `json:"subscribers"`
}

type closeFunc func()

// Service is safe for concurrent use.
type Service struct {
	lifecycleMu sync.Mutex
	isStarted   bool
	closeFunc   closeFunc

	mu      sync.Mutex // guards reconciliation
	orphans reconcile.Orphans

	limits  reconcile.Limits
	adapter *ingest.Adapter
	store   *txstore.Store
	hub     *fanout.Hub[livefeed.Message]
	source  EventSource

	tracer   trace.Tracer
	ingested metric.Int64Counter
	dropped  metric.Int64Counter
}

type config struct {
	limits           reconcile.Limits
	source           EventSource
	subscriberBuffer int
}

// Option configures a Service.
type Option func(*config)

// WithLimits sets the log and orphan bounds.
func WithLimits(l reconcile.Limits) Option {
	return func(c *config) {
		c.limits = l
	}
}

// WithEventSource sets where events come from once started. Without a
// source events can still be pushed with Ingest.
func WithEventSource(s EventSource) Option {
	return func(c *config) {
		c.source = s
	}
}

// WithSubscriberBuffer sets how far a subscriber may lag before it is
// dropped.
func WithSubscriberBuffer(n int) Option {
	return func(c *config) {
		c.subscriberBuffer = n
	}
}

// New wires a Service around store. Instruments are registered on the
// global OpenTelemetry providers.
func New(adapter *ingest.Adapter, store *txstore.Store, opts ...Option) (*Service, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Service{
		limits:  cfg.limits,
		adapter: adapter,
		store:   store,
		hub:     fanout.New[livefeed.Message](fanout.WithBufferSize(cfg.subscriberBuffer)),
		source:  cfg.source,
		tracer:  otel.Tracer(instrumentationName),
	}

	if err := s.registerMetrics(otel.Meter(instrumentationName)); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) registerMetrics(meter metric.Meter) error {
	var err error

	s.ingested, err = meter.Int64Counter("txfeed.events.ingested",
		metric.WithDescription("Events accepted into the log or the orphan set"))
	if err != nil {
		return err
	}

	s.dropped, err = meter.Int64Counter("txfeed.events.dropped",
		metric.WithDescription("Events discarded before reconciliation"))
	if err != nil {
		return err
	}

	_, err = meter.Int64ObservableGauge("txfeed.orphans.pending",
		metric.WithDescription("Inner transactions waiting for their parent"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(s.Stats().PendingOrphans))
			return nil
		}))
	if err != nil {
		return err
	}

	_, err = meter.Int64ObservableGauge("txfeed.subscribers",
		metric.WithDescription("Connected live subscribers"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(s.hub.Len()))
			return nil
		}))
	return err
}

// Start restores the checkpoint, starts the checkpoint writer and begins
// consuming the event source, if any.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	if err := s.store.Start(ctx); err != nil {
		return err
	}
	s.store.Load(ctx)

	ctx, cancel := context.WithCancel(ctx)
	consumerDone := make(chan struct{})

	if s.source == nil {
		close(consumerDone)
	} else {
		events, err := s.source.Events(ctx)
		if err != nil {
			cancel()
			s.store.Close()
			return err
		}
		go s.consume(ctx, events, consumerDone)
	}

	s.closeFunc = func() {
		cancel()
		<-consumerDone
		s.hub.Close()
		s.store.Close()
	}
	s.isStarted = true
	return nil
}

// Close stops consuming, disconnects every subscriber and flushes the
// checkpoint. It is safe to call Close on a service that never started.
func (s *Service) Close() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.closeFunc = nil
}

func (s *Service) consume(ctx context.Context, events <-chan SourceEvent, done chan<- struct{}) {
	defer close(done)

	for {
		ev, ok := chflow.Receive(ctx, events)
		if !ok {
			if ctx.Err() == nil {
				logger.Warn(ctx, "event source closed its stream")
			}
			return
		}

		if ev.Err != nil {
			logger.Error(ctx, "event source fault", "error", ev.Err)
			continue
		}

		_, _ = s.Ingest(ctx, ev.Event)
	}
}

// Ingest maps and reconciles one event. Malformed events and events that
// do not involve the account are logged, counted and returned as errors;
// neither affects the log.
func (s *Service) Ingest(ctx context.Context, e ingest.Event) (reconcile.Change, error) {
	ctx, span := s.tracer.Start(ctx, "txfeed.Ingest",
		trace.WithAttributes(attribute.String("transaction.id", e.ID)))
	defer span.End()

	ctx = logger.Derive(ctx, "transaction.id", e.ID)

	rec, err := s.adapter.Map(e)
	switch {
	case errors.Is(err, ingest.ErrNotInvolved):
		logger.Debug(ctx, "event does not involve the account")
		s.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "not_involved")))
		return reconcile.Change{}, err
	case err != nil:
		logger.Warn(ctx, "dropping malformed event", "error", err)
		s.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "malformed")))
		span.SetStatus(codes.Error, "malformed event")
		return reconcile.Change{}, err
	}

	change := s.reconcile(ctx, rec)

	span.SetAttributes(attribute.String("change.kind", change.Kind.String()))
	s.ingested.Add(ctx, 1, metric.WithAttributes(attribute.String("change.kind", change.Kind.String())))
	return change, nil
}

func (s *Service) reconcile(ctx context.Context, rec txrecord.Record) reconcile.Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := reconcile.Reconcile(s.store.Get(), s.orphans, rec, s.limits)
	s.orphans = res.Orphans

	switch res.Change.Kind {
	case reconcile.ChangeNone:
		logger.Debug(ctx, "event already reconciled")
		return res.Change
	case reconcile.ChangeOrphaned:
		logger.Info(ctx, "inner transaction waiting for its parent",
			"transaction.parent_id", rec.ParentID,
			"orphans.pending", res.Orphans.Len(),
		)
		return res.Change
	}

	s.store.Apply(res.Log)
	delivered, dropped := s.hub.Publish(livefeed.Update(res.Change.Record))

	logger.Info(ctx, "transaction log changed",
		"change.kind", res.Change.Kind.String(),
		"change.record_id", res.Change.Record.ID,
		"change.evicted", res.Change.Evicted,
		"subscribers.delivered", delivered,
	)
	for _, id := range dropped {
		logger.Warn(ctx, "dropped lagging subscriber", "subscriber.id", id.String())
	}

	return res.Change
}

// Snapshot returns the current log, most-recent-first.
func (s *Service) Snapshot() []txrecord.Record {
	return s.store.Get()
}

// Groups returns the current log in display order.
func (s *Service) Groups() []reconcile.Group {
	return reconcile.Arrange(s.store.Get())
}

// Subscribe registers a live subscriber. The first message on the
// subscription is a snapshot; updates follow in reconciliation order.
// Callers must Close the subscription when done.
func (s *Service) Subscribe() (*fanout.Subscription[livefeed.Message], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hub.Subscribe(livefeed.Snapshot(s.store.Get()))
}

// Stats reports the current sizes.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	pending := s.orphans.Len()
	s.mu.Unlock()

	return Stats{
		Transactions:   s.store.Len(),
		PendingOrphans: pending,
		Subscribers:    s.hub.Len(),
	}
}
