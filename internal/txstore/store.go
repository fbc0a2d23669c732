// Package txstore owns the authoritative in-memory transaction log of the
// tracked account and mirrors it to a CheckpointStorage in the background.
//
// Writes never block callers of Apply: snapshots go through a bounded queue
// and, when the queue is full, the oldest queued snapshot is replaced so the
// latest state always wins. Close drains whatever is still queued.
package txstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/resilience/retry"
	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

// ErrServiceAlreadyStarted is returned by Start when the writer runs already.
var ErrServiceAlreadyStarted = errors.New("checkpoint writer already started")

// Store is safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	log []txrecord.Record

	account    string
	maxLogSize int
	checkpoint CheckpointStorage
	retry      retry.Retry

	queueMu sync.Mutex
	queue   chan []txrecord.Record
	closed  bool

	lifecycleMu sync.Mutex
	isStarted   bool
	done        chan struct{}
}

type config struct {
	checkpoint CheckpointStorage
	retry      retry.Retry
	queueDepth int
	maxLogSize int
}

// Option configures a Store.
type Option func(*config)

// WithCheckpointStorage sets the durable backend. Without it the log only
// lives in memory.
func WithCheckpointStorage(cs CheckpointStorage) Option {
	return func(c *config) {
		c.checkpoint = cs
	}
}

// WithRetry sets the retry policy for failed checkpoint writes.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithQueueDepth bounds how many snapshots may wait for the writer.
func WithQueueDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.queueDepth = n
		}
	}
}

// WithMaxLogSize caps the log restored by Load.
func WithMaxLogSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxLogSize = n
		}
	}
}

// New returns an empty Store for account.
func New(account string, opts ...Option) *Store {
	cfg := config{
		checkpoint: nopCheckpoint{},
		retry:      retry.New(retry.WithAttempts(3), retry.WithDelay(200*time.Millisecond)),
		queueDepth: 1,
		maxLogSize: reconcile.DefaultMaxLogSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Store{
		log:        []txrecord.Record{},
		account:    account,
		maxLogSize: cfg.maxLogSize,
		checkpoint: cfg.checkpoint,
		retry:      cfg.retry,
		queue:      make(chan []txrecord.Record, cfg.queueDepth),
	}
}

// Load replaces the in-memory log with the stored checkpoint. A missing,
// unreadable or invalid checkpoint leaves an empty log, which is queued to
// be written back.
func (s *Store) Load(ctx context.Context) {
	ctx = logger.Derive(ctx, "account", s.account)

	records, err := s.checkpoint.LoadLatestCheckpoint(ctx, s.account)
	switch {
	case errors.Is(err, ErrNoCheckpointFound):
		logger.Info(ctx, "no checkpoint found, starting with an empty log")
		s.reset()
		return
	case err != nil:
		logger.Error(ctx, "failed to load checkpoint, starting with an empty log", "error", err)
		s.reset()
		return
	}

	for _, r := range records {
		if err := r.Validate(); err != nil || r.IsInner {
			logger.Error(ctx, "invalid record in checkpoint, starting with an empty log",
				"transaction.id", r.ID,
				"error", err,
			)
			s.reset()
			return
		}
	}

	if len(records) > s.maxLogSize {
		records = records[:s.maxLogSize]
	}
	if records == nil {
		records = []txrecord.Record{}
	}

	s.mu.Lock()
	s.log = txrecord.CloneAll(records)
	s.mu.Unlock()

	logger.Info(ctx, "checkpoint loaded", "checkpoint.size", len(records))
}

func (s *Store) reset() {
	s.Apply([]txrecord.Record{})
}

// Get returns a copy of the log, most-recent-first.
func (s *Store) Get() []txrecord.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return txrecord.CloneAll(s.log)
}

// Len returns the number of top-level records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.log)
}

// Apply replaces the log and schedules a checkpoint write. It never blocks
// on storage.
func (s *Store) Apply(log []txrecord.Record) {
	snapshot := txrecord.CloneAll(log)
	if snapshot == nil {
		snapshot = []txrecord.Record{}
	}

	s.mu.Lock()
	s.log = snapshot
	s.mu.Unlock()

	s.enqueue(txrecord.CloneAll(snapshot))
}

func (s *Store) enqueue(snapshot []txrecord.Record) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if s.closed {
		return
	}

	for {
		select {
		case s.queue <- snapshot:
			return
		default:
		}

		// Full: drop the oldest queued snapshot in favour of this one.
		select {
		case <-s.queue:
		default:
		}
	}
}

// Start launches the background checkpoint writer. Writes keep the values
// of ctx but are not cancelled with it, so Close can still flush.
func (s *Store) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	s.done = make(chan struct{})
	go s.write(context.WithoutCancel(ctx), s.done)

	s.isStarted = true
	return nil
}

func (s *Store) write(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ctx = logger.Derive(ctx, "account", s.account)
	for snapshot := range s.queue {
		s.save(ctx, snapshot)
	}
}

func (s *Store) save(ctx context.Context, snapshot []txrecord.Record) {
	err := s.retry.Execute(ctx, func() error {
		return s.checkpoint.SaveCheckpoint(ctx, s.account, snapshot)
	})
	if err != nil {
		logger.Error(ctx, "failed to save checkpoint",
			"checkpoint.size", len(snapshot),
			"error", err,
		)
	}
}

// Close stops accepting checkpoint writes and waits until every queued
// snapshot has been written. The in-memory log stays readable.
func (s *Store) Close() {
	s.queueMu.Lock()
	if s.closed {
		s.queueMu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.queueMu.Unlock()

	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.isStarted {
		<-s.done
		return
	}

	// Never started: flush inline.
	ctx := logger.Derive(context.Background(), "account", s.account)
	for snapshot := range s.queue {
		s.save(ctx, snapshot)
	}
}
