// Package fanout delivers messages to any number of subscribers without
// letting a slow subscriber hold up the publisher or the other subscribers.
//
// Every subscriber owns a buffered channel. Publish never blocks: a
// subscriber whose buffer is full is removed and its channel closed, which
// tells the consumer to resynchronise from scratch.
package fanout

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/x/chflow"
)

// ErrHubClosed is returned by Subscribe after Close.
var ErrHubClosed = errors.New("hub closed")

const defaultBufferSize = 64

type config struct {
	bufferSize int
}

// Option configures a Hub.
type Option func(*config)

// WithBufferSize sets how many undelivered messages a subscriber may lag
// behind before it is dropped.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// Hub is safe for concurrent use.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]chan T
	closed bool

	bufferSize int
}

// New returns an empty Hub.
func New[T any](opts ...Option) *Hub[T] {
	cfg := config{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Hub[T]{
		subs:       make(map[uuid.UUID]chan T),
		bufferSize: cfg.bufferSize,
	}
}

// Subscription is one registration. C is closed when the subscription
// ends, whoever ended it.
type Subscription[T any] struct {
	ID uuid.UUID
	C  <-chan T

	hub *Hub[T]
}

// Close releases the registration. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.hub.Unsubscribe(s.ID)
}

// Subscribe registers a new subscriber. The initial messages are queued
// ahead of anything published afterwards.
func (h *Hub[T]) Subscribe(initial ...T) (*Subscription[T], error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	ch := make(chan T, h.bufferSize+len(initial))
	for _, msg := range initial {
		ch <- msg
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	h.subs[id] = ch

	return &Subscription[T]{ID: id, C: ch, hub: h}, nil
}

// Unsubscribe removes the subscriber and closes its channel. Unknown ids
// are ignored.
func (h *Hub[T]) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish offers msg to every subscriber and returns how many received it
// and the ids of those dropped because their buffer was full.
func (h *Hub[T]) Publish(msg T) (delivered int, dropped []uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		if chflow.TrySend(ch, msg) {
			delivered++
			continue
		}
		delete(h.subs, id)
		close(ch)
		dropped = append(dropped, id)
	}
	return delivered, dropped
}

// Len returns the number of active subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

// Close ends every subscription and refuses new ones.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.closed = true
}
