// Package kafka reads ingest events from a Kafka topic, one JSON event
// per message.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Asthay97/personal-bank-fullstack/internal/ingest"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/x/chflow"
	"github.com/Asthay97/personal-bank-fullstack/internal/txfeed"
)

// ErrNoBrokers is returned by NewSource without a broker address.
var ErrNoBrokers = errors.New("kafka: no brokers configured")

// reader is the part of *kafka.Reader the source uses.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type config struct {
	startOffset int64
	backoff     time.Duration
}

type Option func(*config)

// WithStartOffset picks where a new consumer group begins:
// kafka.FirstOffset or kafka.LastOffset (the default).
func WithStartOffset(offset int64) Option {
	return func(c *config) {
		c.startOffset = offset
	}
}

func WithErrorBackoff(d time.Duration) Option {
	return func(c *config) {
		c.backoff = d
	}
}

// Source is a txfeed.EventSource over a consumer group. A message is
// committed once its event was handed to the consumer, so delivery is
// at-least-once.
type Source struct {
	reader  reader
	backoff time.Duration
}

var _ txfeed.EventSource = (*Source)(nil)

func NewSource(brokers []string, topic, groupID string, opts ...Option) (*Source, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	cfg := config{startOffset: kafka.LastOffset, backoff: time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: cfg.startOffset,
	})

	return &Source{reader: r, backoff: cfg.backoff}, nil
}

func decodeMessage(m kafka.Message) txfeed.SourceEvent {
	e, err := ingest.Decode(m.Value)
	if err != nil {
		return txfeed.SourceEvent{Err: fmt.Errorf("partition %d offset %d: %w", m.Partition, m.Offset, err)}
	}
	return txfeed.SourceEvent{Event: e}
}

// Events consumes until ctx is done, then closes the reader and the
// returned channel.
func (s *Source) Events(ctx context.Context) (<-chan txfeed.SourceEvent, error) {
	out := make(chan txfeed.SourceEvent)

	go func() {
		defer close(out)
		defer func() {
			if err := s.reader.Close(); err != nil {
				logger.Warn(ctx, "kafka reader close failed", "error", err)
			}
		}()

		for {
			m, err := s.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !chflow.Send(ctx, out, txfeed.SourceEvent{Err: err}) {
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.backoff):
				}
				continue
			}

			if !chflow.Send(ctx, out, decodeMessage(m)) {
				return
			}

			if err := s.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
				logger.Warn(ctx, "kafka offset commit failed", "kafka.offset", m.Offset, "error", err)
			}
		}
	}()

	return out, nil
}
