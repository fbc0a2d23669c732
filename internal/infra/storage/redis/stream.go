package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Asthay97/personal-bank-fullstack/internal/ingest"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/x/chflow"
	"github.com/Asthay97/personal-bank-fullstack/internal/txfeed"
)

// payloadField is the stream entry field holding the JSON event.
const payloadField = "payload"

type streamConfig struct {
	startID string
	block   time.Duration
	count   int64
	backoff time.Duration
}

type StreamOption func(*streamConfig)

// WithStartID sets where reading begins. The default "$" only delivers
// entries added after Events is called; "0" replays the whole stream.
func WithStartID(id string) StreamOption {
	return func(c *streamConfig) {
		c.startID = id
	}
}

// WithBlock bounds each blocking XREAD.
func WithBlock(d time.Duration) StreamOption {
	return func(c *streamConfig) {
		c.block = d
	}
}

// WithErrorBackoff sets the pause after a failed read.
func WithErrorBackoff(d time.Duration) StreamOption {
	return func(c *streamConfig) {
		c.backoff = d
	}
}

// StreamSource reads ingest events from one Redis Stream. Delivery is
// at-least-once.
type StreamSource struct {
	conn   *redis.Client
	stream string
	cfg    streamConfig
}

var _ txfeed.EventSource = (*StreamSource)(nil)

// StreamSource returns an event source over stream.
func (c *client) StreamSource(stream string, opts ...StreamOption) *StreamSource {
	cfg := streamConfig{
		startID: "$",
		block:   2 * time.Second,
		count:   100,
		backoff: time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &StreamSource{conn: c.conn, stream: stream, cfg: cfg}
}

// Publish appends e to the stream.
func (s *StreamSource) Publish(ctx context.Context, e ingest.Event) error {
	payload, err := ingest.Encode(e)
	if err != nil {
		return err
	}

	return s.conn.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{payloadField: payload},
	}).Err()
}

// Events streams decoded entries until ctx is done. Read failures and
// undecodable entries are delivered as SourceEvent.Err.
func (s *StreamSource) Events(ctx context.Context) (<-chan txfeed.SourceEvent, error) {
	lastID := s.cfg.startID
	if lastID == "$" {
		// Pin "$" now so entries added before the first XREAD are not lost.
		id, err := s.latestID(ctx)
		if err != nil {
			return nil, err
		}
		lastID = id
	}

	out := make(chan txfeed.SourceEvent)
	go func() {
		defer close(out)

		for ctx.Err() == nil {
			streams, err := s.conn.XRead(ctx, &redis.XReadArgs{
				Streams: []string{s.stream, lastID},
				Count:   s.cfg.count,
				Block:   s.cfg.block,
			}).Result()

			if errors.Is(err, redis.Nil) {
				continue
			}
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
				case <-time.After(s.cfg.backoff):
				}
				continue
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					lastID = msg.ID
					if !chflow.Send(ctx, out, decodeEntry(msg)) {
						return
					}
				}
			}
		}
	}()

	return out, nil
}

func (s *StreamSource) latestID(ctx context.Context) (string, error) {
	entries, err := s.conn.XRevRangeN(ctx, s.stream, "+", "-", 1).Result()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "0", nil
	}
	return entries[0].ID, nil
}

func decodeEntry(msg redis.XMessage) txfeed.SourceEvent {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		return txfeed.SourceEvent{Err: errors.Join(ingest.ErrMalformedEvent, errors.New("stream entry "+msg.ID+" has no payload"))}
	}

	e, err := ingest.Decode([]byte(raw))
	if err != nil {
		return txfeed.SourceEvent{Err: err}
	}
	return txfeed.SourceEvent{Event: e}
}
