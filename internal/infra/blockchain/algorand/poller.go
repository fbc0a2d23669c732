package algorand

import (
	"context"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/x/chflow"
	"github.com/Asthay97/personal-bank-fullstack/internal/txfeed"
)

const (
	// averageBlockTime is the expected time between Algorand rounds.
	averageBlockTime = 4 * time.Second

	defaultSeedSize = 10
	defaultPageSize = 100
	eventsBuffer    = 64
)

type config struct {
	interval time.Duration
	seedSize int
	pageSize int
}

type Option func(*config)

// WithPollInterval sets the wait between polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithSeedSize bounds how many past transactions the first poll emits.
// It should match the log size.
func WithSeedSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.seedSize = n
		}
	}
}

// Poller is a txfeed.EventSource over an indexer. The first poll emits
// the newest seed-size transactions; later polls emit everything confirmed
// since the last seen round. Events go out oldest first.
type Poller struct {
	indexer *indexer
	account string
	cfg     config
}

var _ txfeed.EventSource = (*Poller)(nil)

func NewPoller(client *retryablehttp.Client, indexerURL, account string, opts ...Option) (*Poller, error) {
	cfg := config{
		interval: averageBlockTime,
		seedSize: defaultSeedSize,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	idx, err := newIndexer(client, indexerURL)
	if err != nil {
		return nil, err
	}

	return &Poller{indexer: idx, account: account, cfg: cfg}, nil
}

// seed returns the round to continue from.
func (p *Poller) seed(ctx context.Context, eventsCh chan<- txfeed.SourceEvent) (uint64, bool) {
	page, err := p.indexer.accountTransactions(ctx, p.account, query{limit: p.cfg.seedSize})
	if err != nil {
		chflow.Send(ctx, eventsCh, txfeed.SourceEvent{Err: err})
		return 0, false
	}

	p.emit(ctx, page.Transactions, eventsCh)
	return page.CurrentRound + 1, true
}

// poll emits what was confirmed from minRound on and returns the next
// round to ask for. On failure minRound is returned unchanged.
func (p *Poller) poll(ctx context.Context, minRound uint64, eventsCh chan<- txfeed.SourceEvent) uint64 {
	resp, err := p.indexer.since(ctx, p.account, minRound, p.cfg.pageSize)
	if err != nil {
		chflow.Send(ctx, eventsCh, txfeed.SourceEvent{Err: err})
		return minRound
	}

	p.emit(ctx, resp.Transactions, eventsCh)

	if next := resp.CurrentRound + 1; next > minRound {
		return next
	}
	return minRound
}

func (p *Poller) emit(ctx context.Context, newestFirst []Transaction, eventsCh chan<- txfeed.SourceEvent) {
	for i := len(newestFirst) - 1; i >= 0; i-- {
		if !chflow.Send(ctx, eventsCh, txfeed.SourceEvent{Event: newestFirst[i].toEvent()}) {
			return
		}
	}
}

// Events starts polling. The channel is closed when ctx is done.
func (p *Poller) Events(ctx context.Context) (<-chan txfeed.SourceEvent, error) {
	eventsCh := make(chan txfeed.SourceEvent, eventsBuffer)

	go func() {
		defer close(eventsCh)

		var (
			next   uint64
			seeded bool
		)
		for {
			if !seeded {
				next, seeded = p.seed(ctx, eventsCh)
				if seeded {
					logger.Info(ctx, "indexer seed complete", "account", p.account, "round.next", next)
				}
			} else {
				next = p.poll(ctx, next, eventsCh)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.interval):
			}
		}
	}()

	return eventsCh, nil
}
