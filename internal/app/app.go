// Package app assembles txfeed components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Asthay97/personal-bank-fullstack/internal/config"
	httphandler "github.com/Asthay97/personal-bank-fullstack/internal/handlers/http"
	"github.com/Asthay97/personal-bank-fullstack/internal/infra/blockchain/algorand"
	"github.com/Asthay97/personal-bank-fullstack/internal/infra/queue/kafka"
	"github.com/Asthay97/personal-bank-fullstack/internal/infra/storage/file"
	"github.com/Asthay97/personal-bank-fullstack/internal/infra/storage/redis"
	"github.com/Asthay97/personal-bank-fullstack/internal/infra/transport/websocket"
	"github.com/Asthay97/personal-bank-fullstack/internal/ingest"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	transporthttp "github.com/Asthay97/personal-bank-fullstack/internal/pkg/transport/http"
	"github.com/Asthay97/personal-bank-fullstack/internal/reconcile"
	"github.com/Asthay97/personal-bank-fullstack/internal/txfeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/txstore"
)

const shutdownTimeout = 5 * time.Second

// ErrUnknownBackend is returned for a checkpoint backend or event source
// the build does not know.
var ErrUnknownBackend = errors.New("unknown backend")

// Limits maps the configured bounds.
func Limits(cfg config.Config) reconcile.Limits {
	return reconcile.Limits{MaxLogSize: cfg.MaxLogSize, MaxPendingOrphans: cfg.MaxPendingOrphans}
}

// Pipeline is the running server: the feed service and its HTTP
// endpoints, plus any connections they hold.
type Pipeline struct {
	service *txfeed.Service
	server  *httphandler.Server
	closers []io.Closer
}

// Build wires a pipeline. Redis is dialled here so a bad address fails
// before anything starts.
func Build(ctx context.Context, cfg config.Config) (*Pipeline, error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}

	p := &Pipeline{}

	var redisClient interface {
		txstore.CheckpointStorage
		io.Closer
		StreamSource(stream string, opts ...redis.StreamOption) *redis.StreamSource
	}
	if cfg.CheckpointBackend == config.CheckpointRedis || cfg.Source == config.SourceRedis {
		c, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		redisClient = c
		p.closers = append(p.closers, c)
	}

	var checkpoint txstore.CheckpointStorage
	switch cfg.CheckpointBackend {
	case config.CheckpointFile:
		checkpoint = file.NewCheckpoint(cfg.CheckpointFile)
	case config.CheckpointRedis:
		checkpoint = redisClient
	default:
		p.closeAll()
		return nil, fmt.Errorf("%w: checkpoint %q", ErrUnknownBackend, cfg.CheckpointBackend)
	}

	var source txfeed.EventSource
	switch cfg.Source {
	case config.SourceAlgorand:
		poller, err := algorand.NewPoller(transporthttp.NewClient(), cfg.AlgorandIndexerURL, cfg.Account,
			algorand.WithPollInterval(cfg.AlgorandPollInterval),
			algorand.WithSeedSize(cfg.MaxLogSize),
		)
		if err != nil {
			p.closeAll()
			return nil, err
		}
		source = poller
	case config.SourceRedis:
		source = redisClient.StreamSource(cfg.RedisStream)
	case config.SourceKafka:
		ks, err := kafka.NewSource(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		if err != nil {
			p.closeAll()
			return nil, err
		}
		source = ks
	default:
		p.closeAll()
		return nil, fmt.Errorf("%w: source %q", ErrUnknownBackend, cfg.Source)
	}

	store := txstore.New(cfg.Account,
		txstore.WithCheckpointStorage(checkpoint),
		txstore.WithMaxLogSize(cfg.MaxLogSize),
		txstore.WithQueueDepth(cfg.CheckpointQueueDepth),
	)

	service, err := txfeed.New(ingest.NewAdapter(cfg.Account), store,
		txfeed.WithLimits(Limits(cfg)),
		txfeed.WithEventSource(source),
	)
	if err != nil {
		p.closeAll()
		return nil, err
	}

	p.service = service
	p.server = httphandler.NewServer(cfg.ListenAddr, httphandler.NewRouter(service,
		httphandler.WithSnapshotPath(cfg.SnapshotPath),
		httphandler.WithLivePath(cfg.LivePath),
	))

	return p, nil
}

// Start begins ingestion, then serves HTTP. Failing to bind the listener
// stops ingestion again and is returned.
func (p *Pipeline) Start(ctx context.Context) error {
	if err := p.service.Start(ctx); err != nil {
		return err
	}

	if err := p.server.Start(ctx); err != nil {
		p.service.Close()
		p.closeAll()
		return fmt.Errorf("listen %s: %w", p.server.Addr(), err)
	}
	return nil
}

// Close stops accepting requests, then closes the service, which
// disconnects live subscribers and flushes the checkpoint.
func (p *Pipeline) Close() {
	ctx := context.Background()

	if err := p.server.Close(shutdownTimeout); err != nil {
		logger.Warn(ctx, "http shutdown incomplete", "error", err)
	}
	p.service.Close()
	p.closeAll()
}

func (p *Pipeline) closeAll() {
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	p.closers = nil
}

// NewViewer returns a client of the server at cfg.ServerURL.
func NewViewer(cfg config.Config) (*websocket.Client, error) {
	return websocket.NewClient(cfg.ServerURL,
		websocket.WithSnapshotPath(cfg.SnapshotPath),
		websocket.WithLivePath(cfg.LivePath),
	)
}
