// Package websocket connects viewers to a txfeed server: live channel
// connections for the mirror and one-shot snapshot queries.
package websocket

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/Asthay97/personal-bank-fullstack/internal/livefeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/mirror"
	transporthttp "github.com/Asthay97/personal-bank-fullstack/internal/pkg/transport/http"
	"github.com/Asthay97/personal-bank-fullstack/internal/txrecord"
)

type config struct {
	snapshotPath     string
	livePath         string
	handshakeTimeout time.Duration
	httpClient       *retryablehttp.Client
}

type Option func(*config)

func WithSnapshotPath(path string) Option {
	return func(c *config) {
		c.snapshotPath = path
	}
}

func WithLivePath(path string) Option {
	return func(c *config) {
		c.livePath = path
	}
}

// WithHTTPClient replaces the client used for snapshot queries.
func WithHTTPClient(client *retryablehttp.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// Client talks to one server. It implements mirror.Dialer.
type Client struct {
	snapshotURL string
	liveURL     string
	dialer      *websocket.Dialer
	http        *retryablehttp.Client
}

var _ mirror.Dialer = (*Client)(nil)

// NewClient derives the snapshot and live endpoints from serverURL, an
// http or https base address.
func NewClient(serverURL string, opts ...Option) (*Client, error) {
	cfg := config{
		snapshotPath:     "/api/transactions",
		livePath:         "/ws",
		handshakeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = transporthttp.NewClient()
	}

	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, err
	}

	live := *base
	switch base.Scheme {
	case "https":
		live.Scheme = "wss"
	default:
		live.Scheme = "ws"
	}

	return &Client{
		snapshotURL: base.JoinPath(cfg.snapshotPath).String(),
		liveURL:     live.JoinPath(cfg.livePath).String(),
		dialer:      &websocket.Dialer{HandshakeTimeout: cfg.handshakeTimeout},
		http:        cfg.httpClient,
	}, nil
}

// Snapshot queries the current log once.
func (c *Client) Snapshot(ctx context.Context) ([]txrecord.Record, error) {
	var log []txrecord.Record
	if err := transporthttp.GetJSON(ctx, c.http, c.snapshotURL, &log); err != nil {
		return nil, err
	}
	return log, nil
}

// Dial opens a live channel connection.
func (c *Client) Dial(ctx context.Context) (mirror.Conn, error) {
	ws, _, err := c.dialer.DialContext(ctx, c.liveURL, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws}, nil
}

// Conn is a live channel connection.
type Conn struct {
	ws *websocket.Conn
}

// Receive reads the next frame. Cancelling ctx closes the connection.
func (c *Conn) Receive(ctx context.Context) (livefeed.Message, error) {
	stop := context.AfterFunc(ctx, func() { _ = c.ws.Close() })
	defer stop()

	_, payload, err := c.ws.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return livefeed.Message{}, ctx.Err()
		}
		return livefeed.Message{}, err
	}

	return livefeed.Decode(payload)
}

func (c *Conn) Close() error {
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.ws.Close()
}
