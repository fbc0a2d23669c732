package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asthay97/personal-bank-fullstack/internal/ingest"
	"github.com/Asthay97/personal-bank-fullstack/internal/livefeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
	"github.com/Asthay97/personal-bank-fullstack/internal/txfeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/txstore"
)

func init() {
	_ = logger.Init("error")
	gin.SetMode(gin.TestMode)
}

func newFeed(t *testing.T, opts ...txfeed.Option) *txfeed.Service {
	t.Helper()

	svc, err := txfeed.New(ingest.NewAdapter("ACC"), txstore.New("ACC"), opts...)
	require.NoError(t, err)
	return svc
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_Snapshot(t *testing.T) {
	t.Run("should return an empty array before any transaction", func(t *testing.T) {
		rec := get(t, NewRouter(newFeed(t)), "/api/transactions")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("should return the log newest first", func(t *testing.T) {
		feed := newFeed(t)
		_, _ = feed.Ingest(t.Context(), ingest.Event{ID: "T1", Type: "pay", Sender: "ACC", ConfirmedRound: 1})
		_, _ = feed.Ingest(t.Context(), ingest.Event{ID: "T2", Type: "pay", Sender: "ACC", ConfirmedRound: 2})

		rec := get(t, NewRouter(feed), "/api/transactions")
		require.Equal(t, http.StatusOK, rec.Code)

		var body []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body, 2)
		assert.Equal(t, "T2", body[0]["id"])
		assert.Equal(t, "T1", body[1]["id"])
		assert.Equal(t, []any{}, body[0]["innerTransactions"])
	})

	t.Run("should honor a custom path", func(t *testing.T) {
		r := NewRouter(newFeed(t), WithSnapshotPath("/snapshot"))

		assert.Equal(t, http.StatusOK, get(t, r, "/snapshot").Code)
		assert.Equal(t, http.StatusNotFound, get(t, r, "/api/transactions").Code)
	})
}

func TestRouter_Feed(t *testing.T) {
	t.Run("should render grouped records with decimal amounts", func(t *testing.T) {
		feed := newFeed(t)
		_, _ = feed.Ingest(t.Context(), ingest.Event{ID: "P", Type: "pay", Sender: "ACC", Amount: 5000000, Fee: 1000, ConfirmedRound: 9, GroupID: "G"})
		_, _ = feed.Ingest(t.Context(), ingest.Event{ID: "A", Type: "appl", Sender: "ACC", ConfirmedRound: 9, GroupID: "G"})

		rec := get(t, NewRouter(feed), "/api/feed")
		require.Equal(t, http.StatusOK, rec.Code)

		var groups []GroupView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
		require.Len(t, groups, 1)
		require.Len(t, groups[0].Transactions, 2)
		assert.Equal(t, "A", groups[0].Transactions[0].ID)
		assert.Equal(t, "5.000000", groups[0].Transactions[1].Amount)
		assert.Equal(t, "0.001000", groups[0].Transactions[1].Fee)
	})
}

func TestRouter_Health(t *testing.T) {
	feed := newFeed(t)
	_, _ = feed.Ingest(t.Context(), ingest.Event{ID: "T1", Sender: "ACC"})

	rec := get(t, NewRouter(feed), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","transactions":1,"pendingOrphans":0,"subscribers":0}`, rec.Body.String())
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) livefeed.Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := livefeed.Decode(payload)
	require.NoError(t, err)
	return msg
}

func TestRouter_Live(t *testing.T) {
	t.Run("should stream a snapshot then updates", func(t *testing.T) {
		feed := newFeed(t)
		_, _ = feed.Ingest(t.Context(), ingest.Event{ID: "T1", Sender: "ACC"})

		srv := httptest.NewServer(NewRouter(feed))
		defer srv.Close()

		conn := dial(t, srv, "/ws")

		snap := read(t, conn)
		assert.Equal(t, livefeed.TypeSnapshot, snap.Type)
		require.Len(t, snap.Transactions, 1)

		_, err := feed.Ingest(t.Context(), ingest.Event{ID: "T2", Sender: "ACC"})
		require.NoError(t, err)

		update := read(t, conn)
		assert.Equal(t, livefeed.TypeUpdate, update.Type)
		assert.Equal(t, "T2", update.Transaction.ID)
	})

	t.Run("should release the subscription when the client leaves", func(t *testing.T) {
		feed := newFeed(t)
		srv := httptest.NewServer(NewRouter(feed))
		defer srv.Close()

		conn := dial(t, srv, "/ws")
		read(t, conn)
		require.Equal(t, 1, feed.Stats().Subscribers)

		require.NoError(t, conn.Close())

		assert.Eventually(t, func() bool { return feed.Stats().Subscribers == 0 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("should close the connection when the feed shuts down", func(t *testing.T) {
		feed := newFeed(t)
		require.NoError(t, feed.Start(t.Context()))

		srv := httptest.NewServer(NewRouter(feed))
		defer srv.Close()

		conn := dial(t, srv, "/ws")
		read(t, conn)

		feed.Close()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseTryAgainLater), "got %v", err)
	})

	t.Run("should reject plain HTTP requests", func(t *testing.T) {
		rec := get(t, NewRouter(newFeed(t)), "/ws")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer(t *testing.T) {
	t.Run("should serve until closed", func(t *testing.T) {
		s := NewServer("127.0.0.1:0", NewRouter(newFeed(t)))
		require.NoError(t, s.Start(t.Context()))

		resp, err := http.Get("http://" + s.Addr() + "/healthz")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		assert.NoError(t, s.Close(time.Second))
	})

	t.Run("should fail when the address is taken", func(t *testing.T) {
		first := NewServer("127.0.0.1:0", http.NotFoundHandler())
		require.NoError(t, first.Start(t.Context()))
		defer first.Close(time.Second)

		second := NewServer(first.Addr(), http.NotFoundHandler())
		assert.Error(t, second.Start(t.Context()))
	})
}
