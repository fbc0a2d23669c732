package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Asthay97/personal-bank-fullstack/internal/livefeed"
	"github.com/Asthay97/personal-bank-fullstack/internal/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// live upgrades the request and streams the subscription: one snapshot,
// then updates in publish order. A subscriber dropped by the hub sees its
// connection closed and is expected to reconnect for a fresh snapshot.
func (h *handler) live(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub, err := h.feed.Subscribe()
	if err != nil {
		h.closeWith(conn, websocket.CloseGoingAway, "shutting down")
		return
	}
	defer sub.Close()

	ctx := logger.Derive(c.Request.Context(), "subscriber.id", sub.ID.String(), "remote.addr", conn.RemoteAddr().String())
	logger.Info(ctx, "live subscriber connected")
	defer logger.Info(ctx, "live subscriber disconnected")

	// Inbound frames carry nothing; reading only surfaces close and pong.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(h.cfg.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.cfg.writeTimeout)); err != nil {
				return
			}
		case msg, ok := <-sub.C:
			if !ok {
				h.closeWith(conn, websocket.CloseTryAgainLater, "resync required")
				return
			}

			payload, err := livefeed.Encode(msg)
			if err != nil {
				logger.Error(ctx, "live message encoding failed", "error", err)
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn(ctx, "live write failed", "error", err)
				return
			}
		}
	}
}

func (h *handler) closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(h.cfg.writeTimeout),
	)
}
