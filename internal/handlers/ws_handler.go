package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"atlas/internal/database"
	"atlas/internal/middleware"
	"atlas/internal/realtime"
	"atlas/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsReadLimit  = 1024
)

// AllowedOrigins lists the cross-origin frontends that may open the event
// stream. Same-origin and non-browser clients are always accepted.
var AllowedOrigins middleware.Origins

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return AllowedOrigins.SameOriginOrAllowed(r)
	},
}

// wsConn adapts a websocket connection to realtime.Client. Broadcasts from
// concurrent requests share one connection, so data writes are serialized.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, message) == nil
}

func (c *wsConn) Close() {
	_ = c.conn.Close()
}

// WebSocketHandler upgrades the connection and subscribes it to the
// authenticated user's task, group and timer events.
// GET /api/ws
func WebSocketHandler(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := &wsConn{conn: conn}
	greet(c, client, userID)

	hub := realtime.GetHub()
	hub.Register(userID, client)
	done := make(chan struct{})
	go keepAlive(conn, done)
	defer func() {
		close(done)
		hub.Unregister(userID, client)
		client.Close()
	}()

	// Clients only listen; reads just drive pong handling and detect close.
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// greet tells a new connection which timer, if any, is running.
func greet(c *gin.Context, client *wsConn, userID uint) {
	var (
		taskID  uint
		elapsed int64
	)
	task, err := services.ActiveTimer(c.Request.Context(), database.GetDB(), userID)
	if err != nil {
		slog.Warn("websocket active timer lookup", "user_id", userID, "error", err)
	} else if task != nil {
		taskID, elapsed = task.ID, services.ElapsedSeconds(task)
	}

	msg, err := realtime.HelloMessage(userID, taskID, elapsed)
	if err != nil {
		return
	}
	client.Send(msg)
}

// keepAlive pings until done is closed or a ping fails. A failed ping lets
// the read deadline expire, which ends the reader loop.
func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
