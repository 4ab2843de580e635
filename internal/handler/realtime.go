package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/turfbook/turf-booking/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// RealtimeHandler bridges Redis live rooms to websocket clients.  A user
// receives its own room; admins also receive the admin room.
type RealtimeHandler struct {
	RDB      redis.UniversalClient
	Upgrader websocket.Upgrader
	Log      *zap.Logger
}

func NewRealtimeHandler(rdb redis.UniversalClient, log *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		RDB: rdb,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Authentication is by token, not cookie.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		Log: log,
	}
}

// rooms returns the Redis channels the caller listens on.
func (h *RealtimeHandler) rooms(c echo.Context) ([]string, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	rooms := []string{service.ChannelPrefix + service.UserRoom(p.ID)}
	if p.Role.IsAdmin() {
		rooms = append(rooms, service.ChannelPrefix+service.AdminRoom)
	}
	return rooms, nil
}

// Connect handles GET /v1/ws.  Each Redis message is forwarded verbatim
// as one text frame holding a service.LiveMessage.
func (h *RealtimeHandler) Connect(c echo.Context) error {
	channels, err := h.rooms(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if h.RDB == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "live updates unavailable"})
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	sub := h.RDB.Subscribe(ctx, channels...)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		h.Log.Warn("live subscribe failed", zap.Strings("channels", channels), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "live updates unavailable"})
	}

	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		return nil
	}
	defer conn.Close()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m.Payload)); err != nil {
				return nil
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
