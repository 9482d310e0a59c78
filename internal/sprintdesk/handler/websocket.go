package handler

import (
	"errors"
	"net/http"
	"time"

	"sprintdesk/internal/sprintdesk/auth"
	"sprintdesk/internal/sprintdesk/metrics"
	"sprintdesk/internal/sprintdesk/model"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// wsMessage frames every event pushed to a client.
type wsMessage struct {
	Type         string              `json:"type"`
	Notification *model.Notification `json:"notification,omitempty"`
}

// GetNotificationStream handles GET /ws?token=...
// Browsers cannot set headers on the upgrade request, so the token travels in
// the query string. The connection only receives; client frames are discarded.
func (h *Handler) GetNotificationStream(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		raw = auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	}
	caller, err := auth.Authenticate(c.Request().Context(), h.Tokens, h.Service.Users, raw)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrInactiveUser) {
			return c.JSON(http.StatusUnauthorized, model.ErrorResponse{
				Error: model.ErrorDetail{Code: "unauthorized", Message: "Invalid or missing token"},
			})
		}
		return h.fail(c, err)
	}

	sub, err := h.Hub.Subscribe(caller.ID)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "unavailable", Message: "Notification relay is shutting down"},
		})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.Hub.Unsubscribe(sub)
		h.Logger.Warn("websocket upgrade failed", "user_id", caller.ID, "error", err)
		return nil
	}
	metrics.WebsocketConnections.Inc()
	h.Logger.Info("websocket connected", "user_id", caller.ID, "subscription", sub.ID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		h.Hub.Unsubscribe(sub)
		_ = ws.Close()
		metrics.WebsocketConnections.Dec()
		h.Logger.Info("websocket disconnected", "user_id", caller.ID, "subscription", sub.ID)
	}()

	_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ws.WriteJSON(wsMessage{Type: "connected"}); err != nil {
		return nil
	}

	for {
		select {
		case <-done:
			return nil
		case n, ok := <-sub.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return nil
			}
			if err := ws.WriteJSON(wsMessage{Type: "notification", Notification: n}); err != nil {
				h.Logger.Warn("websocket write failed", "user_id", caller.ID, "error", err)
				return nil
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
