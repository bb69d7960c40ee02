package websocket

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/course-admin-service/internal/auth"
	"github.com/princekumarofficial/course-admin-service/internal/utils/response"
	wsClient "github.com/princekumarofficial/course-admin-service/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the dashboard is served from a different origin than the API
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler godoc
// @Summary      Upload event stream
// @Description  Streams upload.* events to an admin dashboard. Sending {"action":"watch","session_id":"..."} narrows the stream to watched sessions; "unwatch" widens it again. Browsers cannot set headers on websocket requests, so the token travels in the query string.
// @Tags         events
// @Param        token  query  string  true  "JWT"
// @Success      101
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /admin/ws [get]
func WebSocketHandler(hub *wsClient.Hub, resolver auth.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			slog.Warn("WebSocket connection attempted without token")
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("token required")))
			return
		}

		principal, err := resolver.Resolve(r.Context(), token)
		if err != nil {
			slog.Warn("WebSocket connection attempted with invalid token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid token")))
			return
		}

		if !principal.IsAdmin() {
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("admin access required")))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		client := wsClient.NewClient(conn, principal.UserID, hub)
		if !hub.RegisterClient(client) {
			conn.Close()
			return
		}

		client.Start()

		slog.Info("WebSocket connection established", slog.String("user_id", principal.UserID))
	}
}
