/*
Package handler provides the HTTP handlers, routing setup, and the WebSocket
transport for the relay server.

This file contains the HandleWebSocket function, which is responsible for rate
limiting, validating the access token, upgrading the HTTP connection to
WebSocket, and initiating the peer lifecycle.
*/
package handler

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"relayhub/internal/pkg/auth/token"
	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/limiter"
	"relayhub/internal/pkg/logx"
	"relayhub/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		tokenString := r.URL.Query().Get("access_token")
		if tokenString == "" {
			logx.Warn("WebSocket request rejected: Missing access token")
			resp.RespondError(w, r, errs.NewError(errs.ErrTokenRequired))
			return
		}

		payload, err := token.Parse(tokenString, deps.Config.TokenSecret)
		if err != nil {
			logx.Warn("WebSocket request rejected: Invalid access token", "error", err.Error())
			resp.RespondError(w, r, errs.NewError(errs.ErrTokenInvalid))
			return
		}

		logx.Info("Attempting to upgrade connection", "user", payload.UserID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		peer := NewPeer(conn, deps.Dispatcher, payload.UserID)

		id, cerr := deps.Dispatcher.Connect(payload.UserID, peer)
		if cerr != nil {
			// Capacity rejection is fatal to this handshake only.
			logx.Warn("WebSocket connection rejected after upgrade.", "user", payload.UserID, "code", cerr.Code)

			closeMessage := websocket.FormatCloseMessage(WsCloseCodeServerFull, cerr.Message)
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, closeMessage)
			conn.Close()
			return
		}

		peer.Bind(id)

		go peer.WritePump()

		logx.Info("WebSocket connection established and registered",
			"connection_id", string(id),
			"user", payload.UserID,
		)

		peer.ReadPump()
	}
}
