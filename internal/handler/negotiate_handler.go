/*
Package handler provides the HTTP handlers, routing setup, and the WebSocket
transport for the relay server.

This file contains the negotiate handler, which hands a client the WebSocket
connection URL and a short-lived access token bound to its user identity.
*/
package handler

import (
	"fmt"
	"net/http"

	"relayhub/internal/pkg/auth/token"
	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/logx"
	"relayhub/internal/pkg/randx"
	"relayhub/internal/pkg/resp"
)

// NegotiateResponse is the payload returned by the negotiate endpoint.
type NegotiateResponse struct {
	// URL is the WebSocket endpoint, access token included.
	URL string `json:"url"`

	// AccessToken is the token alone, for clients composing their own URL.
	AccessToken string `json:"accessToken"`

	// UserID echoes the identity the token is bound to. Relevant when the
	// server generated a guest identity.
	UserID string `json:"userId"`
}

// HandleNegotiate creates an HTTP HandlerFunc for the negotiate endpoint.
// The id query parameter names the user; a missing id gets a generated guest
// identity. The returned token binds that identity to the upcoming connection.
func HandleNegotiate(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("id")

		if userID == "" {
			generated, err := randx.GuestID()
			if err != nil {
				logx.Error(err, "Failed to generate guest identity")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			userID = generated
		}

		tokenString, err := token.Generate(userID, deps.Config.TokenSecret, token.ClientAccessExpiration)
		if err != nil {
			logx.Error(err, "Failed to generate access token", "user", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		scheme := "ws"
		if r.TLS != nil {
			scheme = "wss"
		}

		data := NegotiateResponse{
			URL:         fmt.Sprintf("%s://%s/ws?access_token=%s", scheme, r.Host, tokenString),
			AccessToken: tokenString,
			UserID:      userID,
		}

		logx.Info("Negotiate completed", "user", userID)

		resp.RespondSuccess(w, r, data)
	}
}
