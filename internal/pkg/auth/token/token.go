/*
Package token issues and validates the short-lived client access tokens handed
out by the negotiate endpoint and consumed by the WebSocket upgrade handler.
*/
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// ClientAccessExpiration defines the validity window of a negotiate token.
	// The token only needs to survive the gap between negotiate and connect.
	ClientAccessExpiration = 10 * time.Minute

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "RelayHub-Server"
)

// Generate creates and signs a new access token string for the given user identity.
func Generate(userID string, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload := &Payload{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
		},
		UserID: userID,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return tok.SignedString([]byte(secretKey))
}

// Parse parses and validates an access token string using the provided secretKey.
func Parse(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	tok, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !tok.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if claims.UserID == "" {
		return nil, errors.New("token carries no user identity")
	}

	return claims, nil
}
