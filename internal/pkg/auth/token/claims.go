package token

import "github.com/golang-jwt/jwt"

// Payload defines the claims carried by a client access token.
// It binds the user identity established at /negotiate to the WebSocket
// connection that presents the token. This is identity binding only; the
// server grants no roles or permissions through it.
type Payload struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer), used for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the identity the connection will carry, either supplied by the
	// client at negotiate time or generated as a guest id.
	UserID string `json:"userId"`
}
