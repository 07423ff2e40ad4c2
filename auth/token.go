package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtKey is the secret used to sign session tokens.
// In a production environment, this should be loaded from an environment variable or a secret manager.
var jwtKey = []byte("dialogue_session_signing_key_2026")

// SessionClaims defines the structure of the data stored inside the JWT
// minted after a successful authentication.
type SessionClaims struct {
	UID      string `json:"uid"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed session JWT for an authenticated identity.
func GenerateToken(uid, provider string, duration time.Duration) (string, error) {
	expirationTime := time.Now().Add(duration)

	claims := &SessionClaims{
		UID:      uid,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "dialogue",
		},
	}

	// HS256: HMAC with SHA256, same scheme for every session token.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(jwtKey)
}

// ValidateToken parses and validates the signature and expiration of a session token.
func ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
