package utils

import (
	"crypto/rand"  // Session id entropy
	"encoding/hex" // Session id encoding
	"errors"       // Error values
	"time"         // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// SessionIDBytes is the entropy of a session id (128 bits)
const SessionIDBytes = 16

// Session Claims
type Claims struct {
	UserID               uint `json:"uid"` // Custom claim for user ID
	IsAdmin              bool `json:"adm"` // Custom claim for the admin flag
	jwt.RegisteredClaims      // Standard JWT claims, ID carries the session id
}

// NewSessionID returns a random hex session id
func NewSessionID() (string, error) {
	b := make([]byte, SessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateJWT creates a signed session token bound to one user and session id
func GenerateJWT(userID uint, isAdmin bool, sessionID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	// Set token claims
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a session token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.UserID == 0 || len(claims.ID) != 2*SessionIDBytes {
		return nil, errors.New("session token missing subject or id")
	}
	return claims, nil
}
