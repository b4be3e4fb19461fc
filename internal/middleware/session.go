// Package middleware provides the gin middleware for the kiosk: session
// resolution, the admin gate, CSRF, rate limiting, request ids and metrics.
package middleware

import (
	"net/http"

	"ecovendix/internal/domain"
	"ecovendix/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie that carries the session token
const SessionCookie = "session"

const identityKey = "identity"

// SessionMiddleware resolves the session cookie into an identity. It never
// aborts; callers without a valid session continue as anonymous.
func SessionMiddleware(sessions service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie) // Missing cookie means anonymous
		if err != nil || token == "" {
			c.Next()
			return
		}
		if identity, ok := sessions.Resolve(c.Request.Context(), token); ok {
			c.Set(identityKey, identity) // Store identity in context
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity resolved for this request, or an anonymous one.
func CurrentIdentity(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(domain.Identity); ok {
			return identity
		}
	}
	return domain.Identity{}
}

// AuthRequired redirects anonymous callers to the login page.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c).Anonymous() {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
