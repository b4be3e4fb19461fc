package api

import (
	"net/http"
	"time"

	"ecovendix/internal/middleware"

	"github.com/gin-gonic/gin"
)

// CookieHelper manages the session cookie.
type CookieHelper struct {
	secure bool
	ttl    time.Duration
}

// NewCookieHelper creates a new cookie helper. ttl should match the session lifetime.
func NewCookieHelper(secure bool, ttl time.Duration) *CookieHelper {
	return &CookieHelper{secure: secure, ttl: ttl}
}

// SetSession stores the session token.
func (h *CookieHelper) SetSession(c *gin.Context, token string) {
	h.setCookie(c, token, int(h.ttl.Seconds()))
}

// ClearSession removes the session cookie.
func (h *CookieHelper) ClearSession(c *gin.Context) {
	h.setCookie(c, "", -1)
}

// Token retrieves the session token from the cookie.
func (h *CookieHelper) Token(c *gin.Context) string {
	token, err := c.Cookie(middleware.SessionCookie)
	if err != nil {
		return ""
	}
	return token
}

func (h *CookieHelper) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.SessionCookie,
		value,
		maxAge,
		"/",
		"",
		h.secure,
		true, // httpOnly
	)
}
