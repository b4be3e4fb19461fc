package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	// AllowedOrigins lists extra origins permitted to submit forms.
	// The origin serving the request is always allowed.
	AllowedOrigins []string
}

// CSRF returns middleware that validates Origin/Referer headers on
// state-changing requests. Session cookies ride along on every form post,
// so cross-site submissions are refused.
func CSRF(config CSRFConfig) gin.HandlerFunc {
	allowedSet := make(map[string]bool)
	for _, origin := range config.AllowedOrigins {
		allowedSet[normalizeOrigin(origin)] = true
	}

	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}

		source := c.GetHeader("Origin")
		if source == "" {
			if referer := c.GetHeader("Referer"); referer != "" {
				source = extractOrigin(referer)
			}
		}
		if source == "" || !isAllowedOrigin(source, c.Request, allowedSet) {
			logrus.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"origin": source,
			}).Warn("CSRF validation failed")
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(origin), "/")
}

// isAllowedOrigin accepts configured origins and the request's own host.
func isAllowedOrigin(origin string, r *http.Request, allowedSet map[string]bool) bool {
	normalized := normalizeOrigin(origin)
	if allowedSet[normalized] {
		return true
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	return parsed.Host != "" && strings.EqualFold(parsed.Host, r.Host)
}

// extractOrigin extracts scheme://host[:port] from a URL.
func extractOrigin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
